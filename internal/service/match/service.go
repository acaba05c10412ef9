package match

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/repository"
)

// WelcomeMessage is the system-authored first message inserted when a match
// forms, sent from the counterpart to the user whose like completed the pair.
const WelcomeMessage = "You're a match! Start the conversation by sharing your favorite song right now."

// Service implements the like/match engine: directed likes, mutual-like
// promotion, and the "liked you" read model.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	likes  *repository.LikeRepository
}

// NewService creates the match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		likes:  repository.NewLikeRepository(appCtx.DB),
	}
}

// LikeResult reports what a Like call did.
type LikeResult struct {
	Edge    db.LikeEdge
	Matched bool
}

// Like records actor → target interest and promotes the pair to a match when
// the reciprocal edge exists.
//
// Behavior:
//   - Self-likes are a validation error; unknown targets are NotFound.
//   - A duplicate like is a Conflict; it never creates a second edge.
//   - Edge insert, reciprocal check, match flagging and the welcome message
//     run in one SERIALIZABLE transaction, so two racing likes for the same
//     pair cannot both miss the reciprocal: one of them observes the other or
//     aborts. The welcome message is inserted exactly once, by the call that
//     flips the pair from un-matched to matched.
func (s *Service) Like(ctx context.Context, actorID, targetID uint64) (*LikeResult, error) {
	s.appCtx.Logger.Debug("Like called", "actor", actorID, "target", targetID)

	if actorID == 0 || targetID == 0 {
		return nil, svcErr.Validation("target user id is required")
	}
	if actorID == targetID {
		return nil, svcErr.Validation("cannot like yourself")
	}

	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("target user not found")
	}

	var result LikeResult
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := repository.NewLikeRepository(tx)
		messages := repository.NewMessageRepository(tx)

		created, err := likes.CreateEdge(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if !created {
			return svcErr.Conflict("already liked this user")
		}

		reciprocal, err := likes.FindEdge(ctx, targetID, actorID)
		if err != nil {
			return err
		}
		if reciprocal != nil && !reciprocal.IsMatch {
			if err := likes.FlagMatch(ctx, actorID, targetID); err != nil {
				return err
			}
			if _, err := messages.Insert(ctx, targetID, actorID, WelcomeMessage); err != nil {
				return err
			}
			result.Matched = true
		}

		edge, err := likes.FindEdge(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		result.Edge = *edge
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	// Best-effort counter cache maintenance; DB stays the source of truth.
	cache := s.appCtx.RedisCache
	key := cache.KeyForLikeCount(targetID)
	if result.Matched {
		// target's pending like on the actor just became a match
		key = cache.KeyForLikeCount(actorID)
		_, _ = cache.Decr(ctx, key)
	} else {
		_, _ = cache.Incr(ctx, key)
	}
	_ = cache.Client.Expire(ctx, key, time.Hour).Err() // refresh TTL

	s.appCtx.Logger.Info("like recorded", "actor", actorID, "target", targetID, "matched", result.Matched)
	return &result, nil
}

// IsMatched reports whether the unordered pair is a confirmed match.
func (s *Service) IsMatched(ctx context.Context, a, b uint64) (bool, error) {
	matched, err := s.likes.IsMatched(ctx, a, b)
	if err != nil {
		return false, svcErr.Map(err)
	}
	return matched, nil
}

// Liker is one entry of the "liked you" list.
type Liker struct {
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	LikedAt   time.Time `json:"liked_at"`
}

// LikedYou returns users whose like on the recipient is still pending
// (not matched back), newest first, with cursor pagination.
func (s *Service) LikedYou(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]Liker, *string, error) {
	s.appCtx.Logger.Debug("LikedYou called", "recipient", userID)

	edges, nextToken, err := s.likes.GetLikers(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FromID)
	}
	basics, err := s.users.GetBasics(ctx, ids)
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}

	likers := make([]Liker, 0, len(edges))
	for _, e := range edges {
		liker := Liker{UserID: e.FromID, LikedAt: e.CreatedAt}
		if u, ok := basics[e.FromID]; ok {
			liker.Name = u.Name
			if u.Profile != nil {
				liker.AvatarURL = u.Profile.AvatarURL
			}
		}
		likers = append(likers, liker)
	}
	return likers, nextToken, nil
}

// LikedYouCount returns how many pending likes the user has.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On cache miss, falls back to the DB and repopulates with a 1h TTL.
func (s *Service) LikedYouCount(ctx context.Context, userID uint64) (int64, error) {
	cache := s.appCtx.RedisCache
	key := cache.KeyForLikeCount(userID)

	if n, ok, err := cache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := s.likes.CountLikers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = cache.SetCount(ctx, key, count)
	return count, nil
}

// MatchSummary is one confirmed match for the matches list.
type MatchSummary struct {
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	MatchedAt time.Time `json:"matched_at"`
}

// Matches lists the user's confirmed matches, most recent first.
func (s *Service) Matches(ctx context.Context, userID uint64) ([]MatchSummary, error) {
	edges, err := s.likes.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	matched := make([]db.LikeEdge, 0, len(edges))
	ids := make([]uint64, 0, len(edges))
	for _, e := range edges {
		if e.IsMatch {
			matched = append(matched, e)
			ids = append(ids, e.ToID)
		}
	}
	basics, err := s.users.GetBasics(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]MatchSummary, 0, len(matched))
	for _, e := range matched {
		summary := MatchSummary{UserID: e.ToID, MatchedAt: e.UpdatedAt}
		if u, ok := basics[e.ToID]; ok {
			summary.Name = u.Name
			if u.Profile != nil {
				summary.AvatarURL = u.Profile.AvatarURL
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchedAt.Equal(out[j].MatchedAt) {
			return out[i].MatchedAt.After(out[j].MatchedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
