package chat

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/repository"
)

// Service enforces the messaging gate and assembles conversation read models.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	likes    *repository.LikeRepository
	messages *repository.MessageRepository
}

// NewService creates the chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// SendMessage appends a message from → to.
//
// Behavior:
//   - Content must be non-empty after trimming (validation error).
//   - The pair must be a confirmed match, checked symmetrically; otherwise
//     Forbidden.
//   - The recipient's unread counter cache is bumped best-effort.
func (s *Service) SendMessage(ctx context.Context, fromID, toID uint64, content string) (*db.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.Validation("message content must not be empty")
	}
	if toID == 0 {
		return nil, svcErr.Validation("recipient user id is required")
	}
	if fromID == toID {
		return nil, svcErr.Validation("cannot message yourself")
	}

	exists, err := s.users.Exists(ctx, toID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("recipient not found")
	}

	matched, err := s.likes.IsMatched(ctx, fromID, toID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !matched {
		return nil, svcErr.Forbidden("can only message matched users")
	}

	msg, err := s.messages.Insert(ctx, fromID, toID, content)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	cache := s.appCtx.RedisCache
	key := cache.KeyForUnread(toID)
	_, _ = cache.Incr(ctx, key)
	_ = cache.Client.Expire(ctx, key, time.Hour).Err() // refresh TTL

	s.appCtx.Logger.Debug("message sent", "from", fromID, "to", toID, "id", msg.ID)
	return msg, nil
}

// FetchConversation returns all messages between requester and counterpart in
// chronological order.
//
// Side effect: every unread counterpart → requester message is marked read
// before listing, so the returned rows and any later poll agree. Outbound
// messages are untouched. Callers polling for new messages must expect this.
func (s *Service) FetchConversation(ctx context.Context, requesterID, counterpartID uint64) ([]db.Message, error) {
	exists, err := s.users.Exists(ctx, counterpartID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("counterpart not found")
	}

	flipped, err := s.messages.MarkRead(ctx, counterpartID, requesterID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if flipped > 0 {
		cache := s.appCtx.RedisCache
		_ = cache.Del(ctx, cache.KeyForUnread(requesterID))
	}

	msgs, err := s.messages.ListBetween(ctx, requesterID, counterpartID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return msgs, nil
}

// Conversation status tags.
const (
	StatusMatched      = "matched"
	StatusLikedPending = "liked-pending"
)

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	CounterpartID  uint64     `json:"counterpart_id"`
	Name           string     `json:"name"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	LastMessage    *string    `json:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	UnreadCount    int64      `json:"unread_count"`
	Status         string     `json:"status"`
	LastActivityAt time.Time  `json:"last_activity_at"`
}

// Conversations assembles per-counterpart summaries for everyone the user has
// liked or exchanged a message with.
//
// Merging rule: counterparts from the message log and from outgoing likes are
// unioned, deduplicated by id — each appears exactly once. Ordering is most
// recent activity first (last message time, or like time when no message).
func (s *Service) Conversations(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("user not found")
	}

	msgs, err := s.messages.ListInvolving(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	edges, err := s.likes.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	byCounterpart := make(map[uint64]*ConversationSummary)
	entry := func(id uint64) *ConversationSummary {
		if sum, ok := byCounterpart[id]; ok {
			return sum
		}
		sum := &ConversationSummary{CounterpartID: id, Status: StatusMatched}
		byCounterpart[id] = sum
		return sum
	}

	// Messages arrive oldest-first, so the last write per counterpart wins.
	for _, m := range msgs {
		counterpartID := m.FromID
		if counterpartID == userID {
			counterpartID = m.ToID
		}
		sum := entry(counterpartID)
		content, at := m.Content, m.CreatedAt
		sum.LastMessage = &content
		sum.LastMessageAt = &at
		sum.LastActivityAt = at
		if m.ToID == userID && !m.ReadFlag {
			sum.UnreadCount++
		}
	}

	for _, e := range edges {
		sum := entry(e.ToID)
		if e.IsMatch {
			sum.Status = StatusMatched
		} else {
			sum.Status = StatusLikedPending
		}
		if sum.LastMessageAt == nil {
			sum.LastActivityAt = e.CreatedAt
		}
	}

	ids := make([]uint64, 0, len(byCounterpart))
	for id := range byCounterpart {
		ids = append(ids, id)
	}
	basics, err := s.users.GetBasics(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]ConversationSummary, 0, len(byCounterpart))
	for _, sum := range byCounterpart {
		if u, ok := basics[sum.CounterpartID]; ok {
			sum.Name = u.Name
			if u.Profile != nil {
				sum.AvatarURL = u.Profile.AvatarURL
			}
		}
		out = append(out, *sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].CounterpartID < out[j].CounterpartID
	})
	return out, nil
}

// UnreadTotal returns the user's total unread message count, cache-first.
func (s *Service) UnreadTotal(ctx context.Context, userID uint64) (int64, error) {
	cache := s.appCtx.RedisCache
	key := cache.KeyForUnread(userID)

	if n, ok, err := cache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = cache.SetCount(ctx, key, count)
	return count, nil
}
