package discover

import (
	"context"
	"sort"
	"time"

	"github.com/oggyb/ecstasy/internal/app"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/repository"
	"github.com/oggyb/ecstasy/internal/service/compat"
)

// Service builds the ranked discovery feed.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

// NewService creates the discover service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Candidate is one discovery entry with its computed compatibility.
type Candidate struct {
	UserID        uint64   `json:"user_id"`
	Name          string   `json:"name"`
	Age           int      `json:"age,omitempty"`
	Gender        string   `json:"gender"`
	Bio           string   `json:"bio,omitempty"`
	Location      string   `json:"location,omitempty"`
	AvatarURL     string   `json:"avatar_url,omitempty"`
	Score         float64  `json:"score"`
	GenreScore    float64  `json:"genre_score"`
	ArtistScore   float64  `json:"artist_score"`
	CommonGenres  []string `json:"common_genres"`
	CommonArtists []string `json:"common_artists"`
}

// CandidateFeed returns discovery candidates for the requester, best match
// first.
//
// Behavior:
//   - Excludes the requester, anyone already liked, and (when looking_for
//     narrows it) the non-requested gender — all applied in the repository.
//   - Candidates without preference items stay in the feed with score 0.
//   - Sorted by score descending; ties broken by ascending user id so the
//     order is reproducible for the same stored state.
//   - Unknown requester → NotFound. No candidates → empty feed, not an error.
func (s *Service) CandidateFeed(ctx context.Context, userID uint64) ([]Candidate, error) {
	s.appCtx.Logger.Debug("CandidateFeed called", "user", userID)

	requester, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	mine := compat.FromItems(requester.Preferences)

	candidates, err := s.users.ListCandidates(ctx, requester)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	feed := make([]Candidate, 0, len(candidates))
	for _, u := range candidates {
		breakdown := compat.Compare(mine, compat.FromItems(u.Preferences))
		entry := Candidate{
			UserID:        u.ID,
			Name:          u.Name,
			Age:           ageOf(u.Birthdate),
			Gender:        u.Gender,
			Score:         breakdown.Score,
			GenreScore:    breakdown.GenreScore,
			ArtistScore:   breakdown.ArtistScore,
			CommonGenres:  breakdown.CommonGenres,
			CommonArtists: breakdown.CommonArtists,
		}
		if u.Profile != nil {
			entry.Bio = u.Profile.Bio
			entry.Location = u.Profile.Location
			entry.AvatarURL = u.Profile.AvatarURL
		}
		feed = append(feed, entry)
	}

	sort.Slice(feed, func(i, j int) bool {
		if feed[i].Score != feed[j].Score {
			return feed[i].Score > feed[j].Score
		}
		return feed[i].UserID < feed[j].UserID
	})

	return feed, nil
}

func ageOf(birthdate *time.Time) int {
	if birthdate == nil {
		return 0
	}
	now := time.Now()
	years := now.Year() - birthdate.Year()
	if now.YearDay() < birthdate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
