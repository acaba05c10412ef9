package discover_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/auth"
	"github.com/oggyb/ecstasy/internal/cache"
	"github.com/oggyb/ecstasy/internal/config"
	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/service/discover"
	"github.com/oggyb/ecstasy/internal/service/match"
)

// Dataset:
//   - user 1 (Ana, female, looking for men): genres rock+indie, artists X+Y
//   - user 2 (Ben, male): genres rock+pop, artists X+Z → score 0.6 vs Ana
//   - user 3 (Carl, male): no preferences → score 0
//   - user 4 (Dana, female): identical taste to Ana but filtered out by gender
func setupServices(t *testing.T) (*discover.Service, *match.Service) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models()...))

	prefs := func(genres, artists []string) []db.PreferenceItem {
		var items []db.PreferenceItem
		for _, g := range genres {
			items = append(items, db.PreferenceItem{Kind: db.PreferenceGenre, Label: g})
		}
		for _, a := range artists {
			items = append(items, db.PreferenceItem{Kind: db.PreferenceArtist, Label: a})
		}
		return items
	}

	users := []db.User{
		{ID: 1, Name: "Ana", Email: "ana@test.com", PasswordHash: "x", Gender: "female", LookingFor: "men",
			Preferences: prefs([]string{"rock", "indie"}, []string{"X", "Y"})},
		{ID: 2, Name: "Ben", Email: "ben@test.com", PasswordHash: "x", Gender: "male", LookingFor: "everyone",
			Preferences: prefs([]string{"rock", "pop"}, []string{"X", "Z"})},
		{ID: 3, Name: "Carl", Email: "carl@test.com", PasswordHash: "x", Gender: "male", LookingFor: "everyone"},
		{ID: 4, Name: "Dana", Email: "dana@test.com", PasswordHash: "x", Gender: "female", LookingFor: "everyone",
			Preferences: prefs([]string{"rock", "indie"}, []string{"X", "Y"})},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	appCtx := app.New(dbase, redisCache, logger, jwt)
	return discover.NewService(appCtx), match.NewService(appCtx)
}

func TestCandidateFeedScoringAndOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupServices(t)

	feed, err := svc.CandidateFeed(ctx, 1)
	require.NoError(t, err)

	// Dana is female and Ana looks for men; Ben and Carl remain.
	require.Len(t, feed, 2)
	assert.Equal(t, uint64(2), feed[0].UserID)
	assert.InDelta(t, 0.6, feed[0].Score, 1e-9)
	assert.Equal(t, []string{"rock"}, feed[0].CommonGenres)
	assert.Equal(t, []string{"x"}, feed[0].CommonArtists)

	// zero-preference users stay in the feed with score 0
	assert.Equal(t, uint64(3), feed[1].UserID)
	assert.Zero(t, feed[1].Score)
}

func TestCandidateFeedExcludesLiked(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)

	_, err := matchSvc.Like(ctx, 1, 2)
	require.NoError(t, err)

	feed, err := svc.CandidateFeed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, uint64(3), feed[0].UserID)
}

func TestCandidateFeedEveryoneSkipsGenderFilter(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupServices(t)

	feed, err := svc.CandidateFeed(ctx, 2) // Ben looks for everyone
	require.NoError(t, err)
	require.Len(t, feed, 3)

	// identical taste sorts first, ties broken by ascending id
	assert.Equal(t, uint64(1), feed[0].UserID)
	assert.Equal(t, uint64(4), feed[1].UserID)
	assert.Equal(t, uint64(3), feed[2].UserID)
	assert.Equal(t, feed[0].Score, feed[1].Score)
}

func TestCandidateFeedUnknownRequester(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupServices(t)

	_, err := svc.CandidateFeed(ctx, 999)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

func TestCandidateFeedEmptyIsSuccess(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)

	// Ana likes both visible candidates; her feed drains to empty, not error.
	_, err := matchSvc.Like(ctx, 1, 2)
	require.NoError(t, err)
	_, err = matchSvc.Like(ctx, 1, 3)
	require.NoError(t, err)

	feed, err := svc.CandidateFeed(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, feed)
}
