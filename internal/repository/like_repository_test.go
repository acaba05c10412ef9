package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestCreateEdgeIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	created, err := repo.CreateEdge(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	// second like affects nothing
	created, err = repo.CreateEdge(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, dbase.Model(&db.LikeEdge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFlagMatchIsSymmetric(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	_, err := repo.CreateEdge(ctx, 1, 2)
	require.NoError(t, err)
	_, err = repo.CreateEdge(ctx, 2, 1)
	require.NoError(t, err)

	require.NoError(t, repo.FlagMatch(ctx, 1, 2))

	for _, pair := range [][2]uint64{{1, 2}, {2, 1}} {
		matched, err := repo.IsMatched(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, matched)
	}
}

func TestIsMatchedFalseForOneWayLike(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	_, err := repo.CreateEdge(ctx, 1, 2)
	require.NoError(t, err)

	matched, err := repo.IsMatched(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestGetLikersExcludesMatchedAndPaginates(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	// three pending likers for user 99, one already matched
	for _, from := range []uint64{1, 2, 3} {
		_, err := repo.CreateEdge(ctx, from, 99)
		require.NoError(t, err)
	}
	_, err := repo.CreateEdge(ctx, 4, 99)
	require.NoError(t, err)
	_, err = repo.CreateEdge(ctx, 99, 4)
	require.NoError(t, err)
	require.NoError(t, repo.FlagMatch(ctx, 4, 99))

	edges, next, err := repo.GetLikers(ctx, 99, nil, 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	require.NotNil(t, next)

	rest, next, err := repo.GetLikers(ctx, 99, next, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, next)

	seen := map[uint64]bool{}
	for _, e := range append(edges, rest...) {
		seen[e.FromID] = true
	}
	assert.Equal(t, map[uint64]bool{1: true, 2: true, 3: true}, seen)

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGetLikersRejectsGarbageToken(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	token := "not-a-cursor"
	_, _, err := repo.GetLikers(ctx, 99, &token, 10)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
}

func TestPreferenceReplaceAll(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPreferenceRepository(dbase)

	require.NoError(t, repo.ReplaceAll(ctx, 7, []string{"Rock", "rock", " Indie "}, []string{"Radiohead"}))

	items, err := repo.GetByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 3) // case-insensitive dupe collapsed, labels trimmed

	// replace-all swaps the whole set
	require.NoError(t, repo.ReplaceAll(ctx, 7, []string{"Jazz"}, nil))
	items, err = repo.GetByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Jazz", items[0].Label)
	assert.Equal(t, db.PreferenceGenre, items[0].Kind)
}

func TestMessageMarkReadDirection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMessageRepository(dbase)

	_, err := repo.Insert(ctx, 1, 2, "hey")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 2, 1, "hi back")
	require.NoError(t, err)

	// user 2 reads: only 1→2 flips
	flipped, err := repo.MarkRead(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	msgs, err := repo.ListBetween(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		if m.FromID == 1 {
			assert.True(t, m.ReadFlag)
		} else {
			assert.False(t, m.ReadFlag)
		}
	}

	unread, err := repo.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
