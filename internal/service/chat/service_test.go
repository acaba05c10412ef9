package chat_test

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
	"github.com/oggyb/ecstasy/internal/service/chat"
	"github.com/oggyb/ecstasy/internal/service/match"
)

func setupServices(t *testing.T) (*chat.Service, *match.Service) {
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

	users := []db.User{
		{ID: 1, Name: "Ana", Email: "ana@test.com", PasswordHash: "x", Gender: "female", LookingFor: "everyone"},
		{ID: 2, Name: "Ben", Email: "ben@test.com", PasswordHash: "x", Gender: "male", LookingFor: "everyone"},
		{ID: 3, Name: "Cara", Email: "cara@test.com", PasswordHash: "x", Gender: "female", LookingFor: "everyone"},
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
	return chat.NewService(appCtx), match.NewService(appCtx)
}

// makeMatch wires the mutual like 1 ↔ 2, which also inserts the welcome message.
func makeMatch(t *testing.T, matchSvc *match.Service, a, b uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := matchSvc.Like(ctx, a, b)
	require.NoError(t, err)
	result, err := matchSvc.Like(ctx, b, a)
	require.NoError(t, err)
	require.True(t, result.Matched)
}

func TestSendMessageRequiresMatch(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)

	_, err := svc.SendMessage(ctx, 1, 2, "hello")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindForbidden, svcErr.KindOf(err))

	// a one-sided like is not enough
	_, err = matchSvc.Like(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, "hello")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindForbidden, svcErr.KindOf(err))

	// once matched, the gate opens for both directions
	_, err = matchSvc.Like(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, "hello")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 2, 1, "hey!")
	require.NoError(t, err)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)
	makeMatch(t, matchSvc, 1, 2)

	_, err := svc.SendMessage(ctx, 1, 2, "   ")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))

	_, err = svc.SendMessage(ctx, 1, 999, "hi")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

// TestConversationRoundTrip: both participants see identical content in
// identical chronological order.
func TestConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)
	makeMatch(t, matchSvc, 1, 2)

	_, err := svc.SendMessage(ctx, 2, 1, "hi Ana")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, "hi Ben")
	require.NoError(t, err)

	anaView, err := svc.FetchConversation(ctx, 1, 2)
	require.NoError(t, err)
	benView, err := svc.FetchConversation(ctx, 2, 1)
	require.NoError(t, err)

	require.Len(t, anaView, 3) // welcome message + two replies
	require.Len(t, benView, 3)
	for i := range anaView {
		assert.Equal(t, anaView[i].ID, benView[i].ID)
		assert.Equal(t, anaView[i].Content, benView[i].Content)
	}
	assert.Equal(t, match.WelcomeMessage, anaView[0].Content)
}

// TestFetchMarksInboundRead: fetching flips only counterpart → requester
// messages; the requester's own outbound messages are untouched.
func TestFetchMarksInboundRead(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)
	makeMatch(t, matchSvc, 1, 2)

	_, err := svc.SendMessage(ctx, 1, 2, "one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, "two")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 2, 1, "reply")
	require.NoError(t, err)

	// Ben fetches: Ana's messages to him flip, his own stay unread for Ana.
	view, err := svc.FetchConversation(ctx, 2, 1)
	require.NoError(t, err)
	for _, m := range view {
		if m.ToID == 2 {
			assert.True(t, m.ReadFlag, "inbound message %q should be read", m.Content)
		}
	}

	var unreadForAna int64
	// Ana has Ben's "reply" plus the welcome message pending... the welcome
	// message targets Ben, so only "reply" counts.
	total, err := svc.UnreadTotal(ctx, 1)
	require.NoError(t, err)
	unreadForAna = total
	assert.Equal(t, int64(1), unreadForAna)
}

func TestConversationsMergeAndOrder(t *testing.T) {
	ctx := context.Background()
	svc, matchSvc := setupServices(t)

	// matched conversation with Ben, pending like on Cara
	makeMatch(t, matchSvc, 1, 2)
	_, err := svc.SendMessage(ctx, 2, 1, "hi Ana")
	require.NoError(t, err)
	_, err = matchSvc.Like(ctx, 1, 3)
	require.NoError(t, err)

	summaries, err := svc.Conversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[uint64]chat.ConversationSummary{}
	for _, s := range summaries {
		byID[s.CounterpartID] = s
	}

	ben := byID[2]
	assert.Equal(t, chat.StatusMatched, ben.Status)
	assert.Equal(t, "Ben", ben.Name)
	require.NotNil(t, ben.LastMessage)
	assert.Equal(t, "hi Ana", *ben.LastMessage)
	assert.Equal(t, int64(1), ben.UnreadCount)

	cara := byID[3]
	assert.Equal(t, chat.StatusLikedPending, cara.Status)
	assert.Nil(t, cara.LastMessage)
	assert.Zero(t, cara.UnreadCount)

	// each counterpart appears exactly once even when present via both the
	// message log and the like edges
	assert.Len(t, byID, 2)
}

func TestConversationsEmptyIsSuccess(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupServices(t)

	summaries, err := svc.Conversations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestConversationsUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupServices(t)

	_, err := svc.Conversations(ctx, 999)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}
