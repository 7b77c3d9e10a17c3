package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// seedUsers inserts users u1..uN with strictly increasing created_at.
func seedUsers(t *testing.T, gdb *gorm.DB, n int) []db.User {
	t.Helper()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	users := make([]db.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, db.User{
			ID:           fmt.Sprintf("u%d", i),
			Name:         fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("u%d@test.com", i),
			PasswordHash: "x",
			Interests:    []string{"Coffee"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, gdb.Create(&users).Error)
	return users
}

func TestListExcluding_NewestFirstWithoutSelf(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 3)
	repo := repository.NewUserRepository(gdb)

	users, err := repo.ListExcluding(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u3", users[0].ID)
	assert.Equal(t, "u1", users[1].ID)
	assert.Equal(t, []string{"Coffee"}, []string(users[0].Interests))
}

func TestFindByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	_, err := repo.FindByID(ctx, "nobody")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestRequests_PendingListAndResolve(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 3)
	repo := repository.NewRequestRepository(gdb)

	first := &db.ConnectionRequest{SenderID: "u1", ReceiverID: "u3", Message: "Coffee?",
		CreatedAt: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	second := &db.ConnectionRequest{SenderID: "u2", ReceiverID: "u3", Message: "Walk?",
		CreatedAt: time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, db.StatusPending, first.Status)

	pending, err := repo.ListPendingFor(ctx, "u3")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID, "newest first")
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "user2", pending[0].Sender.Name)

	has, err := repo.HasPending(ctx, "u1", "u3")
	require.NoError(t, err)
	assert.True(t, has)

	ok, err := repo.ResolvePending(ctx, first.ID, db.StatusAccepted, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	// second resolution of the same row affects nothing
	ok, err = repo.ResolvePending(ctx, first.ID, db.StatusRejected, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repo.CountPending(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sent, err := repo.ListSentBy(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, db.StatusAccepted, sent[0].Status)
	assert.NotNil(t, sent[0].RespondedAt)
}

// TestRequests_OnePendingPerDirection covers the unique pending key: it holds
// even when the HasPending check is skipped, as it is when two sends race.
func TestRequests_OnePendingPerDirection(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 2)
	repo := repository.NewRequestRepository(gdb)

	first := &db.ConnectionRequest{SenderID: "u1", ReceiverID: "u2", Message: "Coffee?"}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &db.ConnectionRequest{SenderID: "u1", ReceiverID: "u2", Message: "Coffee again?"})
	assert.ErrorIs(t, err, svcErr.ErrDuplicatePending)

	// the other direction is a different key
	require.NoError(t, repo.Create(ctx, &db.ConnectionRequest{SenderID: "u2", ReceiverID: "u1", Message: "Tea?"}))

	// resolving frees the key for a new request
	ok, err := repo.ResolvePending(ctx, first.ID, db.StatusRejected, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Create(ctx, &db.ConnectionRequest{SenderID: "u1", ReceiverID: "u2", Message: "Second try?"}))

	var n int64
	require.NoError(t, gdb.Model(&db.ConnectionRequest{}).Where("sender_id = ? AND receiver_id = ?", "u1", "u2").Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 1)
	repo := repository.NewUserRepository(gdb)

	err := repo.Create(ctx, &db.User{Name: "Copy", Email: "u1@test.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	require.NoError(t, repo.Create(ctx, &db.User{Name: "New", Email: "new@test.com", PasswordHash: "x"}))
}

func TestChats_EnsureIsIdempotentPerPair(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 2)
	chats := repository.NewChatRepository(gdb)

	c1, err := chats.EnsureForRequest(ctx, &db.ConnectionRequest{ID: "r1", SenderID: "u1", ReceiverID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "u1", c1.User1ID)
	assert.Equal(t, "u2", c1.User2ID)

	// reverse direction maps onto the same pair
	c2, err := chats.EnsureForRequest(ctx, &db.ConnectionRequest{ID: "r2", SenderID: "u2", ReceiverID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, "r1", c2.RequestID)

	var count int64
	require.NoError(t, gdb.Model(&db.Chat{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	updated, err := chats.UpdateLastMessage(ctx, c1.ID, "see you at 7", time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "see you at 7", *updated.LastMessage)

	list, err := chats.ListFor(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestThreads_InterestNeverNegative(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 1)
	repo := repository.NewThreadRepository(gdb)

	th := &db.Thread{AuthorID: "u1", Content: "Going to Marine Drive tonight"}
	require.NoError(t, repo.Create(ctx, th))

	got, err := repo.AdjustInterest(ctx, th.ID, +1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.InterestedCount)

	got, err = repo.AdjustInterest(ctx, th.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.InterestedCount)

	got, err = repo.AdjustInterest(ctx, th.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.InterestedCount)

	_, err = repo.AdjustInterest(ctx, "missing", +1)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestThreads_ListPage(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 1)
	repo := repository.NewThreadRepository(gdb)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &db.Thread{
			ID:        fmt.Sprintf("t%d", i),
			AuthorID:  "u1",
			Content:   fmt.Sprintf("plan %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page1, next, err := repo.ListPage(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, "t4", page1[0].ID)
	assert.Equal(t, "t3", page1[1].ID)
	require.NotNil(t, page1[0].Author)

	page2, next, err := repo.ListPage(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "t2", page2[0].ID)

	page3, next, err := repo.ListPage(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "t0", page3[0].ID)
	assert.Nil(t, next)
}

func TestTokens_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedUsers(t, gdb, 1)
	repo := repository.NewTokenRepository(gdb)

	require.NoError(t, repo.Replace(ctx, &db.VerificationToken{Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Replace(ctx, &db.VerificationToken{Token: "new", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := repo.Consume(ctx, "old")
	assert.ErrorIs(t, err, svcErr.ErrNotFound, "replaced tokens stop working")

	tok, err := repo.Consume(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "u1", tok.UserID)

	_, err = repo.Consume(ctx, "new")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}
