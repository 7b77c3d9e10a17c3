package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/lifecycle"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// one connection serializes transactions, as row locks would on MySQL
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))

	users := []db.User{
		{ID: "a", Name: "Asha", Email: "a@test.com", PasswordHash: "x"},
		{ID: "b", Name: "Bilal", Email: "b@test.com", PasswordHash: "x"},
	}
	require.NoError(t, database.Create(&users).Error)
	return database
}

func pendingRequest(t *testing.T, gdb *gorm.DB, from, to string) *db.ConnectionRequest {
	t.Helper()
	req := &db.ConnectionRequest{SenderID: from, ReceiverID: to, Message: "Coffee at 7?", Status: db.StatusPending}
	require.NoError(t, gdb.Create(req).Error)
	return req
}

func countChats(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.Chat{}).Count(&n).Error)
	return n
}

func TestTransition(t *testing.T) {
	assert.NoError(t, lifecycle.Transition(db.StatusPending, db.StatusAccepted))
	assert.NoError(t, lifecycle.Transition(db.StatusPending, db.StatusRejected))

	var ve *svcErr.ValidationError
	assert.ErrorAs(t, lifecycle.Transition(db.StatusPending, db.StatusPending), &ve)

	var te *svcErr.InvalidTransitionError
	require.ErrorAs(t, lifecycle.Transition(db.StatusAccepted, db.StatusRejected), &te)
	assert.Equal(t, "accepted", te.From)
	assert.Equal(t, "rejected", te.To)
}

func TestUpdateStatus_AcceptCreatesChat(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	res, err := ctrl.UpdateStatus(ctx, req.ID, db.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, db.StatusAccepted, res.Request.Status)
	require.NotNil(t, res.Request.RespondedAt)
	require.NotNil(t, res.Chat)
	assert.Equal(t, "a", res.Chat.User1ID)
	assert.Equal(t, "b", res.Chat.User2ID)
	assert.Equal(t, req.ID, res.Chat.RequestID)
	assert.Equal(t, int64(1), countChats(t, gdb))
}

func TestUpdateStatus_RejectCreatesNothing(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	res, err := ctrl.UpdateStatus(ctx, req.ID, db.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, db.StatusRejected, res.Request.Status)
	assert.Nil(t, res.Chat)
	assert.Zero(t, countChats(t, gdb))
}

func TestUpdateStatus_AlreadyAcceptedLeavesChatUntouched(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	first, err := ctrl.UpdateStatus(ctx, req.ID, db.StatusAccepted)
	require.NoError(t, err)

	_, err = ctrl.UpdateStatus(ctx, req.ID, db.StatusRejected)
	var te *svcErr.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "accepted", te.From)

	var stored db.ConnectionRequest
	require.NoError(t, gdb.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, db.StatusAccepted, stored.Status)

	var chats []db.Chat
	require.NoError(t, gdb.Find(&chats).Error)
	require.Len(t, chats, 1)
	assert.Equal(t, first.Chat.ID, chats[0].ID)
}

func TestUpdateStatus_Errors(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	_, err := ctrl.UpdateStatus(ctx, "missing", db.StatusAccepted)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = ctrl.UpdateStatus(ctx, req.ID, db.StatusPending)
	var ve *svcErr.ValidationError
	assert.ErrorAs(t, err, &ve)

	var stored db.ConnectionRequest
	require.NoError(t, gdb.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, db.StatusPending, stored.Status)
}

func TestUpdateStatus_AtMostOnceUnderRace(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	targets := []db.RequestStatus{db.StatusAccepted, db.StatusRejected, db.StatusAccepted, db.StatusRejected}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to db.RequestStatus) {
			defer wg.Done()
			_, errs[i] = ctrl.UpdateStatus(ctx, req.ID, to)
		}(i, to)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var te *svcErr.InvalidTransitionError
		assert.True(t, errors.As(err, &te), "loser must see an invalid transition, got %v", err)
	}
	assert.Equal(t, 1, wins)

	var stored db.ConnectionRequest
	require.NoError(t, gdb.First(&stored, "id = ?", req.ID).Error)
	if stored.Status == db.StatusAccepted {
		assert.Equal(t, int64(1), countChats(t, gdb))
	} else {
		assert.Zero(t, countChats(t, gdb))
	}
}

func TestUpdateStatus_BothDirectionsShareOneChat(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	ab := pendingRequest(t, gdb, "a", "b")
	ba := pendingRequest(t, gdb, "b", "a")

	r1, err := ctrl.UpdateStatus(ctx, ab.ID, db.StatusAccepted)
	require.NoError(t, err)
	r2, err := ctrl.UpdateStatus(ctx, ba.ID, db.StatusAccepted)
	require.NoError(t, err)

	assert.Equal(t, r1.Chat.ID, r2.Chat.ID)
	assert.Equal(t, int64(1), countChats(t, gdb))
}

func TestRespond_OnlyReceiver(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	_, err := ctrl.Respond(ctx, "a", req.ID, db.StatusAccepted)
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	res, err := ctrl.Respond(ctx, "b", req.ID, db.StatusAccepted)
	require.NoError(t, err)
	assert.NotNil(t, res.Chat)
}

// TestUpdateStatus_StoreFailureRollsBack makes the chat insert fail inside the
// transaction: the request must stay pending and no chat may exist.
func TestUpdateStatus_StoreFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	ctrl := lifecycle.NewController(gdb)
	req := pendingRequest(t, gdb, "a", "b")

	require.NoError(t, gdb.Exec(`CREATE TRIGGER chats_down BEFORE INSERT ON chats
		BEGIN SELECT RAISE(ABORT, 'chat store unavailable'); END`).Error)

	res, err := ctrl.UpdateStatus(ctx, req.ID, db.StatusAccepted)
	assert.Nil(t, res)
	var se *svcErr.StoreError
	require.ErrorAs(t, err, &se)

	var after db.ConnectionRequest
	require.NoError(t, gdb.First(&after, "id = ?", req.ID).Error)
	assert.Equal(t, db.StatusPending, after.Status)
	assert.Nil(t, after.RespondedAt)
	assert.Zero(t, countChats(t, gdb))

	// once the store recovers the same request can still be accepted
	require.NoError(t, gdb.Exec(`DROP TRIGGER chats_down`).Error)
	res, err = ctrl.UpdateStatus(ctx, req.ID, db.StatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, res.Chat)
	assert.EqualValues(t, 1, countChats(t, gdb))
}
