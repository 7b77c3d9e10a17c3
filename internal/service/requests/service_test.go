package requests_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/cache"
	"github.com/oggyb/approach/internal/config"
	"github.com/oggyb/approach/internal/db"
	"github.com/oggyb/approach/internal/logger"
	"github.com/oggyb/approach/internal/service/requests"
)

//
// Test helpers
//

// SeedMinimalTestData wipes the DB and inserts a minimal, deterministic dataset
// for repeatable service tests.
//
// Dataset:
//   - Users: user1, user2, user3
//   - Requests:
//   - user2 → user1 = pending
//   - user3 → user1 = rejected (must not count)
func SeedMinimalTestData(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	// Clean slate
	require.NoError(t, gdb.Exec("DELETE FROM connection_requests").Error)
	require.NoError(t, gdb.Exec("DELETE FROM users").Error)

	users := []db.User{
		{ID: "user1", Name: "One", Email: "u1@test.com", PasswordHash: "x"},
		{ID: "user2", Name: "Two", Email: "u2@test.com", PasswordHash: "x"},
		{ID: "user3", Name: "Three", Email: "u3@test.com", PasswordHash: "x"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	reqs := []db.ConnectionRequest{
		{ID: "r1", SenderID: "user2", ReceiverID: "user1", Message: "hello", Status: db.StatusPending},
		{ID: "r2", SenderID: "user3", ReceiverID: "user1", Message: "hey", Status: db.StatusRejected},
	}
	require.NoError(t, gdb.Create(&reqs).Error)
}

// setupService spins up an in-memory SQLite DB, applies migrations,
// seeds test data, starts a miniredis, and wires everything into a
// RequestService instance.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) *requests.Service {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	SeedMinimalTestData(t, dbase)

	// Fake Redis
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	appCtx := app.New(cfg, dbase, redisCache, logger.Discard())
	return requests.NewRequestService(appCtx)
}

// as puts a session for userID on the context, as the auth interceptor would.
func as(userID string) context.Context {
	return auth.WithSession(context.Background(), &auth.Session{UserID: userID})
}

//
// Tests
//

// TestCountPending_Cache checks the badge: only pending requests count, and a
// second call is served from cache with the same answer.
func TestCountPending_Cache(t *testing.T) {
	svc := setupService(t)

	// First call → DB
	resp1, err := svc.CountPending(as("user1"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp1.Count)

	// Second call → cache
	resp2, err := svc.CountPending(as("user1"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp2.Count)
}

// TestListPending returns only pending requests for the caller.
func TestListPending(t *testing.T) {
	svc := setupService(t)

	resp, err := svc.ListPending(as("user1"), &emptypb.Empty{})
	require.NoError(t, err)
	require.Len(t, resp.Requests, 1)
	assert.Equal(t, "r1", resp.Requests[0].ID)

	resp, err = svc.ListPending(as("user2"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Empty(t, resp.Requests)
}

// TestSendAndRespond walks a request from send to accept and checks the
// badge moves with it.
func TestSendAndRespond(t *testing.T) {
	svc := setupService(t)

	sent, err := svc.Send(as("user3"), &api.SendRequestRequest{ReceiverID: "user2", Message: "Trivia night?"})
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, sent.Request.Status)

	count, err := svc.CountPending(as("user2"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	resp, err := svc.Respond(as("user2"), &api.RespondRequest{RequestID: sent.Request.ID, Status: db.StatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, db.StatusAccepted, resp.Request.Status)
	require.NotNil(t, resp.Chat)

	count, err = svc.CountPending(as("user2"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Zero(t, count.Count)

	outgoing, err := svc.ListSent(as("user3"), &emptypb.Empty{})
	require.NoError(t, err)
	require.Len(t, outgoing.Requests, 2)
}

// TestStatusCodes checks the error taxonomy reaches the wire as gRPC codes.
func TestStatusCodes(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Send(context.Background(), &api.SendRequestRequest{ReceiverID: "user1", Message: "hi"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = svc.Send(as("user2"), &api.SendRequestRequest{ReceiverID: "user1", Message: "again"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = svc.Send(as("user2"), &api.SendRequestRequest{ReceiverID: "", Message: "hi"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Respond(as("user2"), &api.RespondRequest{RequestID: "r1", Status: db.StatusAccepted})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = svc.Respond(as("user1"), &api.RespondRequest{RequestID: "r2", Status: db.StatusAccepted})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = svc.Respond(as("user1"), &api.RespondRequest{RequestID: "nope", Status: db.StatusAccepted})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
