// Package lifecycle owns the connection request state machine:
// pending -> accepted and pending -> rejected, both terminal. Acceptance
// unlocks a Chat for the pair in the same transaction.
package lifecycle

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/repository"
)

// Transition validates a single status change.
//
// Returns a ValidationError when to is not a terminal status and an
// InvalidTransitionError when from is anything but pending.
func Transition(from, to db.RequestStatus) error {
	if !IsTerminal(to) {
		return svcErr.Invalid("status", "must be accepted or rejected")
	}
	if from != db.StatusPending {
		return &svcErr.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// IsTerminal reports whether s is accepted or rejected.
func IsTerminal(s db.RequestStatus) bool {
	return s == db.StatusAccepted || s == db.StatusRejected
}

// Result is what a successful transition produced. Chat is set only on acceptance.
type Result struct {
	Request *db.ConnectionRequest
	Chat    *db.Chat
}

// Controller applies transitions against the entity store.
type Controller struct {
	db       *gorm.DB
	requests *repository.RequestRepository
	chats    *repository.ChatRepository
	now      func() time.Time
}

func NewController(database *gorm.DB) *Controller {
	return &Controller{
		db:       database,
		requests: repository.NewRequestRepository(database),
		chats:    repository.NewChatRepository(database),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStatus moves request id from pending to `to`.
//
// Behavior:
//   - The status change is a conditional update on status = pending, so of two
//     racing callers exactly one wins and the other gets InvalidTransitionError.
//   - On acceptance the Chat for the pair is created (or the existing one reused)
//     inside the same transaction. Any failure rolls both back.
//   - Unknown id yields ErrNotFound.
func (c *Controller) UpdateStatus(ctx context.Context, id string, to db.RequestStatus) (*Result, error) {
	if !IsTerminal(to) {
		return nil, svcErr.Invalid("status", "must be accepted or rejected")
	}

	var out Result
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := c.requests.WithTx(tx)

		changed, err := requests.ResolvePending(ctx, id, to, c.now())
		if err != nil {
			return err
		}
		if !changed {
			current, err := requests.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if err := Transition(current.Status, to); err != nil {
				return err
			}
			// still pending after a no-op update: the row moved under us
			return &svcErr.InvalidTransitionError{From: string(current.Status), To: string(to)}
		}

		req, err := requests.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out.Request = req

		if to == db.StatusAccepted {
			chat, err := c.chats.WithTx(tx).EnsureForRequest(ctx, req)
			if err != nil {
				return err
			}
			out.Chat = chat
		}
		return nil
	})
	if err != nil {
		return nil, svcErr.Store("update request status", err)
	}
	return &out, nil
}

// Respond is UpdateStatus on behalf of actorID, who must be the receiver.
func (c *Controller) Respond(ctx context.Context, actorID, id string, to db.RequestStatus) (*Result, error) {
	req, err := c.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != actorID {
		return nil, svcErr.ErrPermissionDenied
	}
	return c.UpdateStatus(ctx, id, to)
}
