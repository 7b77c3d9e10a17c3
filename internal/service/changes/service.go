package changes

import (
	"google.golang.org/grpc"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/notify"
)

// bufferSize bounds events queued for a slow stream. When full, new events
// are dropped: any event still queued already forces the client to reload,
// and that reload sees the dropped change.
const bufferSize = 64

// Service bridges the Redis change notifier to remote subscribers.
type Service struct {
	appCtx *app.AppContext
}

func NewChangeService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.ChangeServer = (*Service)(nil)

// Subscribe streams change events for one table until the client goes away.
//
// Behavior:
//   - The first message is an acknowledgement (an Event with only Table set)
//     sent once the Redis subscription is live.
//   - Every later message is a change event.
func (s *Service) Subscribe(req *api.SubscribeRequest, stream grpc.ServerStreamingServer[notify.Event]) error {
	ctx := stream.Context()
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return svcErr.Map(err)
	}
	log := s.appCtx.Logger.With("user_id", sess.UserID, "table", req.Table)

	events := make(chan notify.Event, bufferSize)
	sub, err := s.appCtx.Store.SubscribeToTable(ctx, req.Table, func(ev notify.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		return svcErr.Map(err)
	}
	defer sub.Cancel()

	if err := stream.Send(&notify.Event{Table: req.Table}); err != nil {
		return err
	}
	log.Debug("change stream opened")

	for {
		select {
		case <-ctx.Done():
			log.Debug("change stream closed")
			return nil
		case ev := <-events:
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}
