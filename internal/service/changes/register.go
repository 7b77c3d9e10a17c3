package changes

import (
	"google.golang.org/grpc"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
)

// Registrar ties the Change service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterChangeServer(s, NewChangeService(r.appCtx))
}
