package profiles

import (
	"google.golang.org/grpc"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
)

// Registrar ties the User service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterUserServer(s, NewProfileService(r.appCtx))
}
