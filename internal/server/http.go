package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/config"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// NewHTTPHandler serves the plain HTTP surface: the health probe and the
// email confirmation link target.
func NewHTTPHandler(appCtx *app.AppContext, allowedOrigins []string) http.Handler {
	h := &httpHandlers{appCtx: appCtx, log: appCtx.Logger.With("subsystem", "http")}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/confirm", h.confirm).Methods(http.MethodGet).Queries("token", "{token}")
	r.HandleFunc("/auth/confirm", h.confirmMissing).Methods(http.MethodGet)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

// StartHTTPServer serves handler until ctx is done, then shuts down.
func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type httpHandlers struct {
	appCtx *app.AppContext
	log    *slog.Logger
}

// health reports healthy only when both the DB and Redis answer.
func (h *httpHandlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"db": "ok", "redis": "ok"}
	code := http.StatusOK

	if sqlDB, err := h.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["db"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
		checks["redis"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	status := "healthy"
	if code != http.StatusOK {
		status = "degraded"
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (h *httpHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	u, err := h.appCtx.Auth.VerifyEmail(r.Context(), token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"verified": true, "email": u.Email})
	case svcErr.IsAuth(err, svcErr.AuthInvalidToken):
		writeJSON(w, http.StatusBadRequest, map[string]any{"verified": false, "error": "link is invalid or has expired"})
	default:
		h.log.Error("email confirmation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"verified": false, "error": "try again later"})
	}
}

func (h *httpHandlers) confirmMissing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"verified": false, "error": "token is required"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
