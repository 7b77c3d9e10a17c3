package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/cache"
	"github.com/oggyb/approach/internal/config"
	"github.com/oggyb/approach/internal/notify"
	"github.com/oggyb/approach/internal/storage"
	"github.com/oggyb/approach/internal/store"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	Notifier *notify.RedisNotifier
	Store    *store.Store
	Auth     auth.Provider
	// Avatars is nil when no bucket is configured.
	Avatars *storage.AvatarStore
}

// New wires the notifier, store and identity provider on top of the DB and Redis.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	notifier := notify.NewRedisNotifier(rdb.Client, cfg.Notify.ChannelPrefix, logger)
	st := store.New(db, rdb, notifier, logger)

	authSvc := auth.NewService(db, rdb, auth.LogMailer{Log: logger.With("subsystem", "mailer")}, auth.OptionsFromConfig(cfg), logger)
	authSvc.OnSignUp = st.UserCreated

	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Notifier:   notifier,
		Store:      st,
		Auth:       authSvc,
	}
}
