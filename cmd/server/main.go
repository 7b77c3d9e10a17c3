package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/cache"
	"github.com/oggyb/approach/internal/config"
	"github.com/oggyb/approach/internal/db"
	"github.com/oggyb/approach/internal/logger"
	"github.com/oggyb/approach/internal/server"
	"github.com/oggyb/approach/internal/service/account"
	"github.com/oggyb/approach/internal/service/changes"
	"github.com/oggyb/approach/internal/service/chats"
	"github.com/oggyb/approach/internal/service/profiles"
	"github.com/oggyb/approach/internal/service/requests"
	"github.com/oggyb/approach/internal/service/threads"
	"github.com/oggyb/approach/internal/storage"
)

func main() {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.Storage.Bucket != "" {
		avatars, err := storage.NewAvatarStore(ctx, cfg)
		if err != nil {
			log.Error("failed to init avatar storage", "err", err)
			os.Exit(1)
		}
		appCtx.Avatars = avatars
	} else {
		log.Warn("no avatar bucket configured, uploads disabled")
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	grpcServer := server.NewGRPCServer(appCtx.Auth, log,
		account.NewRegistrar(appCtx),
		profiles.NewRegistrar(appCtx),
		threads.NewRegistrar(appCtx),
		requests.NewRegistrar(appCtx),
		chats.NewRegistrar(appCtx),
		changes.NewRegistrar(appCtx),
	)
	httpHandler := server.NewHTTPHandler(appCtx, cfg.HTTP.AllowedOrigins)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, grpcServer)
	})
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port)
		return server.StartHTTPServer(gctx, cfg, httpHandler)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
