package main

import (
	"context"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/auth"
	"github.com/oggyb/ecstasy/internal/cache"
	"github.com/oggyb/ecstasy/internal/config"
	"github.com/oggyb/ecstasy/internal/db"
	"github.com/oggyb/ecstasy/internal/logger"
	"github.com/oggyb/ecstasy/internal/server"
	"github.com/oggyb/ecstasy/internal/service/account"
	"github.com/oggyb/ecstasy/internal/service/chat"
	"github.com/oggyb/ecstasy/internal/service/discover"
	"github.com/oggyb/ecstasy/internal/service/match"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	appCtx := app.New(database, redisCache, log, jwtManager)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		account.NewRegistrar(appCtx),
		discover.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	}

	engine := server.NewEngine(cfg, appCtx, registrars...)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.Start(cfg, engine); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
