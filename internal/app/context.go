package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/ecstasy/internal/auth"
	"github.com/oggyb/ecstasy/internal/cache"
)

// AppContext holds shared dependencies (DB, Redis, Logger, JWT, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	JWT        *auth.JWTManager
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, jwt *auth.JWTManager) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		JWT:        jwt,
	}
}
