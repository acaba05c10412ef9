package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/config"
	"github.com/oggyb/ecstasy/internal/middleware"
)

// NewEngine builds the gin engine, wires shared middleware and registers all
// provided service modules under /api.
func NewEngine(cfg *config.Config, appCtx *app.AppContext, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := engine.Group("/api")
	private := engine.Group("/api")
	private.Use(middleware.JWTAuth(appCtx.JWT))

	// register all service modules
	for _, r := range registrars {
		r.Register(public, private)
	}

	return engine
}

// Start boots the HTTP server on the configured address.
func Start(cfg *config.Config, engine *gin.Engine) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return engine.Run(addr)
}
