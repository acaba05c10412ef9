package discover

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/ecstasy/internal/app"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/middleware"
)

// Registrar ties the discover service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the discover module.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the discover routes.
func (r *Registrar) Register(public, private *gin.RouterGroup) {
	private.GET("/discover", r.handleFeed)
}

func (r *Registrar) handleFeed(c *gin.Context) {
	feed, err := r.svc.CandidateFeed(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": feed})
}
