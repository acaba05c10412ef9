package match

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/ecstasy/internal/app"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/middleware"
)

// How many likers one page of the liked-you list carries.
const likedYouPageSize = 20

// Registrar ties the like/match engine into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the match module.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the like/match routes.
func (r *Registrar) Register(public, private *gin.RouterGroup) {
	private.POST("/likes", r.handleLike)
	private.GET("/likes/received", r.handleLikedYou)
	private.GET("/likes/received/count", r.handleLikedYouCount)
	private.GET("/matches", r.handleMatches)
}

type likeRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
}

func (r *Registrar) handleLike(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_id is required"})
		return
	}

	result, err := r.svc.Like(c.Request.Context(), middleware.CallerID(c), req.TargetID)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"matched":  result.Matched,
		"liked_at": result.Edge.CreatedAt,
	})
}

func (r *Registrar) handleLikedYou(c *gin.Context) {
	var token *string
	if t := c.Query("page_token"); t != "" {
		token = &t
	}

	likers, nextToken, err := r.svc.LikedYou(c.Request.Context(), middleware.CallerID(c), token, likedYouPageSize)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	resp := gin.H{"likers": likers}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Registrar) handleLikedYouCount(c *gin.Context) {
	count, err := r.svc.LikedYouCount(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (r *Registrar) handleMatches(c *gin.Context) {
	matches, err := r.svc.Matches(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
