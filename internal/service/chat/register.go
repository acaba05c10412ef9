package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/ecstasy/internal/app"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/middleware"
)

// Registrar ties the chat module into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the chat module.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the messaging routes. Clients poll these; there is no
// push channel.
func (r *Registrar) Register(public, private *gin.RouterGroup) {
	private.GET("/conversations", r.handleConversations)
	private.GET("/conversations/:userID/messages", r.handleFetch)
	private.POST("/conversations/:userID/messages", r.handleSend)
	private.GET("/messages/unread/count", r.handleUnreadCount)
}

func (r *Registrar) handleConversations(c *gin.Context) {
	summaries, err := r.svc.Conversations(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// handleFetch returns the conversation and, as a documented side effect,
// marks the caller's inbound unread messages read.
func (r *Registrar) handleFetch(c *gin.Context) {
	counterpartID, ok := pathUserID(c)
	if !ok {
		return
	}
	msgs, err := r.svc.FetchConversation(c.Request.Context(), middleware.CallerID(c), counterpartID)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendRequest struct {
	Content string `json:"content" binding:"required"`
}

func (r *Registrar) handleSend(c *gin.Context) {
	counterpartID, ok := pathUserID(c)
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	msg, err := r.svc.SendMessage(c.Request.Context(), middleware.CallerID(c), counterpartID, req.Content)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (r *Registrar) handleUnreadCount(c *gin.Context) {
	count, err := r.svc.UnreadTotal(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func pathUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userID must be a valid id"})
		return 0, false
	}
	return id, true
}
