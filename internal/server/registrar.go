package server

import "github.com/gin-gonic/gin"

// Registrar is the common interface service modules implement to attach their
// routes. Public routes skip authentication; private ones sit behind JWTAuth.
type Registrar interface {
	Register(public, private *gin.RouterGroup)
}
