package study

import (
	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/gateway"
	"github.com/gin-gonic/gin"
)

// registers the study route; extra middleware runs after authentication
func RegisterRoutes(rg *gin.RouterGroup, gw *gateway.Gateway, verifier auth.Verifier, middleware ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{auth.AuthMiddleware(verifier)}, middleware...)
	handlers = append(handlers, Handler(gw))

	rg.POST("/study", handlers...)
}
