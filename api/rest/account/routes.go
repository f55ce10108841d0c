package account

import (
	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/gateway"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, gw *gateway.Gateway, verifier auth.Verifier, checkoutURL string) {
	rg.GET("/account", auth.AuthMiddleware(verifier), GetAccount(gw))
	rg.GET("/billing/checkout", auth.AuthMiddleware(verifier), Checkout(checkoutURL))
}
