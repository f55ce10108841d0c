package account

import (
	"net/http"

	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/errors"
	"codeberg.org/studyai/server/internal/gateway"
	"github.com/gin-gonic/gin"
)

// GetAccount godoc
// @Summary Get the caller's study account
// @Description Returns premium status and today's usage, creating the account on first use
// @Tags account
// @Produce json
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/account [get]
// @Security BearerAuth
func GetAccount(gw *gateway.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		snapshot, err := gw.Snapshot(c.Request.Context(), userID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, snapshot)
	}
}

// Checkout godoc
// @Summary Start a premium upgrade
// @Description Redirects to the external checkout page
// @Tags account
// @Success 303
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/billing/checkout [get]
// @Security BearerAuth
func Checkout(checkoutURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checkoutURL == "" {
			errors.NotFound(c, "checkout")
			return
		}

		c.Redirect(http.StatusSeeOther, checkoutURL)
	}
}
