package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler godoc
// @Summary Health check
// @Description Returns the gateway's health status
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func Handler(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status:  "healthy",
		Service: "studyai",
		Version: Version,
	})
}

// PingHandler godoc
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} PingResponse
// @Router /api/v1/ping [get]
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
