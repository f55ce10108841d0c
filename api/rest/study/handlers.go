package study

import (
	"errors"
	"io"
	"net/http"

	"codeberg.org/studyai/server/internal/auth"
	apierrors "codeberg.org/studyai/server/internal/errors"
	"codeberg.org/studyai/server/internal/gateway"
	"codeberg.org/studyai/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Handler godoc
// @Summary Run a study request
// @Description Checks the caller's daily allowance, forwards the request to the completion service and charges one use on success.
// @Description Quiz mode answers with JSON; every other mode relays the upstream event stream verbatim.
// @Tags study
// @Accept json
// @Produce json
// @Produce text/event-stream
// @Param request body gateway.Request true "study request"
// @Success 200 {object} QuizResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 402 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/study [post]
// @Security BearerAuth
func Handler(gw *gateway.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		ctx := c.Request.Context()

		// a body that does not decode is treated as missing fields,
		// which the gateway reports only after the quota check
		var req gateway.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.FromContext(ctx).Debug("study request body did not decode", "error", err)
			req = gateway.Request{}
		}

		result, err := gw.Handle(ctx, userID, req)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		if result.Quiz != nil {
			c.JSON(http.StatusOK, QuizResponse{Type: "quiz", Data: result.Quiz})
			return
		}

		relay(c, result.Stream)
	}
}

// copies the upstream event stream to the client, flushing every chunk
func relay(c *gin.Context, body io.ReadCloser) {
	defer body.Close() //nolint:errcheck,gosec // best-effort cleanup

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	log := logger.FromContext(c.Request.Context())
	buf := make([]byte, relayBufferSize)
	relayed := 0

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				log.Debug("client went away during relay", "bytes", relayed, "error", werr)
				return
			}

			c.Writer.Flush()
			relayed += n
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				// the charge is already recorded; the client sees a truncated stream
				log.Warn("upstream stream ended early", "bytes", relayed, "error", err)
			}
			return
		}
	}
}
