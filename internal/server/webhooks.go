package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandlePlatformWebhook ingests a vendor push. Ignored and duplicate deliveries
// are acknowledged so the vendor stops retrying them.
func (s *Server) HandlePlatformWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(payload) > maxWebhookBody {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.webhooks.Ingest(c.Request.Context(), c.Param("platform"), c.Param("user_id"), payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Debug("webhook accepted",
		zap.String("platform", c.Param("platform")),
		zap.String("event_type", res.EventType),
		zap.String("outcome", res.Outcome),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"outcome":    res.Outcome,
		"event_type": res.EventType,
	})
}
