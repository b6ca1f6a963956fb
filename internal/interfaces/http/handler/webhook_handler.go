package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcrm "github.com/devmatch/backend/internal/application/crm"
	"github.com/devmatch/backend/internal/domain/crm"
)

// WebhookHandler receives inbound opportunity webhooks from the CRM
// provider. Response shapes on this surface are provider-facing and fixed;
// they do not use the dto envelope.
type WebhookHandler struct {
	BaseHandler
	webhooks *appcrm.WebhookService
	log      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *appcrm.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		log:      log.Named("webhook-handler"),
	}
}

// HandleOpportunityUpdate processes one webhook delivery. Processing
// failures return a non-2xx status so the provider retries on its own
// schedule; they never crash the ingestion process.
func (h *WebhookHandler) HandleOpportunityUpdate(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn("Failed to read webhook body",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": "Webhook body too large",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Failed to read webhook body",
		})
		return
	}

	result, err := h.webhooks.Process(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, crm.ErrEmptyWebhookBody) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Webhook body is empty",
			})
			return
		}

		h.log.Error("Webhook processing failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to process webhook",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"event_type":     string(result.EventType),
		"opportunity_id": result.OpportunityID,
		"timestamp":      result.Timestamp.Format(time.RFC3339),
	})
}

// Health reports webhook ingestion liveness. No side effects.
func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RegisterRoutes registers the webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks/provider")
	{
		webhooks.POST("/opportunities-update", h.HandleOpportunityUpdate)
		webhooks.GET("/health", h.Health)
	}
}
