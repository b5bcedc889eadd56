package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	PaymentApp "gearshare/internal/app/handlers/payment"
	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/infra/webhook"
)

const maxWebhookBody = 1 << 20

// WebhookHandler is the ingress for provider payment notifications. The raw
// body is verified against the signature header before any parsing, and a
// processing failure answers 5xx so the provider redelivers.
type WebhookHandler struct {
	Commands commands.Bus
	Verifier webhook.Verifier
	Logger   *slog.Logger
}

func (h WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	now := time.Now().UTC()
	if err := h.Verifier.Verify(c.GetHeader("Webhook-Signature"), body, now); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook signature rejected", "error", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	event, err := domainpayment.ParseProviderEvent(body, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	cmd := PaymentApp.ReconcileCommand{Event: event}
	result, err := commands.Dispatch[PaymentApp.ReconcileCommand, *PaymentApp.ReconcileResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("webhook reconcile failed", "event_id", event.ID, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ WebhookHTTP = WebhookHandler{}
