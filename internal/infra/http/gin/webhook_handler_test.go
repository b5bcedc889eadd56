package ginserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/commands"
	PaymentApp "gearshare/internal/app/handlers/payment"
	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/infra/webhook"
)

func webhookRouter(t *testing.T, handle func(ctx context.Context, cmd PaymentApp.ReconcileCommand) (*PaymentApp.ReconcileResult, error)) (*gin.Engine, webhook.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[PaymentApp.ReconcileCommand, *PaymentApp.ReconcileResult](bus,
		PaymentApp.ReconcileCommand{}.Key(),
		commands.HandlerFunc[PaymentApp.ReconcileCommand, *PaymentApp.ReconcileResult](handle))

	verifier := webhook.Verifier{Secret: []byte("whsec_test"), ReplayWindow: 5 * time.Minute}
	router := gin.New()
	router.POST("/webhooks/payments", WebhookHandler{Commands: bus, Verifier: verifier}.Receive)
	return router, verifier
}

func postSigned(router *gin.Engine, verifier webhook.Verifier, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set("Webhook-Signature", verifier.Sign([]byte(body), time.Now()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDispatchesVerifiedEvent(t *testing.T) {
	var got domainpayment.ProviderEvent
	router, verifier := webhookRouter(t, func(ctx context.Context, cmd PaymentApp.ReconcileCommand) (*PaymentApp.ReconcileResult, error) {
		got = cmd.Event
		return &PaymentApp.ReconcileResult{Applied: true, Outcome: "completed"}, nil
	})

	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
	rec := postSigned(router, verifier, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"completed"`)
	assert.Equal(t, "evt_1", got.ID)
	assert.Equal(t, domainpayment.EventSucceeded, got.Kind)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	dispatched := false
	router, _ := webhookRouter(t, func(ctx context.Context, cmd PaymentApp.ReconcileCommand) (*PaymentApp.ReconcileResult, error) {
		dispatched = true
		return &PaymentApp.ReconcileResult{}, nil
	})

	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set("Webhook-Signature", "t=1700000000,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, dispatched)
}

func TestWebhookRejectsMalformedEvent(t *testing.T) {
	router, verifier := webhookRouter(t, func(ctx context.Context, cmd PaymentApp.ReconcileCommand) (*PaymentApp.ReconcileResult, error) {
		return &PaymentApp.ReconcileResult{}, nil
	})

	rec := postSigned(router, verifier, `{"type":"payment_intent.succeeded"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAnswers5xxSoProviderRedelivers(t *testing.T) {
	router, verifier := webhookRouter(t, func(ctx context.Context, cmd PaymentApp.ReconcileCommand) (*PaymentApp.ReconcileResult, error) {
		return nil, errors.New("payment row not visible yet")
	})

	body := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
	rec := postSigned(router, verifier, body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
