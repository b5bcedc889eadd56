package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	PaymentApp "gearshare/internal/app/handlers/payment"
)

type PaymentHandler struct {
	Commands commands.Bus
	// MaxAttempts bounds renter-initiated payment retries.
	MaxAttempts int
}

func (h PaymentHandler) CreateHold(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := PaymentApp.CreateHoldCommand{
		CommandID:       generateCommandID(),
		RentalID:        c.Param("id"),
		RenterID:        user.ID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[PaymentApp.CreateHoldCommand, *PaymentApp.CreateHoldResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentHandler) Retry(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := PaymentApp.RetryPaymentCommand{
		CommandID:   generateCommandID(),
		RentalID:    c.Param("id"),
		RenterID:    user.ID,
		MaxAttempts: h.MaxAttempts,
	}
	result, err := commands.Dispatch[PaymentApp.RetryPaymentCommand, *PaymentApp.RetryPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type refundRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (h PaymentHandler) Refund(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := PaymentApp.RefundPaymentCommand{
		PaymentID: c.Param("id"),
		Amount:    req.AmountCents,
		Currency:  req.Currency,
	}
	result, err := commands.Dispatch[PaymentApp.RefundPaymentCommand, *PaymentApp.RefundPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type chargeDepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (h PaymentHandler) ChargeDeposit(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	var req chargeDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := PaymentApp.ChargeDepositCommand{
		RentalID: c.Param("id"),
		Amount:   req.AmountCents,
		Currency: req.Currency,
	}
	result, err := commands.Dispatch[PaymentApp.ChargeDepositCommand, *PaymentApp.ChargeDepositResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentHandler) ReleaseDeposit(c *gin.Context) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	cmd := PaymentApp.ReleaseDepositCommand{RentalID: c.Param("id")}
	result, err := commands.Dispatch[PaymentApp.ReleaseDepositCommand, *PaymentApp.ReleaseDepositResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
