package payment

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/domain/shared/money"
)

const refundPaymentKey = "payment.refund"

type RefundPaymentCommand struct {
	PaymentID string
	Amount    int64
	Currency  string
}

func (c RefundPaymentCommand) Key() string { return refundPaymentKey }

type RefundPaymentResult struct {
	RefundedCents int64 `json:"refunded_cents"`
}

// RefundPaymentHandler records a compensating ledger entry against a completed
// payment. It never touches rental state; the cancellation path owns that
// transition.
type RefundPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RefundPaymentHandler) Handle(ctx context.Context, cmd RefundPaymentCommand) (*RefundPaymentResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	amount, err := money.NewPositive(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}

	p, err := unit.Payments().ByID(ctx, domainpayment.PaymentID(cmd.PaymentID))
	if err != nil {
		return nil, err
	}

	if h.Provider != nil {
		if err := h.Provider.RefundIntent(ctx, p.ProviderIntentID, amount); err != nil {
			return nil, err
		}
	}

	if err := p.Refund(amount, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &p.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &RefundPaymentResult{RefundedCents: p.RefundedCents}, nil
}

var _ commands.Handler[RefundPaymentCommand, *RefundPaymentResult] = (*RefundPaymentHandler)(nil)
