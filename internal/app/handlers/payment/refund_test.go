package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"

	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/domain/shared/money"
)

func TestRefundPartialThenBounded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	settle(t, f)

	provider := &fakeProvider{}
	h := &RefundPaymentHandler{UoWFactory: f.factory, Provider: provider, Outbox: memory.NewOutbox()}

	res, err := h.Handle(ctx, RefundPaymentCommand{PaymentID: "pay-1", Amount: 12000, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), res.RefundedCents)
	require.Len(t, provider.refunds, 1)
	assert.Equal(t, money.Must(12000, "EUR"), provider.refunds[0])

	res, err = h.Handle(ctx, RefundPaymentCommand{PaymentID: "pay-1", Amount: 8000, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), res.RefundedCents)

	_, err = h.Handle(ctx, RefundPaymentCommand{PaymentID: "pay-1", Amount: 1, Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrRefundExceedsPaid)
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t, 0)
	h := &RefundPaymentHandler{UoWFactory: f.factory, Provider: &fakeProvider{}, Outbox: memory.NewOutbox()}

	_, err := h.Handle(context.Background(), RefundPaymentCommand{PaymentID: "pay-1", Amount: 100, Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrNotCompleted)
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, 0)
	h := &RefundPaymentHandler{UoWFactory: f.factory, Outbox: memory.NewOutbox()}

	_, err := h.Handle(context.Background(), RefundPaymentCommand{PaymentID: "pay-1", Amount: 0, Currency: "EUR"})
	require.Error(t, err)
}
