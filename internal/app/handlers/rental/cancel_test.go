package rental

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"

	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

// seedCompletedPayment stores a settled payment for rent-1 and, when
// depositCents is positive, the held deposit that came with it.
func seedCompletedPayment(t *testing.T, factory *memory.Factory, depositCents int64) {
	t.Helper()
	ctx := context.Background()

	deposit := money.Money{Currency: "EUR"}
	if depositCents > 0 {
		deposit = money.Must(depositCents, "EUR")
	}
	p, err := domainpayment.New(domainpayment.CreateParams{
		ID:               "pay-1",
		RentalID:         "rent-1",
		ProviderIntentID: "pi_1",
		Amount:           money.Must(20000, "EUR"),
		DepositAmount:    deposit,
		Now:              baseNow,
	})
	require.NoError(t, err)
	require.NoError(t, p.MarkCompleted(baseNow))
	p.ClearEvents()
	require.NoError(t, factory.Payments().Save(ctx, p))

	if depositCents > 0 {
		d := domainpayment.NewDeposit("rent-1")
		require.NoError(t, d.Hold(deposit, "pi_1", baseNow))
		d.ClearEvents()
		require.NoError(t, factory.Deposits().Save(ctx, d))
	}
}

func TestCancelPendingWithoutPayment(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	provider := newFakeProvider()
	h := &CancelRentalHandler{UoWFactory: factory, Provider: provider, Outbox: memory.NewOutbox()}

	res, err := h.Handle(ctx, CancelRentalCommand{RentalID: "rent-1", ActorID: "renter-1", Reason: "changed plans"})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StateCancelled), res.State)
	assert.Zero(t, res.RefundedCents)
	assert.Empty(t, provider.refunds)

	// Cancelling frees the interval.
	requestRental(t, factory, "rent-2", 1, 3)
}

func TestCancelRefundsSettledChargeAndReleasesDeposit(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 5000)
	requestRental(t, factory, "rent-1", 1, 3)
	seedCompletedPayment(t, factory, 5000)

	provider := newFakeProvider()
	h := &CancelRentalHandler{UoWFactory: factory, Provider: provider, Outbox: memory.NewOutbox()}

	res, err := h.Handle(ctx, CancelRentalCommand{RentalID: "rent-1", ActorID: "owner-1", Reason: "item damaged"})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), res.RefundedCents)

	// Rental refund and deposit release are two provider calls on the intent.
	require.Len(t, provider.refunds, 2)
	assert.Equal(t, money.Must(20000, "EUR"), provider.refunds[0].amount)
	assert.Equal(t, money.Must(5000, "EUR"), provider.refunds[1].amount)
	assert.Equal(t, "pi_1", provider.refunds[0].intentID)

	p, err := factory.Payments().ByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), p.RefundedCents)

	d, err := factory.Deposits().ByRental(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.DepositReleased, d.Status)
}

func TestCancelProviderFailureLeavesRentalActive(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)
	seedCompletedPayment(t, factory, 0)

	provider := newFakeProvider()
	provider.refundErr = errors.New("provider unavailable")
	h := &CancelRentalHandler{UoWFactory: factory, Provider: provider, Outbox: memory.NewOutbox()}

	_, err := h.Handle(ctx, CancelRentalCommand{RentalID: "rent-1", ActorID: "renter-1"})
	require.Error(t, err)

	r, err := factory.Rentals().ByID(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainrental.StatePending, r.State)
}

func TestCancelRejectsStranger(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	h := &CancelRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(ctx, CancelRentalCommand{RentalID: "rent-1", ActorID: "somebody-else"})
	assert.ErrorIs(t, err, domainrental.ErrNotParticipant)
}
