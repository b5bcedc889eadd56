package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"

	domainpayment "gearshare/internal/domain/payment"
)

// settle drives the fixture through a successful charge so the deposit is held.
func settle(t *testing.T, f *fixture) {
	t.Helper()
	_, err := f.handler.Handle(context.Background(), ReconcileCommand{Event: successEvent("evt_settle", "pi_1")})
	require.NoError(t, err)
}

func TestChargeDepositPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	settle(t, f)

	h := &ChargeDepositHandler{UoWFactory: f.factory, Outbox: memory.NewOutbox()}
	res, err := h.Handle(ctx, ChargeDepositCommand{RentalID: "rent-1", Amount: 1500, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), res.ChargedCents)

	d, err := f.factory.Deposits().ByRental(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.DepositCharged, d.Status)

	// A charged deposit admits no second charge and no release.
	_, err = h.Handle(ctx, ChargeDepositCommand{RentalID: "rent-1", Amount: 100, Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrDepositNotHeld)
}

func TestChargeDepositOverHeldAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	settle(t, f)

	h := &ChargeDepositHandler{UoWFactory: f.factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(ctx, ChargeDepositCommand{RentalID: "rent-1", Amount: 5001, Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrDepositOvercharge)
}

func TestChargeDepositUnknownRental(t *testing.T) {
	f := newFixture(t, 5000)
	h := &ChargeDepositHandler{UoWFactory: f.factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(context.Background(), ChargeDepositCommand{RentalID: "rent-other", Amount: 100, Currency: "EUR"})
	assert.ErrorIs(t, err, domainpayment.ErrDepositNotFound)
}

func TestReleaseDepositRefundsHold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	settle(t, f)

	provider := &fakeProvider{}
	h := &ReleaseDepositHandler{UoWFactory: f.factory, Provider: provider, Outbox: memory.NewOutbox()}

	res, err := h.Handle(ctx, ReleaseDepositCommand{RentalID: "rent-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainpayment.DepositReleased), res.Status)

	require.Len(t, provider.refunds, 1)
	assert.Equal(t, int64(5000), provider.refunds[0].Amount)

	d, err := f.factory.Deposits().ByRental(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.DepositReleased, d.Status)
}

func TestReleaseDepositIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5000)
	settle(t, f)

	provider := &fakeProvider{}
	h := &ReleaseDepositHandler{UoWFactory: f.factory, Provider: provider, Outbox: memory.NewOutbox()}

	_, err := h.Handle(ctx, ReleaseDepositCommand{RentalID: "rent-1"})
	require.NoError(t, err)

	// Second release is a no-op success, with no second provider refund.
	res, err := h.Handle(ctx, ReleaseDepositCommand{RentalID: "rent-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainpayment.DepositReleased), res.Status)
	assert.Len(t, provider.refunds, 1)
}
