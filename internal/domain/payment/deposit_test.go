package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/shared/money"
)

var depositNow = time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC)

func heldDeposit(t *testing.T) *Deposit {
	t.Helper()
	d := NewDeposit("rent-1")
	require.NoError(t, d.Hold(money.Must(5000, "EUR"), "hold_abc", depositNow))
	return d
}

func TestDepositHoldOnce(t *testing.T) {
	d := NewDeposit("rent-1")
	require.NoError(t, d.Hold(money.Must(5000, "EUR"), "hold_abc", depositNow))
	assert.Equal(t, DepositHeld, d.Status)
	assert.Equal(t, "hold_abc", d.ProviderHoldRef)

	err := d.Hold(money.Must(5000, "EUR"), "hold_def", depositNow)
	assert.ErrorIs(t, err, ErrDepositAlreadyHeld)
	assert.Equal(t, "hold_abc", d.ProviderHoldRef)
}

func TestDepositPartialCharge(t *testing.T) {
	d := heldDeposit(t)
	require.NoError(t, d.Charge(money.Must(1200, "EUR"), depositNow))
	assert.Equal(t, DepositCharged, d.Status)
	assert.Equal(t, int64(1200), d.ChargedAmount.Amount)

	err := d.Charge(money.Must(100, "EUR"), depositNow)
	assert.ErrorIs(t, err, ErrDepositNotHeld)
}

func TestDepositOvercharge(t *testing.T) {
	d := heldDeposit(t)
	err := d.Charge(money.Must(5001, "EUR"), depositNow)
	assert.ErrorIs(t, err, ErrDepositOvercharge)
	assert.Equal(t, DepositHeld, d.Status)

	err = d.Charge(money.Must(100, "USD"), depositNow)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestDepositReleaseIdempotent(t *testing.T) {
	d := heldDeposit(t)
	require.NoError(t, d.Release(depositNow))
	assert.Equal(t, DepositReleased, d.Status)

	require.NoError(t, d.Release(depositNow.Add(time.Hour)))
	assert.Equal(t, DepositReleased, d.Status)
}

func TestDepositReleaseGuards(t *testing.T) {
	d := NewDeposit("rent-1")
	err := d.Release(depositNow)
	assert.ErrorIs(t, err, ErrDepositNotHeld)

	d = heldDeposit(t)
	require.NoError(t, d.Charge(money.Must(5000, "EUR"), depositNow))
	err = d.Release(depositNow)
	assert.ErrorIs(t, err, ErrDepositNotHeld)
}
