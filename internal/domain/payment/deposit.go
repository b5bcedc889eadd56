package payment

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrDepositAlreadyHeld = errors.New("deposit: already held")
	ErrDepositNotHeld     = errors.New("deposit: not held")
	ErrDepositOvercharge  = errors.New("deposit: charge exceeds held amount")
	ErrDepositNotFound    = errors.New("deposit: not found")
)

type DepositStatus string

const (
	DepositNone     DepositStatus = "NONE"
	DepositHeld     DepositStatus = "HELD"
	DepositCharged  DepositStatus = "CHARGED"
	DepositReleased DepositStatus = "RELEASED"
)

// Deposit is the escrow sub-state-machine for a rental's security deposit.
// Funds enter Held when the combined authorization captures, then end in
// Charged (damage assessed, possibly partial) or Released.
type Deposit struct {
	RentalID        rental.RentalID
	Status          DepositStatus
	HeldAmount      money.Money
	ChargedAmount   money.Money
	ProviderHoldRef string
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type DepositRepository interface {
	ByRental(ctx context.Context, id rental.RentalID) (*Deposit, error)
	Save(ctx context.Context, d *Deposit) error
}

func NewDeposit(rentalID rental.RentalID) *Deposit {
	return &Deposit{RentalID: rentalID, Status: DepositNone}
}

// Hold escrows the deposit once the combined payment completes.
func (d *Deposit) Hold(amount money.Money, providerRef string, now time.Time) error {
	if d.Status != DepositNone {
		return ErrDepositAlreadyHeld
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	d.Status = DepositHeld
	d.HeldAmount = amount
	d.ProviderHoldRef = providerRef
	d.UpdatedAt = now.UTC()
	d.Record(DepositHeldEvent{RentalID: d.RentalID, Amount: amount, At: d.UpdatedAt})
	return nil
}

// Charge captures part or all of the held deposit after damage assessment.
// A deposit cannot be charged twice.
func (d *Deposit) Charge(amount money.Money, now time.Time) error {
	if d.Status != DepositHeld {
		return ErrDepositNotHeld
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Currency != d.HeldAmount.Currency {
		return money.ErrCurrencyMismatch
	}
	if amount.Amount > d.HeldAmount.Amount {
		return ErrDepositOvercharge
	}
	d.Status = DepositCharged
	d.ChargedAmount = amount
	d.UpdatedAt = now.UTC()
	d.Record(DepositChargedEvent{RentalID: d.RentalID, Amount: amount, At: d.UpdatedAt})
	return nil
}

// Release returns the held funds. Releasing an already-released deposit is a
// no-op success: both rental completion and manual admin review trigger it.
func (d *Deposit) Release(now time.Time) error {
	switch d.Status {
	case DepositReleased:
		return nil
	case DepositHeld:
		d.Status = DepositReleased
		d.UpdatedAt = now.UTC()
		d.Record(DepositReleasedEvent{RentalID: d.RentalID, Amount: d.HeldAmount, At: d.UpdatedAt})
		return nil
	default:
		return ErrDepositNotHeld
	}
}
