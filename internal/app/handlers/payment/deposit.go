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
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

const (
	chargeDepositKey  = "deposit.charge"
	releaseDepositKey = "deposit.release"
)

type ChargeDepositCommand struct {
	RentalID string
	Amount   int64
	Currency string
}

func (c ChargeDepositCommand) Key() string { return chargeDepositKey }

type ChargeDepositResult struct {
	ChargedCents int64 `json:"charged_cents"`
}

// ChargeDepositHandler captures part or all of a held deposit after damage
// assessment, an admin action. The deposit portion was captured with the
// original authorization, so charging only records the retention locally.
type ChargeDepositHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ChargeDepositHandler) Handle(ctx context.Context, cmd ChargeDepositCommand) (*ChargeDepositResult, error) {
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

	d, err := unit.Deposits().ByRental(ctx, domainrental.RentalID(cmd.RentalID))
	if err != nil {
		return nil, err
	}
	if err := d.Charge(amount, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Deposits().Save(ctx, d); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &d.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &ChargeDepositResult{ChargedCents: d.ChargedAmount.Amount}, nil
}

type ReleaseDepositCommand struct {
	RentalID string
}

func (c ReleaseDepositCommand) Key() string { return releaseDepositKey }

type ReleaseDepositResult struct {
	Status string `json:"status"`
}

// ReleaseDepositHandler returns the held deposit to the renter. Release is
// idempotent: both rental completion review and manual admin action may ask
// for it.
type ReleaseDepositHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ReleaseDepositHandler) Handle(ctx context.Context, cmd ReleaseDepositCommand) (*ReleaseDepositResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	d, err := unit.Deposits().ByRental(ctx, domainrental.RentalID(cmd.RentalID))
	if err != nil {
		return nil, err
	}

	alreadyReleased := d.Status == domainpayment.DepositReleased
	if !alreadyReleased && d.Status == domainpayment.DepositHeld && h.Provider != nil {
		if err := h.Provider.RefundIntent(ctx, d.ProviderHoldRef, d.HeldAmount); err != nil {
			return nil, err
		}
	}
	if err := d.Release(time.Now().UTC()); err != nil {
		return nil, err
	}
	if !alreadyReleased {
		if err := unit.Deposits().Save(ctx, d); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &d.EventRecorder); err != nil {
			return nil, err
		}
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &ReleaseDepositResult{Status: string(d.Status)}, nil
}

var _ commands.Handler[ChargeDepositCommand, *ChargeDepositResult] = (*ChargeDepositHandler)(nil)
var _ commands.Handler[ReleaseDepositCommand, *ReleaseDepositResult] = (*ReleaseDepositHandler)(nil)
