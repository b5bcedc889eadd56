package rental

import (
	"context"
	"errors"
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

const cancelRentalKey = "rental.cancel"

type CancelRentalCommand struct {
	RentalID string
	ActorID  string
	Reason   string
}

func (c CancelRentalCommand) Key() string { return cancelRentalKey }

type CancelRentalResult struct {
	State         string `json:"state"`
	RefundedCents int64  `json:"refunded_cents"`
}

// CancelRentalHandler withdraws a Pending or Approved rental. When a completed
// capture exists the rental portion is refunded and a merely-held deposit is
// released before the cancellation settles; an already-charged deposit stays
// charged. The provider call happens before local state is mutated so a
// provider failure leaves the rental untouched.
type CancelRentalHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelRentalHandler) Handle(ctx context.Context, cmd CancelRentalCommand) (*CancelRentalResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	r, err := unit.Rentals().ByID(ctx, domainrental.RentalID(cmd.RentalID))
	if err != nil {
		return nil, err
	}

	p, err := unit.Payments().LatestByRental(ctx, r.ID)
	if err != nil && !errors.Is(err, domainpayment.ErrPaymentNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	var refunded money.Money
	if p != nil && p.Status == domainpayment.StatusCompleted {
		outstanding := p.Amount.Amount - p.RefundedCents
		if outstanding > 0 {
			refund := money.Money{Amount: outstanding, Currency: p.Amount.Currency}
			if h.Provider != nil {
				if err := h.Provider.RefundIntent(ctx, p.ProviderIntentID, refund); err != nil {
					return nil, err
				}
			}
			if err := p.Refund(refund, now); err != nil {
				return nil, err
			}
			refunded = refund
		}
	}

	if err := r.Cancel(cmd.ActorID, cmd.Reason, now); err != nil {
		return nil, err
	}

	d, err := unit.Deposits().ByRental(ctx, r.ID)
	if err != nil && !errors.Is(err, domainpayment.ErrDepositNotFound) {
		return nil, err
	}
	if d != nil && d.Status == domainpayment.DepositHeld {
		if h.Provider != nil {
			if err := h.Provider.RefundIntent(ctx, d.ProviderHoldRef, d.HeldAmount); err != nil {
				return nil, err
			}
		}
		if err := d.Release(now); err != nil {
			return nil, err
		}
		if err := unit.Deposits().Save(ctx, d); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &d.EventRecorder); err != nil {
			return nil, err
		}
	}

	if err := unit.Rentals().Save(ctx, r); err != nil {
		return nil, err
	}
	if p != nil {
		if err := unit.Payments().Save(ctx, p); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &p.EventRecorder); err != nil {
			return nil, err
		}
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &CancelRentalResult{State: string(r.State), RefundedCents: refunded.Amount}, nil
}

var _ commands.Handler[CancelRentalCommand, *CancelRentalResult] = (*CancelRentalHandler)(nil)
