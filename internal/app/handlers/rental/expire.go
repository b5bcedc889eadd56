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
)

const expireRentalsKey = "rental.expire"

type ExpireRentalsCommand struct {
	// Cutoff marks the creation instant before which a Pending rental with no
	// completed payment is considered abandoned.
	Cutoff time.Time
}

func (c ExpireRentalsCommand) Key() string { return expireRentalsKey }

type ExpireRentalsResult struct {
	Expired int `json:"expired"`
}

// ExpireRentalsHandler cancels stale Pending rentals whose payment hold never
// completed. Every expiry goes through the same state-machine guard, so a
// rental that advanced concurrently is skipped rather than clobbered.
type ExpireRentalsHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ExpireRentalsHandler) Handle(ctx context.Context, cmd ExpireRentalsCommand) (*ExpireRentalsResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	stale, err := unit.Rentals().PendingCreatedBefore(ctx, cmd.Cutoff)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expired := 0
	for _, r := range stale {
		p, err := unit.Payments().LatestByRental(ctx, r.ID)
		if err != nil && !errors.Is(err, domainpayment.ErrPaymentNotFound) {
			return nil, err
		}
		if p != nil && p.Status == domainpayment.StatusCompleted {
			continue
		}
		if err := r.Expire(now); err != nil {
			if errors.Is(err, domainrental.ErrInvalidState) {
				continue
			}
			return nil, err
		}
		if p != nil && p.Status == domainpayment.StatusPending && h.Provider != nil {
			// Best effort: the intent may already be gone provider-side.
			_ = h.Provider.CancelIntent(ctx, p.ProviderIntentID)
		}
		if err := unit.Rentals().Save(ctx, r); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
			return nil, err
		}
		expired++
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &ExpireRentalsResult{Expired: expired}, nil
}

var _ commands.Handler[ExpireRentalsCommand, *ExpireRentalsResult] = (*ExpireRentalsHandler)(nil)
