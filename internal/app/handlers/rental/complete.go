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
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

const completeRentalKey = "rental.complete"

type CompleteRentalCommand struct {
	RentalID string
	OwnerID  string
	// FeeRate is the platform's cut for this completion, injected from config
	// so it can vary per item category or promotion.
	FeeRate float64
	// PayoutAccount is the owner's provider-side destination account.
	PayoutAccount string
}

func (c CompleteRentalCommand) Key() string { return completeRentalKey }

type CompleteRentalResult struct {
	PlatformFeeCents int64 `json:"platform_fee_cents"`
	OwnerPayoutCents int64 `json:"owner_payout_cents"`
}

// CompleteRentalHandler closes out an Approved rental once its payment has
// completed, computes the fee split and transfers the owner payout. Deposit
// release stays a separate explicit step: damage assessment is a manual
// admin action.
type CompleteRentalHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CompleteRentalHandler) Handle(ctx context.Context, cmd CompleteRentalCommand) (*CompleteRentalResult, error) {
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
	if r.OwnerID != domainitem.OwnerID(cmd.OwnerID) {
		return nil, domainrental.ErrNotParticipant
	}

	p, err := unit.Payments().LatestByRental(ctx, r.ID)
	if err != nil && !errors.Is(err, domainpayment.ErrPaymentNotFound) {
		return nil, err
	}
	paid := p != nil && p.Status == domainpayment.StatusCompleted

	split, err := domainpayment.ComputeSplit(r.Total, cmd.FeeRate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := r.Complete(paid, split.PlatformFee, split.OwnerPayout, now); err != nil {
		return nil, err
	}

	if h.Provider != nil && cmd.PayoutAccount != "" && split.OwnerPayout.IsPositive() {
		if _, err := h.Provider.CreateTransfer(ctx, split.OwnerPayout, cmd.PayoutAccount, map[string]string{
			"rental_id": string(r.ID),
		}); err != nil {
			return nil, err
		}
	}

	if err := unit.Rentals().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &CompleteRentalResult{
		PlatformFeeCents: split.PlatformFee.Amount,
		OwnerPayoutCents: split.OwnerPayout.Amount,
	}, nil
}

var _ commands.Handler[CompleteRentalCommand, *CompleteRentalResult] = (*CompleteRentalHandler)(nil)
