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
)

const retryPaymentKey = "payment.retry"

type RetryPaymentCommand struct {
	CommandID string
	RentalID  string
	RenterID  string
	// MaxAttempts bounds renter-initiated retries, injected from config.
	MaxAttempts int
}

func (c RetryPaymentCommand) Key() string { return retryPaymentKey }

type RetryPaymentResult struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	Attempt      int    `json:"attempt"`
}

// RetryPaymentHandler opens a fresh hold for a rental parked in PaymentFailed.
// Retries are renter-initiated only and bounded; past the bound the rental
// stays failed permanently.
type RetryPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RetryPaymentHandler) Handle(ctx context.Context, cmd RetryPaymentCommand) (*RetryPaymentResult, error) {
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
	if r.RenterID != cmd.RenterID {
		return nil, domainrental.ErrNotParticipant
	}

	last, err := unit.Payments().LatestByRental(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	// Bound check happens before the provider round-trip so an exhausted
	// renter never opens a dangling intent.
	if last.Status != domainpayment.StatusFailed {
		return nil, domainpayment.ErrInvalidState
	}
	if last.RetryCount+1 >= cmd.MaxAttempts {
		return nil, domainpayment.ErrRetriesExhausted
	}

	now := time.Now().UTC()
	hold := last.HoldTotal()
	intent, err := h.Provider.CreateIntent(ctx, hold, map[string]string{
		"rental_id": string(r.ID),
		"attempt":   "retry",
	})
	if err != nil {
		return nil, err
	}

	next, err := last.NextAttempt(domainpayment.PaymentID(cmd.CommandID), intent.ID, cmd.MaxAttempts, now)
	if err != nil {
		return nil, err
	}
	if err := r.RetryPayment(now); err != nil {
		return nil, err
	}

	if err := unit.Payments().Save(ctx, next); err != nil {
		return nil, err
	}
	if err := unit.Rentals().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &next.EventRecorder, &r.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &RetryPaymentResult{
		PaymentID:    string(next.ID),
		ClientSecret: intent.ClientSecret,
		Attempt:      next.RetryCount,
	}, nil
}

var _ commands.Handler[RetryPaymentCommand, *RetryPaymentResult] = (*RetryPaymentHandler)(nil)
