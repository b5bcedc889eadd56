package payment

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

const createHoldKey = "payment.create_hold"

type CreateHoldCommand struct {
	CommandID       string
	RentalID        string
	RenterID        string
	IdempotencyKeyV string
}

func (c CreateHoldCommand) Key() string { return createHoldKey }

func (c CreateHoldCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateHoldCommand) ResultPrototype() any { return &CreateHoldResult{} }

type CreateHoldResult struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
}

// CreateHoldHandler opens a provider-side authorization sized at rental amount
// plus deposit in a single intent; the deposit is separated logically later.
// The provider call runs before any local row exists, so a local failure after
// a provider success is healed by webhook reconciliation, which tolerates an
// intent with no payment row by letting the provider redeliver.
type CreateHoldHandler struct {
	UoWFactory uow.UoWFactory
	Provider   policies.ProviderPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CreateHoldHandler) Handle(ctx context.Context, cmd CreateHoldCommand) (*CreateHoldResult, error) {
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
	if !r.State.Active() {
		return nil, domainrental.ErrInvalidState
	}
	if !r.Total.IsPositive() {
		return nil, domainpayment.ErrInvalidAmount
	}

	it, err := unit.Items().ByID(ctx, r.ItemID)
	if err != nil {
		return nil, err
	}
	deposit := it.Deposit()

	hold := r.Total
	if deposit.Amount > 0 {
		hold, err = hold.Add(deposit)
		if err != nil {
			return nil, err
		}
	}

	intent, err := h.Provider.CreateIntent(ctx, hold, map[string]string{
		"rental_id": string(r.ID),
		"item_id":   string(r.ItemID),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p, err := domainpayment.New(domainpayment.CreateParams{
		ID:               domainpayment.PaymentID(cmd.CommandID),
		RentalID:         r.ID,
		ProviderIntentID: intent.ID,
		Amount:           r.Total,
		DepositAmount:    deposit,
		Now:              now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &p.EventRecorder); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &CreateHoldResult{PaymentID: string(p.ID), ClientSecret: intent.ClientSecret}, nil
}

var _ commands.Handler[CreateHoldCommand, *CreateHoldResult] = (*CreateHoldHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateHoldCommand)(nil)
