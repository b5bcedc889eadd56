package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

const reconcileKey = "payment.reconcile"

type ReconcileCommand struct {
	Event domainpayment.ProviderEvent
}

func (c ReconcileCommand) Key() string { return reconcileKey }

type ReconcileResult struct {
	Applied   bool   `json:"applied"`
	Duplicate bool   `json:"duplicate"`
	Outcome   string `json:"outcome"`

	// notify carries the renter to inform once the transaction commits.
	notify notification
}

type notification struct {
	renterID string
	kind     string
	payload  map[string]string
}

// ReconcileHandler is the single mutation entrypoint for provider
// notifications. The notification log insert and every state transition share
// one unit of work, so a duplicate or concurrent delivery applies at most
// once, and every transition is gated on the status read within the same
// transaction: a delayed "failed" can never downgrade a completed payment, and
// an event for a cancelled rental never resurrects it.
type ReconcileHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.NotifierPort
	Logger     *slog.Logger
}

func (h *ReconcileHandler) Handle(ctx context.Context, cmd ReconcileCommand) (*ReconcileResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ev := cmd.Event
	seen, err := unit.Notifications().Seen(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	if seen {
		h.log().Info("duplicate provider notification ignored", "event_id", ev.ID, "type", ev.RawType)
		return &ReconcileResult{Duplicate: true, Outcome: "duplicate"}, nil
	}

	var result *ReconcileResult
	switch ev.Kind {
	case domainpayment.EventSucceeded:
		result, err = h.applySucceeded(ctx, unit, ev)
	case domainpayment.EventFailed:
		result, err = h.applyFailed(ctx, unit, ev)
	default:
		// Forward compatibility: unknown event types are accepted and ignored.
		h.log().Info("unknown provider event type ignored", "event_id", ev.ID, "type", ev.RawType)
		result = &ReconcileResult{Outcome: "ignored"}
	}
	if err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}

	// Best effort only: the reconciliation already committed.
	if h.Notifier != nil && result.notify.renterID != "" {
		_ = h.Notifier.Notify(ctx, result.notify.renterID, result.notify.kind, result.notify.payload)
	}
	return result, nil
}

func (h *ReconcileHandler) applySucceeded(ctx context.Context, unit uow.UnitOfWork, ev domainpayment.ProviderEvent) (*ReconcileResult, error) {
	p, err := unit.Payments().ByProviderIntent(ctx, ev.IntentID)
	if err != nil {
		// The local payment row may not exist yet when the notification beats
		// createHold's commit. Fail so the provider redelivers; the log insert
		// rolls back with the unit of work.
		return nil, err
	}

	now := time.Now().UTC()
	if err := p.MarkCompleted(now); err != nil {
		if errors.Is(err, domainpayment.ErrInvalidState) {
			h.log().Info("stale success event against settled payment", "event_id", ev.ID, "payment_id", p.ID, "status", p.Status)
			return &ReconcileResult{Outcome: "stale"}, nil
		}
		return nil, err
	}

	r, err := unit.Rentals().ByID(ctx, p.RentalID)
	if err != nil {
		return nil, err
	}
	if err := r.ConfirmPayment(now); err != nil {
		if errors.Is(err, domainrental.ErrInvalidState) {
			// A success for an already-cancelled rental must not resurrect it.
			h.log().Warn("payment succeeded for inactive rental", "event_id", ev.ID, "rental_id", r.ID, "state", r.State)
		} else {
			return nil, err
		}
	} else {
		if err := unit.Rentals().Save(ctx, r); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
			return nil, err
		}
	}

	if p.DepositAmount.IsPositive() {
		if err := h.holdDeposit(ctx, unit, p, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &p.EventRecorder); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: "completed"}, nil
}

func (h *ReconcileHandler) holdDeposit(ctx context.Context, unit uow.UnitOfWork, p *domainpayment.Payment, now time.Time) error {
	d, err := unit.Deposits().ByRental(ctx, p.RentalID)
	if errors.Is(err, domainpayment.ErrDepositNotFound) {
		d = domainpayment.NewDeposit(p.RentalID)
	} else if err != nil {
		return err
	}
	if err := d.Hold(p.DepositAmount, p.ProviderIntentID, now); err != nil {
		if errors.Is(err, domainpayment.ErrDepositAlreadyHeld) {
			return nil
		}
		return err
	}
	if err := unit.Deposits().Save(ctx, d); err != nil {
		return err
	}
	return support.DrainEvents(ctx, h.Outbox, h.Encoder, &d.EventRecorder)
}

func (h *ReconcileHandler) applyFailed(ctx context.Context, unit uow.UnitOfWork, ev domainpayment.ProviderEvent) (*ReconcileResult, error) {
	p, err := unit.Payments().ByProviderIntent(ctx, ev.IntentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := p.MarkFailed(ev.DeclineCode, ev.DeclineMessage, now); err != nil {
		if errors.Is(err, domainpayment.ErrInvalidState) {
			h.log().Info("stale failure event against settled payment", "event_id", ev.ID, "payment_id", p.ID, "status", p.Status)
			return &ReconcileResult{Outcome: "stale"}, nil
		}
		return nil, err
	}

	r, err := unit.Rentals().ByID(ctx, p.RentalID)
	if err != nil {
		return nil, err
	}
	if err := r.MarkPaymentFailed(ev.DeclineMessage, now); err != nil {
		if errors.Is(err, domainrental.ErrInvalidState) {
			h.log().Warn("payment failed for inactive rental", "event_id", ev.ID, "rental_id", r.ID, "state", r.State)
		} else {
			return nil, err
		}
	} else {
		if err := unit.Rentals().Save(ctx, r); err != nil {
			return nil, err
		}
		if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
			return nil, err
		}
	}

	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, &p.EventRecorder); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: "failed", notify: notification{
		renterID: r.RenterID,
		kind:     "payment.failed",
		payload: map[string]string{
			"rental_id":       string(r.ID),
			"decline_code":    ev.DeclineCode,
			"decline_message": ev.DeclineMessage,
		},
	}}, nil
}

func (h *ReconcileHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[ReconcileCommand, *ReconcileResult] = (*ReconcileHandler)(nil)
