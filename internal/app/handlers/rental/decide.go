package rental

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
)

const decideRentalKey = "rental.decide"

type DecideRentalCommand struct {
	RentalID string
	OwnerID  string
	Approve  bool
	Reason   string
}

func (c DecideRentalCommand) Key() string { return decideRentalKey }

type DecideRentalResult struct {
	State string `json:"state"`
}

// DecideRentalHandler records the owner's accept/reject decision on a Pending
// rental. Only the item's owner may decide.
type DecideRentalHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.NotifierPort
}

func (h *DecideRentalHandler) Handle(ctx context.Context, cmd DecideRentalCommand) (*DecideRentalResult, error) {
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

	now := time.Now().UTC()
	if cmd.Approve {
		err = r.Approve(domainitem.OwnerID(cmd.OwnerID), now)
	} else {
		err = r.Reject(domainitem.OwnerID(cmd.OwnerID), cmd.Reason, now)
	}
	if err != nil {
		return nil, err
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

	// Best effort only: the decision already committed.
	if h.Notifier != nil {
		kind := "rental.approved"
		if !cmd.Approve {
			kind = "rental.rejected"
		}
		_ = h.Notifier.Notify(ctx, r.RenterID, kind, map[string]string{
			"rental_id": string(r.ID),
			"reason":    cmd.Reason,
		})
	}
	return &DecideRentalResult{State: string(r.State)}, nil
}

var _ commands.Handler[DecideRentalCommand, *DecideRentalResult] = (*DecideRentalHandler)(nil)
