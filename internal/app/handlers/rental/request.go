package rental

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
)

const requestRentalKey = "rental.request"

type RequestRentalCommand struct {
	CommandID       string
	ItemID          string
	RenterID        string
	Start           time.Time
	End             time.Time
	RentalType      string
	IdempotencyKeyV string
}

func (c RequestRentalCommand) Key() string { return requestRentalKey }

func (c RequestRentalCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestRentalCommand) ResultPrototype() any { return &RequestRentalResult{} }

type RequestRentalResult struct {
	RentalID   string `json:"rental_id"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

// RequestRentalHandler runs the availability conflict check and the rental
// creation inside one unit of work. The item write above the insert turns
// concurrent requests into storage-level conflicts, and the memory rental
// repository re-checks overlap on insert, so the check-then-act race is
// closed on both backends.
type RequestRentalHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestRentalHandler) Handle(ctx context.Context, cmd RequestRentalCommand) (*RequestRentalResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	it, err := unit.Items().ByID(ctx, domainitem.ItemID(cmd.ItemID))
	if err != nil {
		return nil, err
	}

	resolver := domainavailability.Resolver{
		Windows: unit.Windows(),
		Rentals: rentalSource{repo: unit.Rentals()},
	}
	conflict, err := resolver.CheckConflict(ctx, it.ID, dr)
	if err != nil {
		return nil, err
	}
	if conflict.Conflicts {
		return nil, &domainavailability.ConflictError{
			RentalIDs: conflict.RentalIDs,
			WindowIDs: conflict.WindowIDs,
		}
	}

	// The conflict check alone cannot serialize two inserts. Bumping the item
	// row inside the same transaction forces concurrent requests for one item
	// into a write conflict, so at most one check-then-insert commits.
	if err := unit.Items().Save(ctx, it); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r, err := domainrental.New(domainrental.CreateParams{
		ID:         domainrental.RentalID(cmd.CommandID),
		Item:       it,
		RenterID:   cmd.RenterID,
		Range:      dr,
		RentalType: domainitem.RentalType(cmd.RentalType),
		Now:        now,
	})
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
	return &RequestRentalResult{
		RentalID:   string(r.ID),
		TotalCents: r.Total.Amount,
		Currency:   r.Total.Currency,
	}, nil
}

// rentalSource adapts the rental repository to the resolver's read port.
type rentalSource struct {
	repo domainrental.Repository
}

func (s rentalSource) ActiveOverlapping(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]domainavailability.RentalRef, error) {
	active, err := s.repo.ActiveOverlapping(ctx, id, dr)
	if err != nil {
		return nil, err
	}
	refs := make([]domainavailability.RentalRef, 0, len(active))
	for _, r := range active {
		refs = append(refs, domainavailability.RentalRef{ID: string(r.ID), Range: r.Range})
	}
	return refs, nil
}

var _ commands.Handler[RequestRentalCommand, *RequestRentalResult] = (*RequestRentalHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestRentalCommand)(nil)
