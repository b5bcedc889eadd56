package availability

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainrange "gearshare/internal/domain/shared/daterange"
)

const addWindowKey = "availability.add_window"

type AddWindowCommand struct {
	WindowID string
	ItemID   string
	OwnerID  string
	Start    time.Time
	End      time.Time
}

func (c AddWindowCommand) Key() string { return addWindowKey }

type AddWindowResult struct {
	WindowID string `json:"window_id"`
}

// AddWindowHandler declares an owner window. The conflict check and the insert
// share one unit of work: a window must not overlap an existing window or an
// active rental.
type AddWindowHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AddWindowHandler) Handle(ctx context.Context, cmd AddWindowCommand) (*AddWindowResult, error) {
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
	if !it.OwnedBy(domainitem.OwnerID(cmd.OwnerID)) {
		return nil, domainitem.ErrNotOwner
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

	// Same serialization as booking requests: the item write turns two
	// concurrent declarations for one item into a storage conflict.
	if err := unit.Items().Save(ctx, it); err != nil {
		return nil, err
	}

	w := domainavailability.Window{
		ID:        cmd.WindowID,
		ItemID:    it.ID,
		Range:     dr,
		CreatedAt: time.Now().UTC(),
	}
	if err := unit.Windows().Add(ctx, w); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &AddWindowResult{WindowID: w.ID}, nil
}

var _ commands.Handler[AddWindowCommand, *AddWindowResult] = (*AddWindowHandler)(nil)
