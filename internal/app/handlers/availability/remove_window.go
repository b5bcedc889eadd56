package availability

import (
	"context"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
)

const removeWindowKey = "availability.remove_window"

type RemoveWindowCommand struct {
	ItemID   string
	OwnerID  string
	WindowID string
}

func (c RemoveWindowCommand) Key() string { return removeWindowKey }

type RemoveWindowResult struct {
	Removed bool `json:"removed"`
}

type RemoveWindowHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RemoveWindowHandler) Handle(ctx context.Context, cmd RemoveWindowCommand) (*RemoveWindowResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	it, err := unit.Items().ByID(ctx, domainitem.ItemID(cmd.ItemID))
	if err != nil {
		return nil, err
	}
	if !it.OwnedBy(domainitem.OwnerID(cmd.OwnerID)) {
		return nil, domainitem.ErrNotOwner
	}

	if err := unit.Windows().Remove(ctx, it.ID, cmd.WindowID); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &RemoveWindowResult{Removed: true}, nil
}

var _ commands.Handler[RemoveWindowCommand, *RemoveWindowResult] = (*RemoveWindowHandler)(nil)
