package item

import (
	"context"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
)

const (
	createItemKey    = "item.create"
	setItemActiveKey = "item.set_active"
)

type CreateItemCommand struct {
	ItemID       string
	OwnerID      string
	Title        string
	Description  string
	Category     string
	HourlyCents  int64
	DailyCents   int64
	WeeklyCents  int64
	Currency     string
	DepositCents int64
}

func (c CreateItemCommand) Key() string { return createItemKey }

type CreateItemResult struct {
	ItemID string `json:"item_id"`
}

// CreateItemHandler registers a rentable item with its rate table and deposit.
type CreateItemHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*CreateItemResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	it, err := domainitem.New(domainitem.CreateParams{
		ID:          domainitem.ItemID(cmd.ItemID),
		Owner:       domainitem.OwnerID(cmd.OwnerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		Rates: domainitem.RateTable{
			HourlyCents: cmd.HourlyCents,
			DailyCents:  cmd.DailyCents,
			WeeklyCents: cmd.WeeklyCents,
			Currency:    cmd.Currency,
		},
		DepositCents: cmd.DepositCents,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, it); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &CreateItemResult{ItemID: string(it.ID)}, nil
}

var _ commands.Handler[CreateItemCommand, *CreateItemResult] = (*CreateItemHandler)(nil)

type SetItemActiveCommand struct {
	ItemID  string
	OwnerID string
	Active  bool
}

func (c SetItemActiveCommand) Key() string { return setItemActiveKey }

type SetItemActiveResult struct {
	Active bool `json:"active"`
}

// SetItemActiveHandler toggles whether new rentals may be requested. Existing
// rentals are unaffected.
type SetItemActiveHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetItemActiveHandler) Handle(ctx context.Context, cmd SetItemActiveCommand) (*SetItemActiveResult, error) {
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
	it.Active = cmd.Active
	it.UpdatedAt = time.Now().UTC()
	if err := unit.Items().Save(ctx, it); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &SetItemActiveResult{Active: it.Active}, nil
}

var _ commands.Handler[SetItemActiveCommand, *SetItemActiveResult] = (*SetItemActiveHandler)(nil)
