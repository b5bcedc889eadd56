package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"

	domainitem "gearshare/internal/domain/item"
)

func createItem(t *testing.T, factory *memory.Factory) {
	t.Helper()
	h := &CreateItemHandler{UoWFactory: factory}
	res, err := h.Handle(context.Background(), CreateItemCommand{
		ItemID:       "item-1",
		OwnerID:      "owner-1",
		Title:        "Circular saw",
		Category:     "tools",
		DailyCents:   3000,
		Currency:     "EUR",
		DepositCents: 10000,
	})
	require.NoError(t, err)
	require.Equal(t, "item-1", res.ItemID)
}

func TestCreateItem(t *testing.T) {
	factory := memory.NewFactory()
	createItem(t, factory)

	it, err := factory.Items().ByID(context.Background(), "item-1")
	require.NoError(t, err)
	assert.True(t, it.Active)
	assert.Equal(t, int64(10000), it.DepositCents)
	assert.Equal(t, int64(3000), it.Rates.DailyCents)
}

func TestCreateItemValidation(t *testing.T) {
	h := &CreateItemHandler{UoWFactory: memory.NewFactory()}

	_, err := h.Handle(context.Background(), CreateItemCommand{
		ItemID: "item-1", OwnerID: "owner-1", Title: "No rates", Currency: "EUR",
	})
	assert.ErrorIs(t, err, domainitem.ErrNoRates)

	_, err = h.Handle(context.Background(), CreateItemCommand{
		ItemID: "item-1", OwnerID: "owner-1", DailyCents: 100, Currency: "EUR",
	})
	assert.ErrorIs(t, err, domainitem.ErrTitleRequired)
}

func TestSetItemActive(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	createItem(t, factory)

	h := &SetItemActiveHandler{UoWFactory: factory}
	res, err := h.Handle(ctx, SetItemActiveCommand{ItemID: "item-1", OwnerID: "owner-1", Active: false})
	require.NoError(t, err)
	assert.False(t, res.Active)

	it, err := factory.Items().ByID(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, it.Active)
}

func TestSetItemActiveOwnerOnly(t *testing.T) {
	factory := memory.NewFactory()
	createItem(t, factory)

	h := &SetItemActiveHandler{UoWFactory: factory}
	_, err := h.Handle(context.Background(), SetItemActiveCommand{ItemID: "item-1", OwnerID: "intruder", Active: false})
	assert.ErrorIs(t, err, domainitem.ErrNotOwner)
}
