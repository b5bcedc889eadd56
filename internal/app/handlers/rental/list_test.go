package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"
)

func TestListRentalsByRenterAndOwner(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)
	requestRental(t, factory, "rent-2", 5, 7)

	h := &ListRentalsHandler{UoWFactory: factory}

	mine, err := h.Handle(ctx, ListRentalsQuery{ActorID: "renter-1"})
	require.NoError(t, err)
	require.Len(t, mine.Rentals, 2)
	assert.Equal(t, "rent-1", mine.Rentals[0].RentalID)
	assert.Equal(t, "rent-2", mine.Rentals[1].RentalID)
	assert.Equal(t, int64(20000), mine.Rentals[0].TotalCents)

	owned, err := h.Handle(ctx, ListRentalsQuery{ActorID: "owner-1", AsOwner: true})
	require.NoError(t, err)
	assert.Len(t, owned.Rentals, 2)

	none, err := h.Handle(ctx, ListRentalsQuery{ActorID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none.Rentals)
}
