package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/infra/storage/memory"

	domainrental "gearshare/internal/domain/rental"
)

type fakeNotifier struct {
	calls []notifierCall
}

type notifierCall struct {
	userID  string
	kind    string
	payload map[string]string
}

func (n *fakeNotifier) Notify(ctx context.Context, userID string, kind string, payload map[string]string) error {
	n.calls = append(n.calls, notifierCall{userID: userID, kind: kind, payload: payload})
	return nil
}

func TestDecideApprove(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	notifier := &fakeNotifier{}
	h := &DecideRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Notifier: notifier}

	res, err := h.Handle(ctx, DecideRentalCommand{RentalID: "rent-1", OwnerID: "owner-1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StateApproved), res.State)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "renter-1", notifier.calls[0].userID)
	assert.Equal(t, "rental.approved", notifier.calls[0].kind)
}

func TestDecideReject(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	notifier := &fakeNotifier{}
	h := &DecideRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Notifier: notifier}

	res, err := h.Handle(ctx, DecideRentalCommand{RentalID: "rent-1", OwnerID: "owner-1", Reason: "tool is in the shop"})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StateRejected), res.State)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "rental.rejected", notifier.calls[0].kind)
	assert.Equal(t, "tool is in the shop", notifier.calls[0].payload["reason"])

	// A rejected interval frees the dates for the next renter.
	requestRental(t, factory, "rent-2", 1, 3)
}

func TestDecideRejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	notifier := &fakeNotifier{}
	h := &DecideRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Notifier: notifier}

	_, err := h.Handle(ctx, DecideRentalCommand{RentalID: "rent-1", OwnerID: "renter-1", Approve: true})
	assert.ErrorIs(t, err, domainrental.ErrNotParticipant)
	assert.Empty(t, notifier.calls)
}

func TestDecideOnSettledRental(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	h := &DecideRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(ctx, DecideRentalCommand{RentalID: "rent-1", OwnerID: "owner-1", Approve: true})
	require.NoError(t, err)

	_, err = h.Handle(ctx, DecideRentalCommand{RentalID: "rent-1", OwnerID: "owner-1"})
	assert.ErrorIs(t, err, domainrental.ErrInvalidState)
}
