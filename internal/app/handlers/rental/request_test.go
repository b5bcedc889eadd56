package rental

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/policies"
	"gearshare/internal/infra/storage/memory"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var baseNow = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

func seedItem(t *testing.T, factory *memory.Factory, depositCents int64) *domainitem.Item {
	t.Helper()
	it, err := domainitem.New(domainitem.CreateParams{
		ID:    "item-1",
		Owner: "owner-1",
		Title: "Camera kit",
		Rates: domainitem.RateTable{
			DailyCents: 10000,
			Currency:   "EUR",
		},
		DepositCents: depositCents,
		Now:          baseNow,
	})
	require.NoError(t, err)
	require.NoError(t, factory.Items().Save(context.Background(), it))
	return it
}

func requestRental(t *testing.T, factory *memory.Factory, id string, startDay, endDay int) *RequestRentalResult {
	t.Helper()
	h := &RequestRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	res, err := h.Handle(context.Background(), RequestRentalCommand{
		CommandID:  id,
		ItemID:     "item-1",
		RenterID:   "renter-1",
		Start:      baseNow.AddDate(0, 0, startDay),
		End:        baseNow.AddDate(0, 0, endDay),
		RentalType: string(domainitem.RentDaily),
	})
	require.NoError(t, err)
	return res
}

type refundCall struct {
	intentID string
	amount   money.Money
}

type fakeProvider struct {
	holds     []money.Money
	refunds   []refundCall
	transfers []money.Money
	cancelled []string
	refundErr error
	createErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{}
}

func (p *fakeProvider) CreateIntent(ctx context.Context, amount money.Money, metadata map[string]string) (policies.PaymentIntent, error) {
	if p.createErr != nil {
		return policies.PaymentIntent{}, p.createErr
	}
	p.holds = append(p.holds, amount)
	return policies.PaymentIntent{ID: fmt.Sprintf("pi_fake_%d", len(p.holds)), ClientSecret: "cs_test"}, nil
}

func (p *fakeProvider) CaptureIntent(ctx context.Context, intentID string, amount money.Money) error {
	return nil
}

func (p *fakeProvider) CancelIntent(ctx context.Context, intentID string) error {
	p.cancelled = append(p.cancelled, intentID)
	return nil
}

func (p *fakeProvider) RefundIntent(ctx context.Context, intentID string, amount money.Money) error {
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunds = append(p.refunds, refundCall{intentID: intentID, amount: amount})
	return nil
}

func (p *fakeProvider) CreateTransfer(ctx context.Context, amount money.Money, destinationAccount string, metadata map[string]string) (string, error) {
	p.transfers = append(p.transfers, amount)
	return "tr_fake", nil
}

func TestRequestRentalCreatesPending(t *testing.T) {
	factory := memory.NewFactory()
	seedItem(t, factory, 0)

	res := requestRental(t, factory, "rent-1", 1, 3)
	assert.Equal(t, "rent-1", res.RentalID)
	assert.Equal(t, int64(20000), res.TotalCents)
	assert.Equal(t, "EUR", res.Currency)

	r, err := factory.Rentals().ByID(context.Background(), "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainrental.StatePending, r.State)
	assert.Equal(t, domainitem.OwnerID("owner-1"), r.OwnerID)
}

func TestRequestRentalRejectsOverlap(t *testing.T) {
	factory := memory.NewFactory()
	seedItem(t, factory, 0)
	requestRental(t, factory, "rent-1", 1, 3)

	h := &RequestRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(context.Background(), RequestRentalCommand{
		CommandID:  "rent-2",
		ItemID:     "item-1",
		RenterID:   "renter-2",
		Start:      baseNow.AddDate(0, 0, 2),
		End:        baseNow.AddDate(0, 0, 4),
		RentalType: string(domainitem.RentDaily),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainavailability.ErrOverlappingRange)

	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"rent-1"}, conflict.RentalIDs)

	_, err = factory.Rentals().ByID(context.Background(), "rent-2")
	assert.ErrorIs(t, err, domainrental.ErrRentalNotFound)
}

func TestRequestRentalBackToBackRangesFit(t *testing.T) {
	factory := memory.NewFactory()
	seedItem(t, factory, 0)

	requestRental(t, factory, "rent-1", 1, 3)
	// [3,5) starts exactly where [1,3) ends.
	requestRental(t, factory, "rent-2", 3, 5)
}

func TestRequestRentalConcurrentOverlapAdmitsOne(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		factory := memory.NewFactory()
		seedItem(t, factory, 0)
		h := &RequestRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}

		const contenders = 8
		start := make(chan struct{})
		errs := make(chan error, contenders)
		for i := 0; i < contenders; i++ {
			go func(n int) {
				<-start
				_, err := h.Handle(context.Background(), RequestRentalCommand{
					CommandID:  fmt.Sprintf("rent-%d", n),
					ItemID:     "item-1",
					RenterID:   fmt.Sprintf("renter-%d", n),
					Start:      baseNow.AddDate(0, 0, 1),
					End:        baseNow.AddDate(0, 0, 3),
					RentalType: string(domainitem.RentDaily),
				})
				errs <- err
			}(i)
		}
		close(start)

		admitted := 0
		for i := 0; i < contenders; i++ {
			if err := <-errs; err == nil {
				admitted++
			} else {
				assert.ErrorIs(t, err, domainavailability.ErrOverlappingRange)
			}
		}
		require.Equalf(t, 1, admitted, "trial %d admitted %d bookings", trial, admitted)

		dr, err := daterange.New(baseNow.AddDate(0, 0, 1), baseNow.AddDate(0, 0, 3))
		require.NoError(t, err)
		active, err := factory.Rentals().ActiveOverlapping(context.Background(), "item-1", dr)
		require.NoError(t, err)
		require.Len(t, active, 1)
	}
}

func TestRequestRentalRejectsOwnerWindow(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedItem(t, factory, 0)

	dr, err := daterange.New(baseNow.AddDate(0, 0, 2), baseNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.NoError(t, factory.Windows().Add(ctx, domainavailability.Window{
		ID:        "win-1",
		ItemID:    "item-1",
		Range:     dr,
		CreatedAt: baseNow,
	}))

	h := &RequestRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err = h.Handle(ctx, RequestRentalCommand{
		CommandID:  "rent-1",
		ItemID:     "item-1",
		RenterID:   "renter-1",
		Start:      baseNow.AddDate(0, 0, 3),
		End:        baseNow.AddDate(0, 0, 5),
		RentalType: string(domainitem.RentDaily),
	})
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"win-1"}, conflict.WindowIDs)
}

func TestRequestRentalUnknownItem(t *testing.T) {
	factory := memory.NewFactory()
	h := &RequestRentalHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(context.Background(), RequestRentalCommand{
		CommandID:  "rent-1",
		ItemID:     "item-missing",
		RenterID:   "renter-1",
		Start:      baseNow.AddDate(0, 0, 1),
		End:        baseNow.AddDate(0, 0, 2),
		RentalType: string(domainitem.RentDaily),
	})
	assert.ErrorIs(t, err, domainitem.ErrItemNotFound)
}
