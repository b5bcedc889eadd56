package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var repoNow = time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

func storeRental(t *testing.T, repo *RentalRepository, id string, startDay, endDay int, state domainrental.State) {
	t.Helper()
	dr, err := domainrange.New(repoNow.AddDate(0, 0, startDay), repoNow.AddDate(0, 0, endDay))
	require.NoError(t, err)
	r := &domainrental.Rental{
		ID:        domainrental.RentalID(id),
		ItemID:    "item-1",
		OwnerID:   "owner-1",
		RenterID:  "renter-1",
		Range:     dr,
		Total:     money.Must(10000, "EUR"),
		State:     state,
		CreatedAt: repoNow.AddDate(0, 0, startDay),
		UpdatedAt: repoNow,
	}
	require.NoError(t, repo.Save(context.Background(), r))
}

func TestRentalSaveDetectsLostUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewRentalRepository()
	storeRental(t, repo, "rent-1", 1, 3, domainrental.StatePending)

	first, err := repo.ByID(ctx, "rent-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "rent-1")
	require.NoError(t, err)

	require.NoError(t, first.Approve("owner-1", repoNow))
	require.NoError(t, repo.Save(ctx, first))

	// The second copy still carries the old version; its write must lose.
	require.NoError(t, second.Reject("owner-1", "late", repoNow))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, domainrental.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainrental.StateApproved, stored.State)
}

func TestRentalSaveRejectsOverlappingInsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRentalRepository()
	storeRental(t, repo, "rent-1", 1, 3, domainrental.StatePending)

	dr, err := domainrange.New(repoNow.AddDate(0, 0, 2), repoNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	overlapping := &domainrental.Rental{
		ID:        "rent-2",
		ItemID:    "item-1",
		OwnerID:   "owner-1",
		RenterID:  "renter-2",
		Range:     dr,
		Total:     money.Must(10000, "EUR"),
		State:     domainrental.StatePending,
		CreatedAt: repoNow,
		UpdatedAt: repoNow,
	}
	err = repo.Save(ctx, overlapping)
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"rent-1"}, conflict.RentalIDs)
	_, err = repo.ByID(ctx, "rent-2")
	assert.ErrorIs(t, err, domainrental.ErrRentalNotFound)

	// Terminal states do not occupy the interval.
	cancelled := *overlapping
	cancelled.ID = "rent-3"
	cancelled.State = domainrental.StateCancelled
	require.NoError(t, repo.Save(ctx, &cancelled))
}

func TestActiveOverlappingFiltersStateAndRange(t *testing.T) {
	ctx := context.Background()
	repo := NewRentalRepository()
	storeRental(t, repo, "rent-pending", 1, 3, domainrental.StatePending)
	storeRental(t, repo, "rent-approved", 3, 5, domainrental.StateApproved)
	storeRental(t, repo, "rent-cancelled", 1, 5, domainrental.StateCancelled)
	storeRental(t, repo, "rent-elsewhere", 10, 12, domainrental.StateApproved)

	dr, err := domainrange.New(repoNow.AddDate(0, 0, 2), repoNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	active, err := repo.ActiveOverlapping(ctx, "item-1", dr)
	require.NoError(t, err)

	ids := make([]string, 0, len(active))
	for _, r := range active {
		ids = append(ids, string(r.ID))
	}
	assert.Equal(t, []string{"rent-pending", "rent-approved"}, ids)
}

func TestPendingCreatedBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewRentalRepository()
	storeRental(t, repo, "rent-old", 1, 3, domainrental.StatePending)
	storeRental(t, repo, "rent-new", 8, 9, domainrental.StatePending)
	storeRental(t, repo, "rent-approved", 4, 6, domainrental.StateApproved)

	stale, err := repo.PendingCreatedBefore(ctx, repoNow.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, domainrental.RentalID("rent-old"), stale[0].ID)
}

func TestWindowAddRejectsOverlappingInsert(t *testing.T) {
	ctx := context.Background()
	repo := NewWindowRepository()

	first, err := domainrange.New(repoNow.AddDate(0, 0, 1), repoNow.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, domainavailability.Window{ID: "win-1", ItemID: "item-1", Range: first, CreatedAt: repoNow}))

	second, err := domainrange.New(repoNow.AddDate(0, 0, 2), repoNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	err = repo.Add(ctx, domainavailability.Window{ID: "win-2", ItemID: "item-1", Range: second, CreatedAt: repoNow})
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"win-1"}, conflict.WindowIDs)

	// Touching endpoints do not conflict.
	adjacent, err := domainrange.New(repoNow.AddDate(0, 0, 3), repoNow.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, domainavailability.Window{ID: "win-3", ItemID: "item-1", Range: adjacent, CreatedAt: repoNow}))
}

func TestPaymentSaveDetectsLostUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()

	p, err := domainpayment.New(domainpayment.CreateParams{
		ID:               "pay-1",
		RentalID:         "rent-1",
		ProviderIntentID: "pi_1",
		Amount:           money.Must(10000, "EUR"),
		Now:              repoNow,
	})
	require.NoError(t, err)
	p.ClearEvents()
	require.NoError(t, repo.Save(ctx, p))

	first, err := repo.ByProviderIntent(ctx, "pi_1")
	require.NoError(t, err)
	second, err := repo.ByProviderIntent(ctx, "pi_1")
	require.NoError(t, err)

	require.NoError(t, first.MarkCompleted(repoNow))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.MarkFailed("card_declined", "nope", repoNow))
	assert.ErrorIs(t, repo.Save(ctx, second), domainpayment.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusCompleted, stored.Status)
}

func TestLatestByRentalPicksNewestAttempt(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()

	for i, id := range []domainpayment.PaymentID{"pay-1", "pay-2"} {
		p, err := domainpayment.New(domainpayment.CreateParams{
			ID:               id,
			RentalID:         "rent-1",
			ProviderIntentID: "pi_" + string(id),
			Amount:           money.Must(10000, "EUR"),
			Now:              repoNow.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		p.ClearEvents()
		require.NoError(t, repo.Save(ctx, p))
	}

	latest, err := repo.LatestByRental(ctx, "rent-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.PaymentID("pay-2"), latest.ID)
}

func TestNotificationLogSeen(t *testing.T) {
	ctx := context.Background()
	log := NewNotificationLog()

	seen, err := log.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = log.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = log.Seen(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestItemRepositoryRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()

	_, err := repo.ByID(ctx, "item-1")
	assert.ErrorIs(t, err, domainitem.ErrItemNotFound)

	it, err := domainitem.New(domainitem.CreateParams{
		ID:    "item-1",
		Owner: "owner-1",
		Title: "Ladder",
		Rates: domainitem.RateTable{DailyCents: 2000, Currency: "EUR"},
		Now:   repoNow,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, it))

	got, err := repo.ByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Ladder", got.Title)

	// Mutating the returned copy does not touch the stored item.
	got.Title = "Scaffold"
	again, err := repo.ByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Ladder", again.Title)
}
