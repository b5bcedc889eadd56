package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
)

// ItemRepository is an in-memory implementation for tests and dev mode.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[domainitem.ItemID]domainitem.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domainitem.ItemID]domainitem.Item)}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitem.ItemID) (*domainitem.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domainitem.ErrItemNotFound
	}
	copied := it
	return &copied, nil
}

func (r *ItemRepository) Save(ctx context.Context, it *domainitem.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it.Version++
	r.items[it.ID] = *it
	return nil
}

// RentalRepository keeps rentals in memory and enforces the same optimistic
// versioning contract as the Mongo repository, so concurrency tests exercise
// the real conflict behavior.
type RentalRepository struct {
	mu      sync.RWMutex
	rentals map[domainrental.RentalID]domainrental.Rental
}

func NewRentalRepository() *RentalRepository {
	return &RentalRepository{rentals: make(map[domainrental.RentalID]domainrental.Rental)}
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.rentals[id]
	if !ok {
		return nil, domainrental.ErrRentalNotFound
	}
	copied := stored
	copied.ClearEvents()
	return &copied, nil
}

func (r *RentalRepository) Save(ctx context.Context, rent *domainrental.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.rentals[rent.ID]
	if exists && stored.Version != rent.Version {
		return domainrental.ErrConcurrentUpdate
	}
	if !exists && rent.State.Active() {
		// The caller's conflict check ran outside this lock, so the first
		// write of a new booking re-checks against concurrent inserts.
		var blocking []string
		for _, other := range r.rentals {
			if other.ItemID == rent.ItemID && other.State.Active() && other.Range.Overlaps(rent.Range) {
				blocking = append(blocking, string(other.ID))
			}
		}
		if len(blocking) > 0 {
			sort.Strings(blocking)
			return &domainavailability.ConflictError{RentalIDs: blocking}
		}
	}
	rent.Version++
	copied := *rent
	copied.ClearEvents()
	r.rentals[rent.ID] = copied
	return nil
}

func (r *RentalRepository) ActiveOverlapping(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.Rental
	for _, stored := range r.rentals {
		if stored.ItemID != id || !stored.State.Active() {
			continue
		}
		if stored.Range.Overlaps(dr) {
			copied := stored
			out = append(out, &copied)
		}
	}
	sortRentals(out)
	return out, nil
}

func (r *RentalRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.Rental
	for _, stored := range r.rentals {
		if stored.RenterID == renterID {
			copied := stored
			out = append(out, &copied)
		}
	}
	sortRentals(out)
	return out, nil
}

func (r *RentalRepository) ListByOwner(ctx context.Context, ownerID domainitem.OwnerID) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.Rental
	for _, stored := range r.rentals {
		if stored.OwnerID == ownerID {
			copied := stored
			out = append(out, &copied)
		}
	}
	sortRentals(out)
	return out, nil
}

func (r *RentalRepository) PendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domainrental.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.Rental
	for _, stored := range r.rentals {
		if stored.State == domainrental.StatePending && stored.CreatedAt.Before(cutoff) {
			copied := stored
			out = append(out, &copied)
		}
	}
	sortRentals(out)
	return out, nil
}

func sortRentals(rs []*domainrental.Rental) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}

// WindowRepository stores owner availability windows.
type WindowRepository struct {
	mu      sync.RWMutex
	windows map[domainitem.ItemID][]domainavailability.Window
}

func NewWindowRepository() *WindowRepository {
	return &WindowRepository{windows: make(map[domainitem.ItemID][]domainavailability.Window)}
}

func (r *WindowRepository) ByItem(ctx context.Context, id domainitem.ItemID) ([]domainavailability.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainavailability.Window, len(r.windows[id]))
	copy(out, r.windows[id])
	return out, nil
}

func (r *WindowRepository) OverlappingRange(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]domainavailability.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainavailability.Window
	for _, w := range r.windows[id] {
		if w.Range.Overlaps(dr) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *WindowRepository) Add(ctx context.Context, w domainavailability.Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-checked under the lock; the caller's conflict check ran outside it.
	var blocking []string
	for _, existing := range r.windows[w.ItemID] {
		if existing.Range.Overlaps(w.Range) {
			blocking = append(blocking, existing.ID)
		}
	}
	if len(blocking) > 0 {
		sort.Strings(blocking)
		return &domainavailability.ConflictError{WindowIDs: blocking}
	}
	r.windows[w.ItemID] = append(r.windows[w.ItemID], w)
	return nil
}

func (r *WindowRepository) Remove(ctx context.Context, id domainitem.ItemID, windowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.windows[id]
	for i, w := range list {
		if w.ID == windowID {
			r.windows[id] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return domainavailability.ErrWindowNotFound
}

// PaymentRepository keeps payment attempts with version guarding.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[domainpayment.PaymentID]domainpayment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[domainpayment.PaymentID]domainpayment.Payment)}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.payments[id]
	if !ok {
		return nil, domainpayment.ErrPaymentNotFound
	}
	copied := stored
	copied.ClearEvents()
	return &copied, nil
}

func (r *PaymentRepository) ByProviderIntent(ctx context.Context, intentID string) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.payments {
		if stored.ProviderIntentID == intentID {
			copied := stored
			copied.ClearEvents()
			return &copied, nil
		}
	}
	return nil, domainpayment.ErrPaymentNotFound
}

func (r *PaymentRepository) LatestByRental(ctx context.Context, id domainrental.RentalID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domainpayment.Payment
	for _, stored := range r.payments {
		if stored.RentalID != id {
			continue
		}
		copied := stored
		copied.ClearEvents()
		if latest == nil || copied.CreatedAt.After(latest.CreatedAt) {
			latest = &copied
		}
	}
	if latest == nil {
		return nil, domainpayment.ErrPaymentNotFound
	}
	return latest, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.payments[p.ID]; ok && stored.Version != p.Version {
		return domainpayment.ErrConcurrentUpdate
	}
	p.Version++
	copied := *p
	copied.ClearEvents()
	r.payments[p.ID] = copied
	return nil
}

// DepositRepository keeps per-rental deposit escrow state.
type DepositRepository struct {
	mu       sync.RWMutex
	deposits map[domainrental.RentalID]domainpayment.Deposit
}

func NewDepositRepository() *DepositRepository {
	return &DepositRepository{deposits: make(map[domainrental.RentalID]domainpayment.Deposit)}
}

func (r *DepositRepository) ByRental(ctx context.Context, id domainrental.RentalID) (*domainpayment.Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.deposits[id]
	if !ok {
		return nil, domainpayment.ErrDepositNotFound
	}
	copied := stored
	copied.ClearEvents()
	return &copied, nil
}

func (r *DepositRepository) Save(ctx context.Context, d *domainpayment.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.deposits[d.RentalID]; ok && stored.Version != d.Version {
		return domainpayment.ErrConcurrentUpdate
	}
	d.Version++
	copied := *d
	copied.ClearEvents()
	r.deposits[d.RentalID] = copied
	return nil
}

// NotificationLog records processed provider notification ids.
type NotificationLog struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewNotificationLog() *NotificationLog {
	return &NotificationLog{seen: make(map[string]time.Time)}
}

func (l *NotificationLog) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[eventID]; ok {
		return true, nil
	}
	l.seen[eventID] = time.Now().UTC()
	return false, nil
}

func (l *NotificationLog) forget(eventID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, eventID)
}
