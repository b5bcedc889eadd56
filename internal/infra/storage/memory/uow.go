package memory

import (
	"context"

	"gearshare/internal/app/inbox"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

// Factory hands out units over a single shared store. Aggregate writes are
// not transactional; version guards on Save surface lost updates, and the
// rental repository re-checks overlap on insert. Notification log inserts
// are tracked per unit and undone on Rollback so a failed reconcile does
// not swallow the provider's redelivery.
type Factory struct {
	items    *ItemRepository
	windows  *WindowRepository
	rentals  *RentalRepository
	payments *PaymentRepository
	deposits *DepositRepository
	inbox    *NotificationLog
}

func NewFactory() *Factory {
	return &Factory{
		items:    NewItemRepository(),
		windows:  NewWindowRepository(),
		rentals:  NewRentalRepository(),
		payments: NewPaymentRepository(),
		deposits: NewDepositRepository(),
		inbox:    NewNotificationLog(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &unit{factory: f}, nil
}

// Items exposes the backing repository for test seeding.
func (f *Factory) Items() *ItemRepository { return f.items }

// Rentals exposes the backing repository for test seeding.
func (f *Factory) Rentals() *RentalRepository { return f.rentals }

// Windows exposes the backing repository for test seeding.
func (f *Factory) Windows() *WindowRepository { return f.windows }

// Payments exposes the backing repository for test seeding.
func (f *Factory) Payments() *PaymentRepository { return f.payments }

// Deposits exposes the backing repository for test seeding.
func (f *Factory) Deposits() *DepositRepository { return f.deposits }

type unit struct {
	factory *Factory
	// eventIDs recorded through this unit, removed again on Rollback.
	eventIDs []string
}

func (u *unit) Items() domainitem.Repository                 { return u.factory.items }
func (u *unit) Windows() domainavailability.WindowRepository { return u.factory.windows }
func (u *unit) Rentals() domainrental.Repository             { return u.factory.rentals }
func (u *unit) Payments() domainpayment.Repository           { return u.factory.payments }
func (u *unit) Deposits() domainpayment.DepositRepository    { return u.factory.deposits }

func (u *unit) Notifications() inbox.Log { return u }

func (u *unit) Seen(ctx context.Context, eventID string) (bool, error) {
	seen, err := u.factory.inbox.Seen(ctx, eventID)
	if err == nil && !seen {
		u.eventIDs = append(u.eventIDs, eventID)
	}
	return seen, err
}

func (u *unit) Commit(ctx context.Context) error {
	u.eventIDs = nil
	return nil
}

func (u *unit) Rollback(ctx context.Context) error {
	for _, id := range u.eventIDs {
		u.factory.inbox.forget(id)
	}
	u.eventIDs = nil
	return nil
}

var _ uow.UoWFactory = (*Factory)(nil)
