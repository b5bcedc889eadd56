package uow

import (
	"context"

	"gearshare/internal/app/inbox"
	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Items() domainitem.Repository
	Windows() domainavailability.WindowRepository
	Rentals() domainrental.Repository
	Payments() domainpayment.Repository
	Deposits() domainpayment.DepositRepository
	Notifications() inbox.Log

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
