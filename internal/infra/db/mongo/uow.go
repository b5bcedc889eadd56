package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/app/inbox"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ItemsRepo    domainitem.Repository
	WindowsRepo  domainavailability.WindowRepository
	RentalsRepo  domainrental.Repository
	PaymentsRepo domainpayment.Repository
	DepositsRepo domainpayment.DepositRepository
	Inbox        inbox.Log
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		items:    f.ItemsRepo,
		windows:  f.WindowsRepo,
		rentals:  f.RentalsRepo,
		payments: f.PaymentsRepo,
		deposits: f.DepositsRepo,
		inbox:    f.Inbox,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	items    domainitem.Repository
	windows  domainavailability.WindowRepository
	rentals  domainrental.Repository
	payments domainpayment.Repository
	deposits domainpayment.DepositRepository
	inbox    inbox.Log
}

func (u *Unit) Items() domainitem.Repository {
	return u.items
}

func (u *Unit) Windows() domainavailability.WindowRepository {
	return u.windows
}

func (u *Unit) Rentals() domainrental.Repository {
	return u.rentals
}

func (u *Unit) Payments() domainpayment.Repository {
	return u.payments
}

func (u *Unit) Deposits() domainpayment.DepositRepository {
	return u.deposits
}

func (u *Unit) Notifications() inbox.Log {
	return u.inbox
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
