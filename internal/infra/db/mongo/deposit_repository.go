package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

type DepositRepository struct {
	col *mongo.Collection
}

func NewDepositRepository(db *mongo.Database) *DepositRepository {
	return &DepositRepository{col: db.Collection("agg_deposit")}
}

func (r *DepositRepository) ByRental(ctx context.Context, id domainrental.RentalID) (*domainpayment.Deposit, error) {
	var doc depositDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrDepositNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *DepositRepository) Save(ctx context.Context, d *domainpayment.Deposit) error {
	doc := newDepositDocument(d)
	filter := bson.M{"_id": doc.ID, "version": d.Version}
	doc.Version = d.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	d.Version = doc.Version
	return nil
}

type depositDocument struct {
	ID              string `bson:"_id"`
	Status          string `bson:"status"`
	HeldCents       int64  `bson:"held_cents"`
	ChargedCents    int64  `bson:"charged_cents"`
	Currency        string `bson:"currency"`
	ProviderHoldRef string `bson:"provider_hold_ref,omitempty"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newDepositDocument(d *domainpayment.Deposit) depositDocument {
	return depositDocument{
		ID:              string(d.RentalID),
		Status:          string(d.Status),
		HeldCents:       d.HeldAmount.Amount,
		ChargedCents:    d.ChargedAmount.Amount,
		Currency:        d.HeldAmount.Currency,
		ProviderHoldRef: d.ProviderHoldRef,
		UpdatedAt:       d.UpdatedAt.UnixMilli(),
		Version:         d.Version,
	}
}

func (d depositDocument) toAggregate() *domainpayment.Deposit {
	return &domainpayment.Deposit{
		RentalID:        domainrental.RentalID(d.ID),
		Status:          domainpayment.DepositStatus(d.Status),
		HeldAmount:      money.Money{Amount: d.HeldCents, Currency: d.Currency},
		ChargedAmount:   money.Money{Amount: d.ChargedCents, Currency: d.Currency},
		ProviderHoldRef: d.ProviderHoldRef,
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}
