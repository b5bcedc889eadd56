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

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("agg_payment")}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)}, nil)
}

func (r *PaymentRepository) ByProviderIntent(ctx context.Context, intentID string) (*domainpayment.Payment, error) {
	return r.findOne(ctx, bson.M{"provider_intent_id": intentID}, nil)
}

func (r *PaymentRepository) LatestByRental(ctx context.Context, id domainrental.RentalID) (*domainpayment.Payment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findOne(ctx, bson.M{"rental_id": string(id)}, opts)
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

func (r *PaymentRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domainpayment.Payment, error) {
	var doc paymentDocument
	var err error
	if opts != nil {
		err = r.col.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.col.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// EnsureIndexes keeps provider intent lookups unique and rental history sorted.
func (r *PaymentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "provider_intent_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "rental_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

type paymentDocument struct {
	ID               string `bson:"_id"`
	RentalID         string `bson:"rental_id"`
	ProviderIntentID string `bson:"provider_intent_id"`
	AmountCents      int64  `bson:"amount_cents"`
	DepositCents     int64  `bson:"deposit_cents"`
	Currency         string `bson:"currency"`
	Status           string `bson:"status"`
	RetryCount       int    `bson:"retry_count"`
	DeclineCode      string `bson:"decline_code,omitempty"`
	DeclineMessage   string `bson:"decline_message,omitempty"`
	RefundedCents    int64  `bson:"refunded_cents"`
	PaidAt           int64  `bson:"paid_at,omitempty"`
	FailedAt         int64  `bson:"failed_at,omitempty"`
	CreatedAt        int64  `bson:"created_at"`
	UpdatedAt        int64  `bson:"updated_at"`
	Version          int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	doc := paymentDocument{
		ID:               string(p.ID),
		RentalID:         string(p.RentalID),
		ProviderIntentID: p.ProviderIntentID,
		AmountCents:      p.Amount.Amount,
		DepositCents:     p.DepositAmount.Amount,
		Currency:         p.Amount.Currency,
		Status:           string(p.Status),
		RetryCount:       p.RetryCount,
		DeclineCode:      p.DeclineCode,
		DeclineMessage:   p.DeclineMessage,
		RefundedCents:    p.RefundedCents,
		CreatedAt:        p.CreatedAt.UnixMilli(),
		UpdatedAt:        p.UpdatedAt.UnixMilli(),
		Version:          p.Version,
	}
	if !p.PaidAt.IsZero() {
		doc.PaidAt = p.PaidAt.UnixMilli()
	}
	if !p.FailedAt.IsZero() {
		doc.FailedAt = p.FailedAt.UnixMilli()
	}
	return doc
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	p := &domainpayment.Payment{
		ID:               domainpayment.PaymentID(d.ID),
		RentalID:         domainrental.RentalID(d.RentalID),
		ProviderIntentID: d.ProviderIntentID,
		Amount:           money.Money{Amount: d.AmountCents, Currency: d.Currency},
		DepositAmount:    money.Money{Amount: d.DepositCents, Currency: d.Currency},
		Status:           domainpayment.Status(d.Status),
		RetryCount:       d.RetryCount,
		DeclineCode:      d.DeclineCode,
		DeclineMessage:   d.DeclineMessage,
		RefundedCents:    d.RefundedCents,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
	if d.PaidAt != 0 {
		p.PaidAt = timestampToTime(d.PaidAt)
	}
	if d.FailedAt != 0 {
		p.FailedAt = timestampToTime(d.FailedAt)
	}
	return p
}
