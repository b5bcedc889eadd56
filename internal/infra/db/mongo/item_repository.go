package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainitem "gearshare/internal/domain/item"
)

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection("agg_item")}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitem.ItemID) (*domainitem.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainitem.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ItemRepository) Save(ctx context.Context, it *domainitem.Item) error {
	doc := newItemDocument(it)
	filter := bson.M{"_id": doc.ID, "version": it.Version}
	doc.Version = it.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	it.Version = doc.Version
	return nil
}

type itemDocument struct {
	ID           string `bson:"_id"`
	Owner        string `bson:"owner_id"`
	Title        string `bson:"title"`
	Description  string `bson:"description,omitempty"`
	Category     string `bson:"category,omitempty"`
	HourlyCents  int64  `bson:"hourly_cents"`
	DailyCents   int64  `bson:"daily_cents"`
	WeeklyCents  int64  `bson:"weekly_cents"`
	Currency     string `bson:"currency"`
	DepositCents int64  `bson:"deposit_cents"`
	Active       bool   `bson:"active"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
	Version      int64  `bson:"version"`
}

func newItemDocument(it *domainitem.Item) itemDocument {
	return itemDocument{
		ID:           string(it.ID),
		Owner:        string(it.Owner),
		Title:        it.Title,
		Description:  it.Description,
		Category:     it.Category,
		HourlyCents:  it.Rates.HourlyCents,
		DailyCents:   it.Rates.DailyCents,
		WeeklyCents:  it.Rates.WeeklyCents,
		Currency:     it.Rates.Currency,
		DepositCents: it.DepositCents,
		Active:       it.Active,
		CreatedAt:    it.CreatedAt.UnixMilli(),
		UpdatedAt:    it.UpdatedAt.UnixMilli(),
		Version:      it.Version,
	}
}

func (d itemDocument) toAggregate() *domainitem.Item {
	return &domainitem.Item{
		ID:          domainitem.ItemID(d.ID),
		Owner:       domainitem.OwnerID(d.Owner),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Rates: domainitem.RateTable{
			HourlyCents: d.HourlyCents,
			DailyCents:  d.DailyCents,
			WeeklyCents: d.WeeklyCents,
			Currency:    d.Currency,
		},
		DepositCents: d.DepositCents,
		Active:       d.Active,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
