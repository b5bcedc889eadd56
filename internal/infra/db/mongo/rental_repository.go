package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type RentalRepository struct {
	col *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{col: db.Collection("agg_rental")}
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	var doc rentalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrRentalNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RentalRepository) Save(ctx context.Context, rent *domainrental.Rental) error {
	doc := newRentalDocument(rent)
	filter := bson.M{"_id": doc.ID, "version": rent.Version}
	doc.Version = rent.Version + 1
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
	rent.Version = doc.Version
	return nil
}

// ActiveOverlapping finds Pending/Approved rentals whose half-open interval
// intersects the given range. Touching endpoints do not intersect.
func (r *RentalRepository) ActiveOverlapping(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]*domainrental.Rental, error) {
	filter := bson.M{
		"item_id":     string(id),
		"state":       bson.M{"$in": []string{string(domainrental.StatePending), string(domainrental.StateApproved)}},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	return r.find(ctx, filter)
}

func (r *RentalRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainrental.Rental, error) {
	return r.find(ctx, bson.M{"renter_id": renterID})
}

func (r *RentalRepository) ListByOwner(ctx context.Context, ownerID domainitem.OwnerID) ([]*domainrental.Rental, error) {
	return r.find(ctx, bson.M{"owner_id": string(ownerID)})
}

func (r *RentalRepository) PendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domainrental.Rental, error) {
	filter := bson.M{
		"state":      string(domainrental.StatePending),
		"created_at": bson.M{"$lt": cutoff.UnixMilli()},
	}
	return r.find(ctx, filter)
}

func (r *RentalRepository) find(ctx context.Context, filter bson.M) ([]*domainrental.Rental, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainrental.Rental
	for cur.Next(ctx) {
		var doc rentalDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

// EnsureIndexes creates the lookup indexes the overlap and sweep queries rely on.
func (r *RentalRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "state", Value: 1}, {Key: "range.start", Value: 1}}},
		{Keys: bson.D{{Key: "renter_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

type rentalDocument struct {
	ID          string        `bson:"_id"`
	ItemID      string        `bson:"item_id"`
	OwnerID     string        `bson:"owner_id"`
	RenterID    string        `bson:"renter_id"`
	Range       rangeDocument `bson:"range"`
	RentalType  string        `bson:"rental_type"`
	TotalCents  int64         `bson:"total_cents"`
	Currency    string        `bson:"currency"`
	State       string        `bson:"state"`
	LastDecline string        `bson:"last_decline,omitempty"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
	Version     int64         `bson:"version"`
}

func newRentalDocument(rent *domainrental.Rental) rentalDocument {
	return rentalDocument{
		ID:          string(rent.ID),
		ItemID:      string(rent.ItemID),
		OwnerID:     string(rent.OwnerID),
		RenterID:    rent.RenterID,
		Range:       rangeDocument{Start: rent.Range.Start.UnixMilli(), End: rent.Range.End.UnixMilli()},
		RentalType:  string(rent.RentalType),
		TotalCents:  rent.Total.Amount,
		Currency:    rent.Total.Currency,
		State:       string(rent.State),
		LastDecline: rent.LastDecline,
		CreatedAt:   rent.CreatedAt.UnixMilli(),
		UpdatedAt:   rent.UpdatedAt.UnixMilli(),
		Version:     rent.Version,
	}
}

func (d rentalDocument) toAggregate() *domainrental.Rental {
	return &domainrental.Rental{
		ID:          domainrental.RentalID(d.ID),
		ItemID:      domainitem.ItemID(d.ItemID),
		OwnerID:     domainitem.OwnerID(d.OwnerID),
		RenterID:    d.RenterID,
		Range:       domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		RentalType:  domainitem.RentalType(d.RentalType),
		Total:       money.Money{Amount: d.TotalCents, Currency: d.Currency},
		State:       domainrental.State(d.State),
		LastDecline: d.LastDecline,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
