package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainrange "gearshare/internal/domain/shared/daterange"
)

type WindowRepository struct {
	col *mongo.Collection
}

func NewWindowRepository(db *mongo.Database) *WindowRepository {
	return &WindowRepository{col: db.Collection("availability_windows")}
}

func (r *WindowRepository) ByItem(ctx context.Context, id domainitem.ItemID) ([]domainavailability.Window, error) {
	return r.find(ctx, bson.M{"item_id": string(id)})
}

func (r *WindowRepository) OverlappingRange(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]domainavailability.Window, error) {
	filter := bson.M{
		"item_id":     string(id),
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	return r.find(ctx, filter)
}

func (r *WindowRepository) Add(ctx context.Context, w domainavailability.Window) error {
	_, err := r.col.InsertOne(ctx, newWindowDocument(w))
	return err
}

func (r *WindowRepository) Remove(ctx context.Context, id domainitem.ItemID, windowID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": windowID, "item_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainavailability.ErrWindowNotFound
	}
	return nil
}

func (r *WindowRepository) find(ctx context.Context, filter bson.M) ([]domainavailability.Window, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainavailability.Window
	for cur.Next(ctx) {
		var doc windowDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toWindow())
	}
	return out, cur.Err()
}

func (r *WindowRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "range.start", Value: 1}},
	})
	return err
}

type windowDocument struct {
	ID        string        `bson:"_id"`
	ItemID    string        `bson:"item_id"`
	Range     rangeDocument `bson:"range"`
	CreatedAt int64         `bson:"created_at"`
}

func newWindowDocument(w domainavailability.Window) windowDocument {
	return windowDocument{
		ID:        w.ID,
		ItemID:    string(w.ItemID),
		Range:     rangeDocument{Start: w.Range.Start.UnixMilli(), End: w.Range.End.UnixMilli()},
		CreatedAt: w.CreatedAt.UnixMilli(),
	}
}

func (d windowDocument) toWindow() domainavailability.Window {
	return domainavailability.Window{
		ID:        d.ID,
		ItemID:    domainitem.ItemID(d.ItemID),
		Range:     domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
