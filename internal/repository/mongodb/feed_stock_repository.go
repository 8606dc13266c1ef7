package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

// FeedStockRepository persists monthly stock buckets.
type FeedStockRepository struct {
	c collection[models.FeedStock]
}

func NewFeedStockRepository(s *Store) *FeedStockRepository {
	return &FeedStockRepository{c: collection[models.FeedStock]{
		coll: s.db.Collection(CollFeedStock),
		sortable: map[string]string{
			"month":           "month",
			"feedType":        "feedType",
			"currentQuantity": "currentQuantity",
			"expiryDate":      "expiryDate",
			"createdAt":       "createdAt",
			"status":          "status",
		},
		defaultSort: "month",
		dateField:   "createdAt",
	}}
}

// Create inserts a new bucket with version 1.
func (r *FeedStockRepository) Create(ctx context.Context, s *models.FeedStock) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.Version = 1
	return r.c.insert(ctx, s)
}

func (r *FeedStockRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	return r.c.findByID(ctx, id)
}

func (r *FeedStockRepository) FindByTypeAndMonth(ctx context.Context, feedType models.FeedType, month string) (*models.FeedStock, error) {
	return r.c.findOne(ctx, bson.M{"feedType": feedType, "month": month})
}

// Update replaces s when its stored version still equals s.Version and
// bumps the version. A stale version yields ErrVersionConflict.
func (r *FeedStockRepository) Update(ctx context.Context, s *models.FeedStock) error {
	expected := s.Version
	s.Version = expected + 1

	res, err := r.c.coll.ReplaceOne(ctx, bson.M{"_id": s.ID, "version": expected}, s)
	if err != nil {
		s.Version = expected
		return mapWriteError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	s.Version = expected
	n, err := r.c.coll.CountDocuments(ctx, bson.M{"_id": s.ID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *FeedStockRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *FeedStockRepository) List(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error) {
	return r.c.list(ctx, stockFilter(f), q)
}

// ListAll returns every bucket matching f ordered by month then feed type.
func (r *FeedStockRepository) ListAll(ctx context.Context, f models.StockFilter) ([]models.FeedStock, error) {
	return r.c.find(ctx, stockFilter(f), findSorted(bson.D{{Key: "month", Value: 1}, {Key: "feedType", Value: 1}}))
}

func (r *FeedStockRepository) Summary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error) {
	match := matchStage(stockFilter(f))

	byType, err := aggregate[models.StockTypeSummary](ctx, r.c.coll, mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":      "$feedType",
			"quantity": bson.M{"$sum": "$currentQuantity"},
			"value":    bson.M{"$sum": "$totalCost"},
			"buckets":  bson.M{"$sum": 1},
			"lowStock": bson.M{"$sum": bson.M{"$cond": bson.A{"$isLowStock", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("stock summary by type: %w", err)
	}

	byStatus, err := aggregate[models.Bucket](ctx, r.c.coll, mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$currentQuantity"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("stock summary by status: %w", err)
	}

	summary := &models.StockSummary{ByFeedType: byType, ByStatus: byStatus}
	for _, t := range byType {
		summary.TotalRecords += int64(t.Buckets)
		summary.TotalQuantity += t.Quantity
		summary.TotalValue += t.Value
		summary.LowStockCount += int64(t.LowStock)
	}
	summary.TotalQuantity = models.Round(summary.TotalQuantity, 3)
	summary.TotalValue = models.Round(summary.TotalValue, 2)
	return summary, nil
}

func stockFilter(f models.StockFilter) bson.M {
	filter := bson.M{}
	if f.FeedType != "" {
		filter["feedType"] = f.FeedType
	}
	if f.Month != "" {
		filter["month"] = f.Month
	}
	if f.Year != 0 {
		filter["year"] = f.Year
	}
	if len(f.Status) == 1 {
		filter["status"] = f.Status[0]
	} else if len(f.Status) > 1 {
		filter["status"] = bson.M{"$in": f.Status}
	}
	if f.LowStock != nil {
		filter["isLowStock"] = *f.LowStock
	}
	return filter
}
