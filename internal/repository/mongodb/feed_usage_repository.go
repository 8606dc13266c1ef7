package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

// FeedUsageRepository persists daily feed consumption records.
type FeedUsageRepository struct {
	c collection[models.FeedUsage]
}

func NewFeedUsageRepository(s *Store) *FeedUsageRepository {
	return &FeedUsageRepository{c: collection[models.FeedUsage]{
		coll: s.db.Collection(CollFeedUsage),
		sortable: map[string]string{
			"date":         "date",
			"feedType":     "feedType",
			"quantityUsed": "quantityUsed",
			"totalBirds":   "totalBirds",
			"createdAt":    "createdAt",
		},
		defaultSort: "date",
		dateField:   "date",
	}}
}

func (r *FeedUsageRepository) Create(ctx context.Context, u *models.FeedUsage) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	return r.c.insert(ctx, u)
}

func (r *FeedUsageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	return r.c.findByID(ctx, id)
}

func (r *FeedUsageRepository) FindByTypeAndDate(ctx context.Context, feedType models.FeedType, day time.Time) (*models.FeedUsage, error) {
	return r.c.findOne(ctx, bson.M{"feedType": feedType, "date": models.StartOfDay(day)})
}

func (r *FeedUsageRepository) Update(ctx context.Context, u *models.FeedUsage) error {
	return r.c.replace(ctx, u.ID, u)
}

func (r *FeedUsageRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *FeedUsageRepository) List(ctx context.Context, f models.UsageFilter, q models.ListQuery) (models.Page[models.FeedUsage], error) {
	return r.c.list(ctx, usageFilter(f), q)
}

// ListAll returns every matching record ordered by date, for exports.
func (r *FeedUsageRepository) ListAll(ctx context.Context, f models.UsageFilter) ([]models.FeedUsage, error) {
	return r.c.find(ctx, usageFilter(f), findSorted(bson.D{{Key: "date", Value: 1}, {Key: "feedType", Value: 1}}))
}

// MonthTotals sums a feed type's usage in month.
func (r *FeedUsageRepository) MonthTotals(ctx context.Context, feedType models.FeedType, month string) (models.UsageTotals, error) {
	return aggregateOne[models.UsageTotals](ctx, r.c.coll, mongo.Pipeline{
		matchStage(bson.M{"feedType": feedType, "month": month}),
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"quantity": bson.M{"$sum": "$quantityUsed"},
			"days":     bson.M{"$sum": 1},
		}}},
	})
}

// UsageByFeedType groups usage between from and to (inclusive) by feed type.
func (r *FeedUsageRepository) UsageByFeedType(ctx context.Context, from, to time.Time) ([]models.FeedTypeUsage, error) {
	return aggregate[models.FeedTypeUsage](ctx, r.c.coll, mongo.Pipeline{
		matchStage(bson.M{"date": dateRange(&from, &to)}),
		groupByFeedType(),
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
}

func (r *FeedUsageRepository) Summary(ctx context.Context, f models.UsageFilter) (*models.UsageSummary, error) {
	filter := usageFilter(f)

	byType, err := aggregate[models.FeedTypeUsage](ctx, r.c.coll, mongo.Pipeline{
		matchStage(filter),
		groupByFeedType(),
		{{Key: "$sort", Value: bson.M{"totalQuantity": -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("usage summary by type: %w", err)
	}

	daily, err := aggregate[models.DailyUsage](ctx, r.c.coll, mongo.Pipeline{
		matchStage(filter),
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"quantity": bson.M{"$sum": "$quantityUsed"},
			"cost":     bson.M{"$sum": "$costAnalysis.dailyCost"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("usage summary by day: %w", err)
	}

	unverifiedFilter := usageFilter(f)
	unverifiedFilter["isVerified"] = false
	unverified, err := r.c.coll.CountDocuments(ctx, unverifiedFilter)
	if err != nil {
		return nil, fmt.Errorf("count unverified usage: %w", err)
	}

	summary := &models.UsageSummary{ByFeedType: byType, Daily: daily, Unverified: unverified}
	for _, t := range byType {
		summary.TotalQuantity += t.TotalQuantity
		summary.TotalCost += t.TotalCost
		summary.Records += t.Records
	}
	summary.TotalQuantity = models.Round(summary.TotalQuantity, 3)
	summary.TotalCost = models.Round(summary.TotalCost, 2)
	if len(daily) > 0 {
		summary.AveragePerDay = models.DivRound(summary.TotalQuantity, float64(len(daily)), 2)
	}
	return summary, nil
}

func groupByFeedType() bson.D {
	return bson.D{{Key: "$group", Value: bson.M{
		"_id":           "$feedType",
		"totalQuantity": bson.M{"$sum": "$quantityUsed"},
		"totalCost":     bson.M{"$sum": "$costAnalysis.dailyCost"},
		"records":       bson.M{"$sum": 1},
	}}}
}

func usageFilter(f models.UsageFilter) bson.M {
	filter := bson.M{}
	if f.FeedType != "" {
		filter["feedType"] = f.FeedType
	}
	if f.Month != "" {
		filter["month"] = f.Month
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["date"] = r
	}
	if f.RecordedBy != "" {
		filter["recordedBy"] = f.RecordedBy
	}
	if f.Verified != nil {
		filter["isVerified"] = *f.Verified
	}
	return filter
}
