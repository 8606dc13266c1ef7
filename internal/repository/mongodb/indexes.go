package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type indexSpec struct {
	collection string
	models     []mongo.IndexModel
}

func indexSpecs() []indexSpec {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}
	named := func(name string) *options.IndexOptions {
		return options.Index().SetName(name)
	}
	return []indexSpec{
		{CollFeedStock, []mongo.IndexModel{
			{Keys: bson.D{{Key: "feedType", Value: 1}, {Key: "month", Value: 1}}, Options: unique("feedType_month_unique")},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isLowStock", Value: 1}}, Options: named("status_lowstock")},
		}},
		{CollFeedUsage, []mongo.IndexModel{
			{Keys: bson.D{{Key: "feedType", Value: 1}, {Key: "date", Value: 1}}, Options: unique("feedType_date_unique")},
			{Keys: bson.D{{Key: "feedType", Value: 1}, {Key: "month", Value: 1}}, Options: named("feedType_month")},
		}},
		{CollEggProduction, []mongo.IndexModel{
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "house", Value: 1}}, Options: unique("date_house_unique")},
		}},
		{CollSalesOrders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: unique("orderNumber_unique")},
			{Keys: bson.D{{Key: "orderDate", Value: -1}}, Options: named("orderDate")},
		}},
		{CollTasks, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "dueDate", Value: 1}}, Options: named("status_dueDate")},
		}},
		{CollFinancialRecords, []mongo.IndexModel{
			{Keys: bson.D{{Key: "referenceNumber", Value: 1}}, Options: unique("referenceNumber_unique")},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "date", Value: -1}}, Options: named("type_date")},
		}},
	}
}

// EnsureIndexes creates the indexes backing the uniqueness rules. Existing
// indexes with the same definition are left untouched.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, spec := range indexSpecs() {
		names, err := s.db.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", spec.collection, err)
		}
		s.logger.Debug("indexes ensured", zap.String("collection", spec.collection), zap.Strings("indexes", names))
	}
	return nil
}
