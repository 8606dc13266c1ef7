package mongodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

// Migration is a one-off data change applied once per database.
type Migration struct {
	Version string
	Apply   func(ctx context.Context, db *mongo.Database) error
}

type migrationRecord struct {
	Version   string    `bson:"_id"`
	AppliedAt time.Time `bson:"appliedAt"`
}

// Migrations returns the known migrations ordered by version.
func Migrations() []Migration {
	return []Migration{
		{Version: "0001_canonical_feed_fields", Apply: canonicalFeedFields},
	}
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context, migrations []Migration) error {
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	records := s.db.Collection(CollMigrations)

	for _, m := range migrations {
		err := records.FindOne(ctx, bson.M{"_id": m.Version}).Err()
		if err == nil {
			continue
		}
		if err != mongo.ErrNoDocuments {
			return fmt.Errorf("read migration %s: %w", m.Version, err)
		}

		start := time.Now()
		if err := m.Apply(ctx, s.db); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		rec := migrationRecord{Version: m.Version, AppliedAt: time.Now().UTC()}
		if _, err := records.InsertOne(ctx, rec); err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		s.logger.Info("migration applied", zap.String("version", m.Version), zap.Duration("took", time.Since(start)))
	}
	return nil
}

// canonicalFeedFields rewrites legacy inventory documents that stored the
// feed type under "type" and the quantity under "quantity".
func canonicalFeedFields(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(CollFeedStock)

	steps := []struct {
		filter bson.M
		update interface{}
	}{
		{
			filter: bson.M{"feedType": bson.M{"$exists": false}, "type": bson.M{"$exists": true}},
			update: bson.M{"$rename": bson.M{"type": "feedType"}},
		},
		{
			filter: bson.M{"currentQuantity": bson.M{"$exists": false}, "quantity": bson.M{"$exists": true}},
			update: bson.M{"$rename": bson.M{"quantity": "currentQuantity"}},
		},
		{
			filter: bson.M{"baselineQuantity": bson.M{"$exists": false}},
			update: mongo.Pipeline{{{Key: "$set", Value: bson.M{"baselineQuantity": "$currentQuantity"}}}},
		},
		{
			filter: bson.M{"unit": bson.M{"$exists": false}},
			update: bson.M{"$set": bson.M{"unit": models.DefaultStockUnit}},
		},
		{
			filter: bson.M{"minimumThreshold": bson.M{"$exists": false}},
			update: bson.M{"$set": bson.M{"minimumThreshold": models.DefaultMinimumThreshold}},
		},
		{
			filter: bson.M{"version": bson.M{"$exists": false}},
			update: bson.M{"$set": bson.M{"version": int64(0)}},
		},
		{
			filter: bson.M{"status": bson.M{"$exists": false}},
			update: bson.M{"$set": bson.M{"status": models.StockActive}},
		},
	}

	for _, step := range steps {
		if _, err := coll.UpdateMany(ctx, step.filter, step.update, options.Update()); err != nil {
			return err
		}
	}
	return nil
}
