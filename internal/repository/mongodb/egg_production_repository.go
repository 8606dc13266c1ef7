package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

type EggProductionRepository struct {
	c collection[models.EggProduction]
}

func NewEggProductionRepository(s *Store) *EggProductionRepository {
	return &EggProductionRepository{c: collection[models.EggProduction]{
		coll: s.db.Collection(CollEggProduction),
		sortable: map[string]string{
			"date":           "date",
			"house":          "house",
			"eggsCollected":  "eggsCollected",
			"productionRate": "productionRate",
			"createdAt":      "createdAt",
		},
		defaultSort: "date",
		dateField:   "date",
	}}
}

func (r *EggProductionRepository) Create(ctx context.Context, e *models.EggProduction) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	return r.c.insert(ctx, e)
}

func (r *EggProductionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error) {
	return r.c.findByID(ctx, id)
}

func (r *EggProductionRepository) Update(ctx context.Context, e *models.EggProduction) error {
	return r.c.replace(ctx, e.ID, e)
}

func (r *EggProductionRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *EggProductionRepository) List(ctx context.Context, f models.EggFilter, q models.ListQuery) (models.Page[models.EggProduction], error) {
	return r.c.list(ctx, eggFilter(f), q)
}

func (r *EggProductionRepository) Summary(ctx context.Context, f models.EggFilter) (*models.EggSummary, error) {
	match := matchStage(eggFilter(f))

	totals, err := aggregateOne[models.EggSummary](ctx, r.c.coll, mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"records":       bson.M{"$sum": 1},
			"eggsCollected": bson.M{"$sum": "$eggsCollected"},
			"goodEggs":      bson.M{"$sum": "$goodEggs"},
			"brokenEggs":    bson.M{"$sum": "$brokenEggs"},
			"mortality":     bson.M{"$sum": "$mortality"},
			"averageRate":   bson.M{"$avg": "$productionRate"},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("egg summary totals: %w", err)
	}

	byHouse, err := aggregate[models.HouseProduction](ctx, r.c.coll, mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":           "$house",
			"eggsCollected": bson.M{"$sum": "$eggsCollected"},
			"goodEggs":      bson.M{"$sum": "$goodEggs"},
			"averageRate":   bson.M{"$avg": "$productionRate"},
			"records":       bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("egg summary by house: %w", err)
	}

	daily, err := aggregate[models.DailyProduction](ctx, r.c.coll, mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"eggsCollected": bson.M{"$sum": "$eggsCollected"},
			"averageRate":   bson.M{"$avg": "$productionRate"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("egg summary by day: %w", err)
	}

	totals.AverageRate = models.Round(totals.AverageRate, 2)
	totals.TotalTrays = totals.GoodEggs / models.EggsPerTray
	for i := range byHouse {
		byHouse[i].AverageRate = models.Round(byHouse[i].AverageRate, 2)
	}
	for i := range daily {
		daily[i].AverageRate = models.Round(daily[i].AverageRate, 2)
	}
	totals.ByHouse = byHouse
	totals.DailyBreakdown = daily
	return &totals, nil
}

func eggFilter(f models.EggFilter) bson.M {
	filter := bson.M{}
	if f.House != "" {
		filter["house"] = f.House
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["date"] = r
	}
	return filter
}
