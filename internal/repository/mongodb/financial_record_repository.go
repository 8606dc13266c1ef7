package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

type FinancialRecordRepository struct {
	c collection[models.FinancialRecord]
}

func NewFinancialRecordRepository(s *Store) *FinancialRecordRepository {
	return &FinancialRecordRepository{c: collection[models.FinancialRecord]{
		coll: s.db.Collection(CollFinancialRecords),
		sortable: map[string]string{
			"date":      "date",
			"amount":    "amount",
			"type":      "type",
			"category":  "category",
			"createdAt": "createdAt",
		},
		defaultSort: "date",
		dateField:   "date",
	}}
}

func (r *FinancialRecordRepository) Create(ctx context.Context, rec *models.FinancialRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	return r.c.insert(ctx, rec)
}

func (r *FinancialRecordRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error) {
	return r.c.findByID(ctx, id)
}

func (r *FinancialRecordRepository) Update(ctx context.Context, rec *models.FinancialRecord) error {
	return r.c.replace(ctx, rec.ID, rec)
}

func (r *FinancialRecordRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *FinancialRecordRepository) List(ctx context.Context, f models.FinanceFilter, q models.ListQuery) (models.Page[models.FinancialRecord], error) {
	return r.c.list(ctx, financeFilter(f), q)
}

func (r *FinancialRecordRepository) ListAll(ctx context.Context, f models.FinanceFilter) ([]models.FinancialRecord, error) {
	return r.c.find(ctx, financeFilter(f), findSorted(bson.D{{Key: "date", Value: 1}}))
}


// ByCategory totals amounts per (type, category).
func (r *FinancialRecordRepository) ByCategory(ctx context.Context, f models.FinanceFilter) ([]models.CategoryAmount, error) {
	rows, err := aggregate[struct {
		Key    models.CategoryAmount `bson:"_id"`
		Amount float64               `bson:"amount"`
		Count  int64                 `bson:"count"`
	}](ctx, r.c.coll, mongo.Pipeline{
		matchStage(financeFilter(f)),
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"type": "$type", "category": "$category"},
			"amount": bson.M{"$sum": "$amount"},
			"count":  bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"amount": -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("finance by category: %w", err)
	}
	out := make([]models.CategoryAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CategoryAmount{
			Type:     row.Key.Type,
			Category: row.Key.Category,
			Amount:   models.Round(row.Amount, 2),
			Count:    row.Count,
		})
	}
	return out, nil
}

// Monthly totals amounts per (month, type), ordered by month.
func (r *FinancialRecordRepository) Monthly(ctx context.Context, f models.FinanceFilter) ([]models.MonthlyAmount, error) {
	rows, err := aggregate[struct {
		Key    models.MonthlyAmount `bson:"_id"`
		Amount float64              `bson:"amount"`
	}](ctx, r.c.coll, mongo.Pipeline{
		matchStage(financeFilter(f)),
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"month": bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$date"}},
				"type":  "$type",
			},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id.month": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("finance by month: %w", err)
	}
	out := make([]models.MonthlyAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.MonthlyAmount{Month: row.Key.Month, Type: row.Key.Type, Amount: models.Round(row.Amount, 2)})
	}
	return out, nil
}

func financeFilter(f models.FinanceFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["date"] = r
	}
	return filter
}
