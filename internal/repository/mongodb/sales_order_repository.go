package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

type SalesOrderRepository struct {
	c collection[models.SalesOrder]
}

func NewSalesOrderRepository(s *Store) *SalesOrderRepository {
	return &SalesOrderRepository{c: collection[models.SalesOrder]{
		coll: s.db.Collection(CollSalesOrders),
		sortable: map[string]string{
			"orderDate":   "orderDate",
			"orderNumber": "orderNumber",
			"totalAmount": "totalAmount",
			"status":      "status",
			"customer":    "customer.name",
			"createdAt":   "createdAt",
		},
		defaultSort: "orderDate",
		dateField:   "orderDate",
	}}
}

func (r *SalesOrderRepository) Create(ctx context.Context, o *models.SalesOrder) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	return r.c.insert(ctx, o)
}

func (r *SalesOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error) {
	return r.c.findByID(ctx, id)
}

func (r *SalesOrderRepository) Update(ctx context.Context, o *models.SalesOrder) error {
	return r.c.replace(ctx, o.ID, o)
}

func (r *SalesOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *SalesOrderRepository) List(ctx context.Context, f models.OrderFilter, q models.ListQuery) (models.Page[models.SalesOrder], error) {
	return r.c.list(ctx, orderFilter(f), q)
}


func (r *SalesOrderRepository) Summary(ctx context.Context, f models.OrderFilter) (*models.SalesSummary, error) {
	match := matchStage(orderFilter(f))
	notCancelled := matchStage(bson.M{"status": bson.M{"$ne": models.OrderCancelled}})

	totals, err := aggregateOne[models.SalesTotals](ctx, r.c.coll, mongo.Pipeline{
		match,
		notCancelled,
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"orders":      bson.M{"$sum": 1},
			"revenue":     bson.M{"$sum": "$totalAmount"},
			"paid":        bson.M{"$sum": "$amountPaid"},
			"outstanding": bson.M{"$sum": "$balance"},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}

	groupCount := func(field string) mongo.Pipeline {
		return mongo.Pipeline{
			match,
			{{Key: "$group", Value: bson.M{
				"_id":    "$" + field,
				"count":  bson.M{"$sum": 1},
				"amount": bson.M{"$sum": "$totalAmount"},
			}}},
			{{Key: "$sort", Value: bson.M{"_id": 1}}},
		}
	}
	byStatus, err := aggregate[models.Bucket](ctx, r.c.coll, groupCount("status"))
	if err != nil {
		return nil, fmt.Errorf("sales by status: %w", err)
	}
	byPayment, err := aggregate[models.Bucket](ctx, r.c.coll, groupCount("paymentStatus"))
	if err != nil {
		return nil, fmt.Errorf("sales by payment status: %w", err)
	}

	byProduct, err := aggregate[models.ProductSales](ctx, r.c.coll, mongo.Pipeline{
		match,
		notCancelled,
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$items.product",
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": "$items.total"},
		}}},
		{{Key: "$sort", Value: bson.M{"revenue": -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sales by product: %w", err)
	}

	customers, err := aggregate[models.CustomerSales](ctx, r.c.coll, mongo.Pipeline{
		match,
		notCancelled,
		{{Key: "$group", Value: bson.M{
			"_id":    "$customer.name",
			"orders": bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$totalAmount"},
		}}},
		{{Key: "$sort", Value: bson.M{"amount": -1}}},
		{{Key: "$limit", Value: 5}},
	})
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}

	return &models.SalesSummary{
		SalesTotals:     totals,
		ByStatus:        byStatus,
		ByPaymentStatus: byPayment,
		ByProduct:       byProduct,
		TopCustomers:    customers,
	}, nil
}

func orderFilter(f models.OrderFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter["paymentStatus"] = f.PaymentStatus
	}
	if f.Customer != "" {
		filter["customer.name"] = bson.M{"$regex": regexp.QuoteMeta(f.Customer), "$options": "i"}
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["orderDate"] = r
	}
	return filter
}
