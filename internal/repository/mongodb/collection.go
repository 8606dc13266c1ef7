package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

// collection wraps the CRUD plumbing shared by the entity repositories.
type collection[T any] struct {
	coll *mongo.Collection
	// sortable maps accepted sortBy keys to document fields.
	sortable    map[string]string
	defaultSort string
	dateField   string
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (c collection[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapReadError(err)
	}
	return &doc, nil
}

func (c collection[T]) findByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c collection[T]) replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c collection[T]) deleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	if err := c.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapReadError(err)
	}
	return &doc, nil
}

// list returns one page of documents matching filter. The query's date
// range applies to dateField.
func (c collection[T]) list(ctx context.Context, filter bson.M, q models.ListQuery) (models.Page[T], error) {
	q.Normalize()
	if r := dateRange(q.StartDate, q.EndDate); r != nil && c.dateField != "" {
		filter[c.dateField] = r
	}

	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return models.Page[T]{}, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}

	opts := options.Find().
		SetSort(c.sortSpec(q)).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
	items, err := c.find(ctx, filter, opts)
	if err != nil {
		return models.Page[T]{}, err
	}
	return models.Page[T]{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (c collection[T]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return items, nil
}

func (c collection[T]) sortSpec(q models.ListQuery) bson.D {
	field, ok := c.sortable[q.SortBy]
	if !ok {
		field = c.defaultSort
	}
	dir := 1
	if q.SortDesc || q.SortBy == "" {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func aggregate[R any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]R, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	out := make([]R, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s aggregate: %w", coll.Name(), err)
	}
	return out, nil
}

// aggregateOne returns the first row of a pipeline, or the zero value.
func aggregateOne[R any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (R, error) {
	rows, err := aggregate[R](ctx, coll, pipeline)
	var zero R
	if err != nil || len(rows) == 0 {
		return zero, err
	}
	return rows[0], nil
}

// dateRange builds an inclusive range; to is extended to the end of its day.
func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = endOfDay(*to)
	}
	return r
}

func endOfDay(t time.Time) time.Time {
	return models.StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

func matchStage(filter bson.M) bson.D {
	return bson.D{{Key: "$match", Value: filter}}
}

func findSorted(sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort)
}
