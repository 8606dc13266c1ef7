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

type TaskRepository struct {
	c collection[models.Task]
}

func NewTaskRepository(s *Store) *TaskRepository {
	return &TaskRepository{c: collection[models.Task]{
		coll: s.db.Collection(CollTasks),
		sortable: map[string]string{
			"dueDate":   "dueDate",
			"priority":  "priority",
			"status":    "status",
			"title":     "title",
			"createdAt": "createdAt",
		},
		defaultSort: "dueDate",
		dateField:   "dueDate",
	}}
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	return r.c.insert(ctx, t)
}

func (r *TaskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return r.c.findByID(ctx, id)
}

func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	return r.c.replace(ctx, t.ID, t)
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return r.c.deleteByID(ctx, id)
}

func (r *TaskRepository) List(ctx context.Context, f models.TaskFilter, q models.ListQuery) (models.Page[models.Task], error) {
	return r.c.list(ctx, taskFilter(f), q)
}

// ListDue returns up to limit tasks matching f ordered by due date.
func (r *TaskRepository) ListDue(ctx context.Context, f models.TaskFilter, limit int64) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.c.find(ctx, taskFilter(f), opts)
}

// MarkOverdue flips open tasks due before now to Overdue and returns how
// many changed.
func (r *TaskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.coll.UpdateMany(ctx,
		bson.M{
			"status":  bson.M{"$in": bson.A{models.TaskPending, models.TaskInProgress}},
			"dueDate": bson.M{"$lt": now},
		},
		bson.M{"$set": bson.M{"status": models.TaskOverdue, "updatedAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue tasks: %w", err)
	}
	return res.ModifiedCount, nil
}

// CountBy groups tasks matching f by field.
func (r *TaskRepository) CountBy(ctx context.Context, f models.TaskFilter, field string) ([]models.Bucket, error) {
	return aggregate[models.Bucket](ctx, r.c.coll, mongo.Pipeline{
		matchStage(taskFilter(f)),
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
}

func taskFilter(f models.TaskFilter) bson.M {
	filter := bson.M{}
	if len(f.Status) == 1 {
		filter["status"] = f.Status[0]
	} else if len(f.Status) > 1 {
		filter["status"] = bson.M{"$in": f.Status}
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.AssignedTo != "" {
		filter["assignedTo"] = f.AssignedTo
	}
	due := bson.M{}
	if f.DueFrom != nil {
		due["$gte"] = *f.DueFrom
	}
	if f.DueBefore != nil {
		due["$lt"] = *f.DueBefore
	}
	if len(due) > 0 {
		filter["dueDate"] = due
	}
	return filter
}
