package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

var testNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

type memRepo struct {
	Repository
	mu    sync.Mutex
	tasks map[primitive.ObjectID]models.Task
}

func (m *memRepo) Create(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = primitive.NewObjectID()
	m.tasks[t.ID] = *t
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) Update(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *memRepo) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tasks {
		if (t.Status == models.TaskPending || t.Status == models.TaskInProgress) && t.DueDate.Before(now) {
			t.Status = models.TaskOverdue
			m.tasks[id] = t
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CountBy(_ context.Context, _ models.TaskFilter, field string) ([]models.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, t := range m.tasks {
		switch field {
		case "status":
			counts[string(t.Status)]++
		case "priority":
			counts[string(t.Priority)]++
		case "category":
			counts[t.Category]++
		}
	}
	out := []models.Bucket{}
	for k, v := range counts {
		out = append(out, models.Bucket{Key: k, Count: v})
	}
	return out, nil
}

func (m *memRepo) ListDue(_ context.Context, f models.TaskFilter, _ int64) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Task{}
	for _, t := range m.tasks {
		ok := false
		for _, s := range f.Status {
			ok = ok || t.Status == s
		}
		if !ok || (f.DueFrom != nil && t.DueDate.Before(*f.DueFrom)) || (f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func newTestService() (*Service, *memRepo) {
	r := &memRepo{tasks: map[primitive.ObjectID]models.Task{}}
	svc := NewService(r, nil)
	svc.now = func() time.Time { return testNow }
	return svc, r
}

func TestCreateDefaultsAndOverdue(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, Input{Title: "Clean house A", Category: "Cleaning", DueDate: "2025-01-12"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.RecurrenceNone, task.Recurrence)
	assert.Equal(t, models.TaskPending, task.Status)

	late, err := svc.Create(ctx, Input{Title: "Vaccinate", Category: "Vaccination", DueDate: "2025-01-09T08:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskOverdue, late.Status)
	assert.Equal(t, 8, late.DueDate.Hour())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), Input{Title: "x", Category: "Gardening", DueDate: "2025-01-12"})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code())
	assert.Contains(t, appErr.Details()[0], "category must be one of")

	_, err = svc.Create(context.Background(), Input{Title: "x", Category: "Other", DueDate: "soon"})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestCompleteSchedulesNextOccurrence(t *testing.T) {
	svc, r := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, Input{Title: "Collect eggs", Category: "Egg Collection", DueDate: "2025-01-10T16:00:00Z", Recurrence: models.RecurrenceDaily})
	require.NoError(t, err)

	res, err := svc.Complete(ctx, task.ID, CompleteInput{CompletedBy: "Awa"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, res.Task.Status)
	require.NotNil(t, res.Task.CompletedAt)
	assert.Equal(t, testNow, *res.Task.CompletedAt)
	assert.Equal(t, "Awa", res.Task.CompletedBy)

	require.NotNil(t, res.Next)
	assert.Equal(t, time.Date(2025, 1, 11, 16, 0, 0, 0, time.UTC), res.Next.DueDate)
	assert.Equal(t, models.TaskPending, res.Next.Status)
	assert.Len(t, r.tasks, 2)

	_, err = svc.Complete(ctx, task.ID, CompleteInput{})
	assert.True(t, apperr.IsCode(err, apperr.CodeDomainRule))
}

func TestCompleteOneOffTask(t *testing.T) {
	svc, r := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, Input{Title: "Fix fence", Category: "Maintenance", DueDate: "2025-01-12"})
	require.NoError(t, err)

	res, err := svc.Complete(ctx, task.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	assert.Len(t, r.tasks, 1)

	_, err = svc.Complete(ctx, primitive.NewObjectID(), CompleteInput{})
	assert.Equal(t, "Task not found", apperr.As(err).Message())
}

func TestMarkOverdue(t *testing.T) {
	svc, r := newTestService()
	ctx := context.Background()

	task, err := svc.Create(ctx, Input{Title: "Feed", Category: "Feeding", DueDate: "2025-01-12"})
	require.NoError(t, err)

	svc.now = func() time.Time { return testNow.AddDate(0, 0, 5) }
	n, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.TaskOverdue, r.tasks[task.ID].Status)
}

func TestDashboard(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inputs := []Input{
		{Title: "a", Category: "Feeding", DueDate: "2025-01-12", Priority: models.PriorityHigh},
		{Title: "b", Category: "Feeding", DueDate: "2025-01-05"},
		{Title: "c", Category: "Cleaning", DueDate: "2025-02-20"},
	}
	var last *models.Task
	for _, in := range inputs {
		task, err := svc.Create(ctx, in)
		require.NoError(t, err)
		last = task
	}
	_, err := svc.Complete(ctx, last.ID, CompleteInput{})
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, dash.Total)
	assert.Equal(t, 33.33, dash.CompletionRate)
	require.Len(t, dash.Overdue, 1)
	assert.Equal(t, "b", dash.Overdue[0].Title)
	require.Len(t, dash.Upcoming, 1)
	assert.Equal(t, "a", dash.Upcoming[0].Title)
}
