// Package tasks schedules farm chores.
package tasks

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

const (
	entity         = "Task"
	upcomingWindow = 7 * 24 * time.Hour
	dashboardLimit = 10
)

type Repository interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, f models.TaskFilter, q models.ListQuery) (models.Page[models.Task], error)
	ListDue(ctx context.Context, f models.TaskFilter, limit int64) ([]models.Task, error)
	CountBy(ctx context.Context, f models.TaskFilter, field string) ([]models.Bucket, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Input is the create/update payload.
type Input struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category" validate:"required,oneof=Feeding Cleaning Vaccination 'Egg Collection' Maintenance 'Health Check' Other"`
	Priority    models.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High Urgent"`
	AssignedTo  string              `json:"assignedTo,omitempty"`
	DueDate     string              `json:"dueDate" validate:"required"`
	Status      models.TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=Pending 'In Progress' Completed Cancelled Overdue"`
	Recurrence  models.Recurrence   `json:"recurrence,omitempty" validate:"omitempty,oneof=None Daily Weekly Monthly"`
	CompletedBy string              `json:"completedBy,omitempty"`
	Notes       string              `json:"notes,omitempty"`
}

type CompleteInput struct {
	CompletedBy string `json:"completedBy,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CompleteResult carries the completed task and, for recurring tasks, the
// next occurrence.
type CompleteResult struct {
	Task *models.Task `json:"task"`
	Next *models.Task `json:"next,omitempty"`
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repository Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Task, error) {
	now := s.now().UTC()
	task := &models.Task{CreatedAt: now}
	if err := apply(task, in, now); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := apply(task, in, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

func apply(task *models.Task, in Input, now time.Time) error {
	if err := models.Validate(in); err != nil {
		return err
	}
	due, err := parseDue(in.DueDate)
	if err != nil {
		return apperr.Validation("Validation failed", "dueDate must be a date (YYYY-MM-DD) or RFC3339 timestamp")
	}

	task.Title = in.Title
	task.Description = in.Description
	task.Category = in.Category
	task.Priority = in.Priority
	task.AssignedTo = in.AssignedTo
	task.DueDate = due
	task.Recurrence = in.Recurrence
	task.Notes = in.Notes
	if in.Status != "" {
		task.Status = in.Status
	}
	if task.Status == models.TaskCompleted && in.CompletedBy != "" {
		task.CompletedBy = in.CompletedBy
	}
	task.UpdatedAt = now
	task.Derive(now)
	return nil
}

// parseDue keeps the time of day when one is given.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return models.ParseDay(s)
}

// Complete closes a task and schedules the next occurrence of a recurring one.
func (s *Service) Complete(ctx context.Context, id primitive.ObjectID, in CompleteInput) (*CompleteResult, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if task.Status == models.TaskCompleted {
		return nil, apperr.New(apperr.CodeDomainRule, "Task is already completed")
	}
	if task.Status == models.TaskCancelled {
		return nil, apperr.New(apperr.CodeDomainRule, "Cancelled tasks cannot be completed")
	}

	now := s.now().UTC()
	task.Status = models.TaskCompleted
	task.CompletedAt = nil
	task.Derive(now)
	task.CompletedBy = in.CompletedBy
	if in.Notes != "" {
		task.Notes = in.Notes
	}
	task.UpdatedAt = now
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, storeError(err)
	}

	result := &CompleteResult{Task: task}
	if due, ok := task.NextDue(); ok {
		next := &models.Task{
			Title:       task.Title,
			Description: task.Description,
			Category:    task.Category,
			Priority:    task.Priority,
			AssignedTo:  task.AssignedTo,
			DueDate:     due,
			Recurrence:  task.Recurrence,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		next.Derive(now)
		if err := s.repo.Create(ctx, next); err != nil {
			return nil, storeError(err)
		}
		result.Next = next
		s.logger.Info("next task occurrence scheduled",
			zap.String("task_id", next.ID.Hex()),
			zap.Time("due", next.DueDate),
		)
	}
	return result, nil
}

// MarkOverdue flips open tasks past their due date to Overdue.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, s.now().UTC())
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

// Dashboard runs the dashboard aggregations concurrently.
func (s *Service) Dashboard(ctx context.Context, f models.TaskFilter) (*models.TaskDashboard, error) {
	now := s.now().UTC()
	horizon := now.Add(upcomingWindow)
	dash := &models.TaskDashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dash.ByStatus, err = s.repo.CountBy(gctx, f, "status")
		return err
	})
	g.Go(func() (err error) {
		dash.ByPriority, err = s.repo.CountBy(gctx, f, "priority")
		return err
	})
	g.Go(func() (err error) {
		dash.ByCategory, err = s.repo.CountBy(gctx, f, "category")
		return err
	})
	g.Go(func() (err error) {
		overdue := f
		overdue.Status = []models.TaskStatus{models.TaskPending, models.TaskInProgress, models.TaskOverdue}
		overdue.DueFrom = nil
		overdue.DueBefore = &now
		dash.Overdue, err = s.repo.ListDue(gctx, overdue, dashboardLimit)
		return err
	})
	g.Go(func() (err error) {
		upcoming := f
		upcoming.Status = []models.TaskStatus{models.TaskPending, models.TaskInProgress}
		upcoming.DueFrom = &now
		upcoming.DueBefore = &horizon
		dash.Upcoming, err = s.repo.ListDue(gctx, upcoming, dashboardLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err)
	}

	var completed int64
	for _, b := range dash.ByStatus {
		dash.Total += b.Count
		if b.Key == string(models.TaskCompleted) {
			completed = b.Count
		}
	}
	if dash.Total > 0 {
		dash.CompletionRate = models.DivRound(float64(completed)*100, float64(dash.Total), 2)
	}
	return dash, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

func (s *Service) List(ctx context.Context, f models.TaskFilter, q models.ListQuery) (models.Page[models.Task], error) {
	page, err := s.repo.List(ctx, f, q)
	if err != nil {
		return page, storeError(err)
	}
	return page, nil
}

func storeError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return apperr.Wrap(apperr.CodeInternal, err, err.Error())
}
