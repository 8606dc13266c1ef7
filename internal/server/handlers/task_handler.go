package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/tasks"
)

type TaskService interface {
	Create(ctx context.Context, in tasks.Input) (*models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, in tasks.Input) (*models.Task, error)
	Complete(ctx context.Context, id primitive.ObjectID, in tasks.CompleteInput) (*tasks.CompleteResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	List(ctx context.Context, f models.TaskFilter, q models.ListQuery) (models.Page[models.Task], error)
	Dashboard(ctx context.Context, f models.TaskFilter) (*models.TaskDashboard, error)
}

// TaskHandler serves /api/task-scheduling.
type TaskHandler struct {
	svc TaskService
	r   *Responder
}

func NewTaskHandler(svc TaskService, r *Responder) *TaskHandler {
	return &TaskHandler{svc: svc, r: r}
}

func (h *TaskHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.taskFilter(), p.list()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), f, q)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	List(c, page)
}

func (h *TaskHandler) Dashboard(c *gin.Context) {
	p := newQueryParser(c)
	f := p.taskFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	dash, err := h.svc.Dashboard(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, dash)
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	task, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, task)
}

func (h *TaskHandler) Create(c *gin.Context) {
	var in tasks.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	task, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Created(c, "Task created successfully", task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in tasks.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	task, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Task updated successfully", task)
}

// Complete accepts an empty body.
func (h *TaskHandler) Complete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in tasks.CompleteInput
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &in); err != nil {
			h.r.Fail(c, err)
			return
		}
	}
	result, err := h.svc.Complete(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Task completed successfully", result)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	task, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Task deleted successfully", task)
}
