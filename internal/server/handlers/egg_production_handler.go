package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/production"
)

type EggProductionService interface {
	Create(ctx context.Context, in production.Input) (*models.EggProduction, error)
	Update(ctx context.Context, id primitive.ObjectID, in production.Input) (*models.EggProduction, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error)
	List(ctx context.Context, f models.EggFilter, q models.ListQuery) (models.Page[models.EggProduction], error)
	Summary(ctx context.Context, f models.EggFilter) (*models.EggSummary, error)
}

// EggProductionHandler serves /api/egg-production.
type EggProductionHandler struct {
	svc EggProductionService
	r   *Responder
}

func NewEggProductionHandler(svc EggProductionService, r *Responder) *EggProductionHandler {
	return &EggProductionHandler{svc: svc, r: r}
}

func (h *EggProductionHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.eggFilter(), p.list()
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

func (h *EggProductionHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.eggFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	summary, err := h.svc.Summary(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, summary)
}

func (h *EggProductionHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, rec)
}

func (h *EggProductionHandler) Create(c *gin.Context) {
	var in production.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Created(c, "Egg production record created successfully", rec)
}

func (h *EggProductionHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in production.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Egg production record updated successfully", rec)
}

func (h *EggProductionHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Egg production record deleted successfully", rec)
}
