package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/inventory"
)

type FeedInventoryService interface {
	Create(ctx context.Context, in inventory.ItemInput) (*models.FeedStock, bool, error)
	Update(ctx context.Context, id primitive.ObjectID, in inventory.ItemUpdate) (*models.FeedStock, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	List(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error)
	Summary(ctx context.Context, f models.StockFilter) (*inventory.Summary, error)
	Alerts(ctx context.Context) (*models.StockAlerts, error)
}

// FeedInventoryHandler serves the legacy /api/feed-inventory routes over
// the stock buckets.
type FeedInventoryHandler struct {
	svc FeedInventoryService
	r   *Responder
}

func NewFeedInventoryHandler(svc FeedInventoryService, r *Responder) *FeedInventoryHandler {
	return &FeedInventoryHandler{svc: svc, r: r}
}

func (h *FeedInventoryHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.stockFilter(), p.list()
	if f.FeedType == "" {
		f.FeedType = p.feedType("type")
	}
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

func (h *FeedInventoryHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.stockFilter()
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

func (h *FeedInventoryHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context())
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, alerts)
}

func (h *FeedInventoryHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, item)
}

func (h *FeedInventoryHandler) Create(c *gin.Context) {
	var in inventory.ItemInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	item, created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	if created {
		h.r.Created(c, "Feed inventory item created successfully", item)
		return
	}
	h.r.Message(c, "Feed inventory item updated successfully", item)
}

func (h *FeedInventoryHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in inventory.ItemUpdate
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	item, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed inventory item updated successfully", item)
}

func (h *FeedInventoryHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	item, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed inventory item deleted successfully", item)
}
