package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/feed"
)

type FeedStockService interface {
	UpsertStock(ctx context.Context, in feed.StockInput) (*models.FeedStock, bool, error)
	UpdateStock(ctx context.Context, id primitive.ObjectID, in feed.StockUpdate) (*models.FeedStock, error)
	DeductStock(ctx context.Context, id primitive.ObjectID, in feed.DeductInput) (*models.FeedStock, error)
	DeleteStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	GetStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	ListStocks(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error)
	StockSummary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error)
	StockAlerts(ctx context.Context) (*models.StockAlerts, error)
}

// FeedStockHandler serves /api/feed-stock.
type FeedStockHandler struct {
	svc FeedStockService
	r   *Responder
}

func NewFeedStockHandler(svc FeedStockService, r *Responder) *FeedStockHandler {
	return &FeedStockHandler{svc: svc, r: r}
}

func (h *FeedStockHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.stockFilter(), p.list()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	page, err := h.svc.ListStocks(c.Request.Context(), f, q)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	List(c, page)
}

func (h *FeedStockHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.stockFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	summary, err := h.svc.StockSummary(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, summary)
}

func (h *FeedStockHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.StockAlerts(c.Request.Context())
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, alerts)
}

func (h *FeedStockHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	stock, err := h.svc.GetStock(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, stock)
}

// Upsert answers 201 when the month's bucket was created and 200 when an
// existing bucket was overwritten.
func (h *FeedStockHandler) Upsert(c *gin.Context) {
	var in feed.StockInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	stock, created, err := h.svc.UpsertStock(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	if created {
		h.r.Created(c, "Feed stock created successfully", stock)
		return
	}
	h.r.Message(c, "Feed stock updated successfully", stock)
}

func (h *FeedStockHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in feed.StockUpdate
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	stock, err := h.svc.UpdateStock(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed stock updated successfully", stock)
}

func (h *FeedStockHandler) Deduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in feed.DeductInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	stock, err := h.svc.DeductStock(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Stock deducted successfully", stock)
}

func (h *FeedStockHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	stock, err := h.svc.DeleteStock(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed stock deleted successfully", stock)
}
