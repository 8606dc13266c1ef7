package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/sales"
)

type SalesOrderService interface {
	Create(ctx context.Context, in sales.OrderInput) (*models.SalesOrder, error)
	Update(ctx context.Context, id primitive.ObjectID, in sales.OrderInput) (*models.SalesOrder, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error)
	List(ctx context.Context, f models.OrderFilter, q models.ListQuery) (models.Page[models.SalesOrder], error)
	Summary(ctx context.Context, f models.OrderFilter) (*models.SalesSummary, error)
}

// SalesOrderHandler serves /api/sales-orders.
type SalesOrderHandler struct {
	svc SalesOrderService
	r   *Responder
}

func NewSalesOrderHandler(svc SalesOrderService, r *Responder) *SalesOrderHandler {
	return &SalesOrderHandler{svc: svc, r: r}
}

func (h *SalesOrderHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.orderFilter(), p.list()
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

func (h *SalesOrderHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.orderFilter()
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

func (h *SalesOrderHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	order, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, order)
}

func (h *SalesOrderHandler) Create(c *gin.Context) {
	var in sales.OrderInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	order, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Created(c, "Sales order created successfully", order)
}

func (h *SalesOrderHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in sales.OrderInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	order, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Sales order updated successfully", order)
}

func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	order, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Sales order deleted successfully", order)
}
