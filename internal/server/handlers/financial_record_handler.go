package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/finance"
	"github.com/mamadbah2/farmdesk/pkg/export"
)

type FinanceService interface {
	Create(ctx context.Context, in finance.Input) (*models.FinancialRecord, error)
	Update(ctx context.Context, id primitive.ObjectID, in finance.Input) (*models.FinancialRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error)
	List(ctx context.Context, f models.FinanceFilter, q models.ListQuery) (models.Page[models.FinancialRecord], error)
	Summary(ctx context.Context, f models.FinanceFilter) (*models.FinanceSummary, error)
	Export(ctx context.Context, f models.FinanceFilter) (export.Table, error)
}

// FinancialRecordHandler serves /api/financial-records.
type FinancialRecordHandler struct {
	svc FinanceService
	r   *Responder
	now func() string
}

func NewFinancialRecordHandler(svc FinanceService, r *Responder) *FinancialRecordHandler {
	return &FinancialRecordHandler{svc: svc, r: r, now: today}
}

func (h *FinancialRecordHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.financeFilter(), p.list()
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

// Summary also serves /analytics.
func (h *FinancialRecordHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.financeFilter()
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

func (h *FinancialRecordHandler) Export(c *gin.Context) {
	p := newQueryParser(c)
	f := p.financeFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	table, err := h.svc.Export(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.XLSX(c, fmt.Sprintf("financial-records-%s.xlsx", h.now()), table)
}

func (h *FinancialRecordHandler) Get(c *gin.Context) {
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

func (h *FinancialRecordHandler) Create(c *gin.Context) {
	var in finance.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Created(c, "Financial record created successfully", rec)
}

func (h *FinancialRecordHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in finance.Input
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Financial record updated successfully", rec)
}

func (h *FinancialRecordHandler) Delete(c *gin.Context) {
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
	h.r.Message(c, "Financial record deleted successfully", rec)
}
