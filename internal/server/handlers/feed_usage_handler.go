package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/feed"
	"github.com/mamadbah2/farmdesk/pkg/export"
)

type FeedUsageService interface {
	RecordUsage(ctx context.Context, in feed.UsageInput) (*models.FeedUsage, error)
	UpdateUsage(ctx context.Context, id primitive.ObjectID, in feed.UsageUpdate) (*models.FeedUsage, error)
	DeleteUsage(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error)
	VerifyUsage(ctx context.Context, id primitive.ObjectID, in feed.VerifyInput) (*models.FeedUsage, error)
	GetUsage(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error)
	ListUsages(ctx context.Context, f models.UsageFilter, q models.ListQuery) (models.Page[models.FeedUsage], error)
	UsageSummary(ctx context.Context, f models.UsageFilter) (*models.UsageSummary, error)
	ExportUsages(ctx context.Context, f models.UsageFilter) (export.Table, error)
}

// FeedUsageHandler serves /api/feed-usage.
type FeedUsageHandler struct {
	svc FeedUsageService
	r   *Responder
	now func() string
}

func NewFeedUsageHandler(svc FeedUsageService, r *Responder) *FeedUsageHandler {
	return &FeedUsageHandler{svc: svc, r: r, now: today}
}

func (h *FeedUsageHandler) List(c *gin.Context) {
	p := newQueryParser(c)
	f, q := p.usageFilter(), p.list()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	page, err := h.svc.ListUsages(c.Request.Context(), f, q)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	List(c, page)
}

// Summary also serves /analytics.
func (h *FeedUsageHandler) Summary(c *gin.Context) {
	p := newQueryParser(c)
	f := p.usageFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	summary, err := h.svc.UsageSummary(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, summary)
}

func (h *FeedUsageHandler) Export(c *gin.Context) {
	p := newQueryParser(c)
	f := p.usageFilter()
	if err := p.err(); err != nil {
		h.r.Fail(c, err)
		return
	}
	table, err := h.svc.ExportUsages(c.Request.Context(), f)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.XLSX(c, fmt.Sprintf("feed-usage-%s.xlsx", h.now()), table)
}

func (h *FeedUsageHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	usage, err := h.svc.GetUsage(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.OK(c, usage)
}

func (h *FeedUsageHandler) Create(c *gin.Context) {
	var in feed.UsageInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	usage, err := h.svc.RecordUsage(c.Request.Context(), in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Created(c, "Feed usage recorded successfully", usage)
}

func (h *FeedUsageHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in feed.UsageUpdate
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	usage, err := h.svc.UpdateUsage(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed usage updated successfully", usage)
}

func (h *FeedUsageHandler) Verify(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	var in feed.VerifyInput
	if err := bindJSON(c, &in); err != nil {
		h.r.Fail(c, err)
		return
	}
	usage, err := h.svc.VerifyUsage(c.Request.Context(), id, in)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed usage verified successfully", usage)
}

func (h *FeedUsageHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	usage, err := h.svc.DeleteUsage(c.Request.Context(), id)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Feed usage deleted and stock restored", usage)
}
