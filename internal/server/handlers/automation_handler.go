package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/farmdesk/internal/scheduler"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

type JobRunner interface {
	Status() []scheduler.Status
	Trigger(ctx context.Context, name string) (scheduler.Status, error)
}

// AutomationHandler exposes job status and manual runs.
type AutomationHandler struct {
	jobs    JobRunner
	enabled bool
	r       *Responder
}

func NewAutomationHandler(jobs JobRunner, enabled bool, r *Responder) *AutomationHandler {
	return &AutomationHandler{jobs: jobs, enabled: enabled, r: r}
}

type triggerRequest struct {
	Job string `json:"job"`
}

func (h *AutomationHandler) Status(c *gin.Context) {
	h.r.OK(c, gin.H{
		"enabled": h.enabled,
		"jobs":    h.jobs.Status(),
	})
}

// Trigger runs a job synchronously. Manual runs work even when the cron
// schedule is disabled.
func (h *AutomationHandler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := bindJSON(c, &req); err != nil {
		h.r.Fail(c, err)
		return
	}
	if req.Job == "" {
		h.r.Fail(c, apperr.Validation("Missing required fields: job", "job is required"))
		return
	}
	status, err := h.jobs.Trigger(c.Request.Context(), req.Job)
	if err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Job "+req.Job+" completed", status)
}
