package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type DatabaseHealth interface {
	Health(ctx context.Context) string
}

// HealthHandler reports liveness and the database connection state.
type HealthHandler struct {
	db      DatabaseHealth
	env     string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(db DatabaseHealth, env string) *HealthHandler {
	return &HealthHandler{db: db, env: env, started: time.Now(), now: time.Now}
}

type healthReport struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Environment string    `json:"environment"`
	Uptime      string    `json:"uptime"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health always answers 200 while the process is up; a lost database
// connection is reported as "degraded".
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := h.now()
	report := healthReport{
		Status:      "ok",
		Database:    h.db.Health(ctx),
		Environment: h.env,
		Uptime:      now.Sub(h.started).Truncate(time.Second).String(),
		Timestamp:   now.UTC(),
	}
	if report.Database != "connected" {
		report.Status = "degraded"
	}
	c.JSON(http.StatusOK, Envelope{Success: true, Message: "Server is running", Data: report})
}
