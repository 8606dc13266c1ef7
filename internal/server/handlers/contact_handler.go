package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

type ContactService interface {
	Send(ctx context.Context, msg models.ContactMessage) error
	Verify(ctx context.Context) error
}

// ContactHandler serves /api/contact.
type ContactHandler struct {
	svc ContactService
	r   *Responder
}

func NewContactHandler(svc ContactService, r *Responder) *ContactHandler {
	return &ContactHandler{svc: svc, r: r}
}

func (h *ContactHandler) Send(c *gin.Context) {
	var msg models.ContactMessage
	if err := bindJSON(c, &msg); err != nil {
		h.r.Fail(c, err)
		return
	}
	if err := h.svc.Send(c.Request.Context(), msg); err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Message sent successfully", nil)
}

// Test checks the relay credentials without sending mail.
func (h *ContactHandler) Test(c *gin.Context) {
	if err := h.svc.Verify(c.Request.Context()); err != nil {
		h.r.Fail(c, err)
		return
	}
	h.r.Message(c, "Mail relay is configured correctly", nil)
}
