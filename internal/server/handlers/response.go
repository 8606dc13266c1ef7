package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/export"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Envelope is the response body shared by every endpoint.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Total   *int64   `json:"total,omitempty"`
	Page    *int     `json:"page,omitempty"`
	Pages   *int     `json:"pages,omitempty"`
}

// Responder writes envelopes and maps errors to status codes. Raw internal
// error text is only exposed when exposeInternal is set.
type Responder struct {
	logger         *zap.Logger
	exposeInternal bool
}

func NewResponder(logger *zap.Logger, exposeInternal bool) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{logger: logger, exposeInternal: exposeInternal}
}

func (r *Responder) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func (r *Responder) Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func (r *Responder) Message(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// List writes one page with its paging metadata.
func List[T any](c *gin.Context, page models.Page[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	count := len(items)
	pages := page.Pages()
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Count:   &count,
		Total:   &page.Total,
		Page:    &page.Page,
		Pages:   &pages,
	})
}

// Fail writes err as an error envelope.
func (r *Responder) Fail(c *gin.Context, err error) {
	status, body := r.errorBody(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}

func (r *Responder) errorBody(err error) (int, Envelope) {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.Wrap(apperr.CodeInternal, err, "internal server error")
	}
	meta := apperr.MetadataFor(appErr.Code())

	body := Envelope{Success: false, Message: meta.PublicMessage, Errors: appErr.Details()}
	if meta.ExposeMessage && appErr.Message() != "" {
		body.Message = appErr.Message()
	}
	if r.exposeInternal && appErr.Code() == apperr.CodeInternal {
		body.Error = err.Error()
	}
	return meta.HTTPStatus, body
}

// XLSX streams table as a workbook attachment.
func (r *Responder) XLSX(c *gin.Context, filename string, table export.Table) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, table); err != nil {
		r.logger.Error("xlsx export failed", zap.String("file", filename), zap.Error(err))
		_ = c.Error(err)
	}
}

func parseID(c *gin.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid record id")
	}
	return id, nil
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperr.Validation("Invalid request body", err.Error())
	}
	return nil
}

func today() string {
	return time.Now().UTC().Format(models.DateLayout)
}
