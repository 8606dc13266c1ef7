package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

// queryParser collects every malformed query parameter so a request gets
// one validation error listing all of them.
type queryParser struct {
	c       *gin.Context
	invalid []string
}

func newQueryParser(c *gin.Context) *queryParser {
	return &queryParser{c: c}
}

func (p *queryParser) err() error {
	if len(p.invalid) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(p.invalid))
	details := make([]string, 0, len(p.invalid))
	for _, msg := range p.invalid {
		if !seen[msg] {
			seen[msg] = true
			details = append(details, msg)
		}
	}
	return apperr.Validation("Invalid query parameters", details...)
}

func (p *queryParser) str(key string) string {
	return strings.TrimSpace(p.c.Query(key))
}

func (p *queryParser) integer(key string) int {
	raw := p.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.invalid = append(p.invalid, key+" must be a non-negative integer")
		return 0
	}
	return n
}

func (p *queryParser) boolean(key string) *bool {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.invalid = append(p.invalid, key+" must be true or false")
		return nil
	}
	return &b
}

func (p *queryParser) day(key string) *time.Time {
	raw := p.str(key)
	if raw == "" {
		return nil
	}
	t, err := models.ParseDay(raw)
	if err != nil {
		p.invalid = append(p.invalid, key+" must be a date (YYYY-MM-DD)")
		return nil
	}
	return &t
}

func (p *queryParser) month(key string) string {
	raw := p.str(key)
	if raw != "" && !models.ValidMonth(raw) {
		p.invalid = append(p.invalid, key+" must be in YYYY-MM format")
		return ""
	}
	return raw
}

func (p *queryParser) feedType(key string) models.FeedType {
	raw := models.FeedType(p.str(key))
	if raw != "" && !raw.Valid() {
		p.invalid = append(p.invalid, key+" must be a known feed type")
		return ""
	}
	return raw
}

func (p *queryParser) oneOf(key string, allowed ...string) string {
	raw := p.str(key)
	if raw == "" {
		return ""
	}
	for _, a := range allowed {
		if strings.EqualFold(raw, a) {
			return a
		}
	}
	p.invalid = append(p.invalid, fmt.Sprintf("%s must be one of: %s", key, strings.Join(allowed, ", ")))
	return ""
}

// list reads page, limit, sortBy, sortOrder, startDate and endDate.
func (p *queryParser) list() models.ListQuery {
	q := models.ListQuery{
		Page:      p.integer("page"),
		Limit:     p.integer("limit"),
		SortBy:    p.str("sortBy"),
		SortDesc:  p.oneOf("sortOrder", "asc", "desc") != "asc",
		StartDate: p.day("startDate"),
		EndDate:   p.day("endDate"),
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		p.invalid = append(p.invalid, "endDate must not be before startDate")
	}
	q.Normalize()
	return q
}

func (p *queryParser) stockFilter() models.StockFilter {
	f := models.StockFilter{
		FeedType: p.feedType("feedType"),
		Month:    p.month("month"),
		Year:     p.integer("year"),
		LowStock: p.boolean("lowStock"),
	}
	if status := p.oneOf("status", "Active", "Depleted", "Expired", "Reserved"); status != "" {
		f.Status = []models.StockStatus{models.StockStatus(status)}
	}
	return f
}

func (p *queryParser) usageFilter() models.UsageFilter {
	return models.UsageFilter{
		FeedType:   p.feedType("feedType"),
		Month:      p.month("month"),
		From:       p.day("startDate"),
		To:         p.day("endDate"),
		RecordedBy: p.str("recordedBy"),
		Verified:   p.boolean("isVerified"),
	}
}

func (p *queryParser) eggFilter() models.EggFilter {
	return models.EggFilter{
		House: p.str("house"),
		From:  p.day("startDate"),
		To:    p.day("endDate"),
	}
}

func (p *queryParser) orderFilter() models.OrderFilter {
	return models.OrderFilter{
		Status:        models.OrderStatus(p.oneOf("status", "Pending", "Confirmed", "Delivered", "Cancelled")),
		PaymentStatus: models.PaymentStatus(p.oneOf("paymentStatus", "Pending", "Partial", "Paid")),
		Customer:      p.str("customer"),
		From:          p.day("startDate"),
		To:            p.day("endDate"),
	}
}

func (p *queryParser) taskFilter() models.TaskFilter {
	f := models.TaskFilter{
		Priority:   models.TaskPriority(p.oneOf("priority", "Low", "Medium", "High", "Urgent")),
		Category:   p.str("category"),
		AssignedTo: p.str("assignedTo"),
	}
	if status := p.oneOf("status", "Pending", "In Progress", "Completed", "Cancelled", "Overdue"); status != "" {
		f.Status = []models.TaskStatus{models.TaskStatus(status)}
	}
	return f
}

func (p *queryParser) financeFilter() models.FinanceFilter {
	return models.FinanceFilter{
		Type:     models.RecordType(p.oneOf("type", "Income", "Expense")),
		Category: p.str("category"),
		From:     p.day("startDate"),
		To:       p.day("endDate"),
	}
}
