// Package reporting builds the weekly feed report and publishes it to the
// optional Google Sheets ledger.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/repository/sheets"
)

const reportDays = 7

type UsageReader interface {
	UsageByFeedType(ctx context.Context, from, to time.Time) ([]models.FeedTypeUsage, error)
}

type StockReader interface {
	ListAll(ctx context.Context, f models.StockFilter) ([]models.FeedStock, error)
}

// Service builds feed reports from Mongo aggregates.
type Service struct {
	usages     UsageReader
	stocks     StockReader
	sheet      sheets.Repository
	sheetRange string
	logger     *zap.Logger
}

// NewService wires a reporting service. sheet may be nil when the Sheets
// export is not configured.
func NewService(usages UsageReader, stocks StockReader, sheet sheets.Repository, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{usages: usages, stocks: stocks, sheet: sheet, sheetRange: sheetRange, logger: logger}
}

// WeeklyFeedReport covers the seven full days before now.
func (s *Service) WeeklyFeedReport(ctx context.Context, now time.Time) (*models.WeeklyFeedReport, error) {
	to := models.StartOfDay(now).AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -(reportDays - 1))

	usage, err := s.usages.UsageByFeedType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load weekly usage: %w", err)
	}

	lowStock := true
	low, err := s.stocks.ListAll(ctx, models.StockFilter{
		Status:   []models.StockStatus{models.StockActive, models.StockReserved},
		LowStock: &lowStock,
	})
	if err != nil {
		return nil, fmt.Errorf("load low stock: %w", err)
	}

	report := &models.WeeklyFeedReport{
		From:      from,
		To:        to,
		Usage:     usage,
		LowStock:  low,
		CreatedAt: now.UTC(),
	}
	for _, u := range usage {
		report.TotalQuantity += u.TotalQuantity
		report.TotalCost += u.TotalCost
	}
	report.TotalQuantity = models.Round(report.TotalQuantity, 3)
	report.TotalCost = models.Round(report.TotalCost, 2)
	return report, nil
}

// Format renders report as a short plain-text message.
func Format(report *models.WeeklyFeedReport) string {
	period := fmt.Sprintf("%s-%s", report.From.Format(models.DateLayout), report.To.Format(models.DateLayout))

	var b strings.Builder
	if len(report.Usage) == 0 {
		fmt.Fprintf(&b, "Feed report (%s): no usage recorded.", period)
	} else {
		fmt.Fprintf(&b, "Feed report (%s): %.2f kg consumed, cost %.2f.", period, report.TotalQuantity, report.TotalCost)
		for _, u := range report.Usage {
			fmt.Fprintf(&b, "\n- %s: %.2f kg over %d records", u.FeedType, u.TotalQuantity, u.Records)
		}
	}

	if len(report.LowStock) == 0 {
		b.WriteString("\nStock levels OK.")
		return b.String()
	}
	b.WriteString("\nLow stock:")
	for _, st := range report.LowStock {
		fmt.Fprintf(&b, "\n- %s (%s): %.2f %s left, threshold %.2f", st.FeedType, st.Month, st.CurrentQuantity, st.Unit, st.MinimumThreshold)
	}
	return b.String()
}

// ExportToSheet appends one row per feed type. Weeks already present in the
// sheet are skipped so reruns do not duplicate rows.
func (s *Service) ExportToSheet(ctx context.Context, report *models.WeeklyFeedReport) (bool, error) {
	if s.sheet == nil {
		return false, nil
	}

	rows, err := s.sheet.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return false, fmt.Errorf("load report range: %w", err)
	}
	from := report.From.Format(models.DateLayout)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		day, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip report row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if day.Format(models.DateLayout) == from {
			s.logger.Info("weekly report already exported", zap.String("from", from))
			return false, nil
		}
	}

	to := report.To.Format(models.DateLayout)
	out := make([][]interface{}, 0, len(report.Usage)+1)
	for _, u := range report.Usage {
		out = append(out, []interface{}{from, to, string(u.FeedType), u.TotalQuantity, u.TotalCost, u.Records})
	}
	if len(out) == 0 {
		out = append(out, []interface{}{from, to, "none", 0, 0, 0})
	}

	if err := s.sheet.AppendRows(ctx, s.sheetRange, out); err != nil {
		return false, fmt.Errorf("append weekly report: %w", err)
	}
	return true, nil
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(models.DateLayout, str)
}
