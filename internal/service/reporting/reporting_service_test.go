package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

type stubUsage struct {
	from, to time.Time
	rows     []models.FeedTypeUsage
}

func (s *stubUsage) UsageByFeedType(_ context.Context, from, to time.Time) ([]models.FeedTypeUsage, error) {
	s.from, s.to = from, to
	return s.rows, nil
}

type stubStocks struct {
	filter models.StockFilter
	rows   []models.FeedStock
}

func (s *stubStocks) ListAll(_ context.Context, f models.StockFilter) ([]models.FeedStock, error) {
	s.filter = f
	return s.rows, nil
}

type memSheet struct {
	rows     [][]interface{}
	appended int
}

func (m *memSheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	m.rows = append(m.rows, rows...)
	m.appended++
	return nil
}

func (m *memSheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return m.rows, nil
}

var monday = time.Date(2025, 1, 13, 7, 0, 0, 0, time.UTC)

func fixtures() (*stubUsage, *stubStocks) {
	usage := &stubUsage{rows: []models.FeedTypeUsage{
		{FeedType: models.FeedGrower, TotalQuantity: 120.5, TotalCost: 60.25, Records: 3},
		{FeedType: models.FeedLayer, TotalQuantity: 700, TotalCost: 350, Records: 7},
	}}
	stocks := &stubStocks{rows: []models.FeedStock{
		{FeedType: models.FeedLayer, Month: "2025-01", CurrentQuantity: 80, Unit: "kg", MinimumThreshold: 100},
	}}
	return usage, stocks
}

func TestWeeklyFeedReport(t *testing.T) {
	usage, stocks := fixtures()
	svc := NewService(usage, stocks, nil, "", nil)

	report, err := svc.WeeklyFeedReport(context.Background(), monday)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), usage.from)
	assert.Equal(t, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), usage.to)
	require.NotNil(t, stocks.filter.LowStock)
	assert.True(t, *stocks.filter.LowStock)
	assert.Equal(t, 820.5, report.TotalQuantity)
	assert.Equal(t, 410.25, report.TotalCost)

	text := Format(report)
	assert.Contains(t, text, "Feed report (2025-01-06-2025-01-12): 820.50 kg consumed, cost 410.25.")
	assert.Contains(t, text, "- Layer Feed: 700.00 kg over 7 records")
	assert.Contains(t, text, "- Layer Feed (2025-01): 80.00 kg left, threshold 100.00")
}

func TestFormatEmptyWeek(t *testing.T) {
	report := &models.WeeklyFeedReport{
		From: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "Feed report (2025-01-06-2025-01-12): no usage recorded.\nStock levels OK.", Format(report))
}

func TestExportToSheetSkipsExportedWeek(t *testing.T) {
	usage, stocks := fixtures()
	sheet := &memSheet{}
	svc := NewService(usage, stocks, sheet, "WeeklyFeed!A:F", nil)

	report, err := svc.WeeklyFeedReport(context.Background(), monday)
	require.NoError(t, err)

	exported, err := svc.ExportToSheet(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, exported)
	require.Len(t, sheet.rows, 2)
	assert.Equal(t, []interface{}{"2025-01-06", "2025-01-12", "Grower Feed", 120.5, 60.25, 3}, sheet.rows[0])

	exported, err = svc.ExportToSheet(context.Background(), report)
	require.NoError(t, err)
	assert.False(t, exported)
	assert.Equal(t, 1, sheet.appended)
}

func TestExportToSheetDisabled(t *testing.T) {
	svc := NewService(&stubUsage{}, &stubStocks{}, nil, "", nil)
	exported, err := svc.ExportToSheet(context.Background(), &models.WeeklyFeedReport{})
	require.NoError(t, err)
	assert.False(t, exported)
}
