package automation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/clients/whatsapp"
)

type memStocks struct {
	byKey       map[string]models.FeedStock
	updateHook  func(s *models.FeedStock) error
	updateCalls int
}

func newMemStocks(stocks ...models.FeedStock) *memStocks {
	m := &memStocks{byKey: map[string]models.FeedStock{}}
	for _, s := range stocks {
		s.ID = primitive.NewObjectID()
		s.Version = 1
		m.byKey[key(s.FeedType, s.Month)] = s
	}
	return m
}

// memTx restores the store when fn fails.
type memTx struct{ m *memStocks }

func (tx memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := make(map[string]models.FeedStock, len(tx.m.byKey))
	for k, v := range tx.m.byKey {
		saved[k] = v
	}
	if err := fn(ctx); err != nil {
		tx.m.byKey = saved
		return err
	}
	return nil
}

func (m *memStocks) activeQuantity(feedType models.FeedType) float64 {
	var total float64
	for _, s := range m.byKey {
		if s.FeedType == feedType && s.Status == models.StockActive {
			total += s.CurrentQuantity
		}
	}
	return total
}

func key(feedType models.FeedType, month string) string { return string(feedType) + "|" + month }

func (m *memStocks) Create(_ context.Context, s *models.FeedStock) error {
	if _, ok := m.byKey[key(s.FeedType, s.Month)]; ok {
		return repo.ErrDuplicate
	}
	s.ID = primitive.NewObjectID()
	s.Version = 1
	m.byKey[key(s.FeedType, s.Month)] = *s
	return nil
}

func (m *memStocks) FindByTypeAndMonth(_ context.Context, feedType models.FeedType, month string) (*models.FeedStock, error) {
	s, ok := m.byKey[key(feedType, month)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &s, nil
}

func (m *memStocks) Update(_ context.Context, s *models.FeedStock) error {
	m.updateCalls++
	if m.updateHook != nil {
		if err := m.updateHook(s); err != nil {
			return err
		}
	}
	stored, ok := m.byKey[key(s.FeedType, s.Month)]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Version != s.Version {
		return repo.ErrVersionConflict
	}
	s.Version++
	m.byKey[key(s.FeedType, s.Month)] = *s
	return nil
}

func (m *memStocks) ListAll(_ context.Context, f models.StockFilter) ([]models.FeedStock, error) {
	var out []models.FeedStock
	for _, s := range m.byKey {
		if f.Month != "" && s.Month != f.Month {
			continue
		}
		if len(f.Status) > 0 && !containsStatus(f.Status, s.Status) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func containsStatus(list []models.StockStatus, s models.StockStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type stubUsage map[string]models.UsageTotals

func (u stubUsage) MonthTotals(_ context.Context, feedType models.FeedType, month string) (models.UsageTotals, error) {
	return u[key(feedType, month)], nil
}

type stubTasks struct{ overdue int64 }

func (t stubTasks) MarkOverdue(context.Context) (int64, error) { return t.overdue, nil }

type stubReporter struct {
	report    *models.WeeklyFeedReport
	exportErr error
}

func (r *stubReporter) WeeklyFeedReport(context.Context, time.Time) (*models.WeeklyFeedReport, error) {
	return r.report, nil
}

func (r *stubReporter) ExportToSheet(context.Context, *models.WeeklyFeedReport) (bool, error) {
	return r.exportErr == nil, r.exportErr
}

type recordingNotifier struct {
	batches [][]models.Alert
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, alerts []models.Alert) error {
	n.batches = append(n.batches, alerts)
	return n.err
}

var limits = Thresholds{ExpiryWarningDays: 30, ExpiryCriticalDays: 7, StockoutHorizonDays: 14}

func newTestService(stocks *memStocks, usage stubUsage, tasks stubTasks, reporter Reporter, notifier Notifier, now time.Time) *Service {
	svc := NewService(stocks, memTx{stocks}, usage, tasks, reporter, notifier, limits, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func jan10() time.Time { return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC) }

func dailyFixtures() *memStocks {
	return newMemStocks(
		models.FeedStock{
			FeedType: models.FeedLayer, Month: "2025-01", BaselineQuantity: 1000, CurrentQuantity: 400,
			Unit: "kg", CostPerUnit: 2, MinimumThreshold: 500, Status: models.StockActive,
			ExpiryDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		models.FeedStock{
			FeedType: models.FeedGrower, Month: "2025-01", BaselineQuantity: 1000, CurrentQuantity: 1000,
			Unit: "kg", CostPerUnit: 1, MinimumThreshold: 100, Status: models.StockActive,
			ExpiryDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	)
}

func alertKinds(alerts []models.Alert) []models.AlertKind {
	out := make([]models.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestRunDailyRefreshesStockAndRaisesAlerts(t *testing.T) {
	stocks := dailyFixtures()
	usage := stubUsage{key(models.FeedLayer, "2025-01"): {Quantity: 600, Days: 2}}
	notifier := &recordingNotifier{}
	svc := newTestService(stocks, usage, stubTasks{overdue: 2}, nil, notifier, jan10())

	result, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Updated)
	assert.EqualValues(t, 2, result.OverdueTasks)

	layer := stocks.byKey[key(models.FeedLayer, "2025-01")]
	assert.Equal(t, 300.0, layer.AverageDailyConsumption)
	assert.True(t, layer.IsLowStock)
	assert.Equal(t, 5, layer.DaysUntilExpiry)
	assert.Equal(t, models.StockExpired, stocks.byKey[key(models.FeedGrower, "2025-01")].Status)

	assert.ElementsMatch(t, []models.AlertKind{
		models.AlertLowStock, models.AlertExpiring, models.AlertStockout, models.AlertExpired, models.AlertOverdueTask,
	}, alertKinds(result.Alerts))
	for _, a := range result.Alerts {
		if a.Kind == models.AlertStockout {
			assert.Contains(t, a.Message, "projected to run out on 2025-01-11")
		}
		if a.Kind == models.AlertExpiring {
			assert.Equal(t, models.SeverityCritical, a.Severity)
		}
	}
	require.Len(t, notifier.batches, 1)
}

func TestRunDailyIsIdempotent(t *testing.T) {
	stocks := dailyFixtures()
	usage := stubUsage{key(models.FeedLayer, "2025-01"): {Quantity: 600, Days: 2}}
	svc := newTestService(stocks, usage, stubTasks{}, nil, &recordingNotifier{}, jan10())

	_, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	calls := stocks.updateCalls

	result, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Zero(t, result.Updated)
	assert.Equal(t, calls, stocks.updateCalls)
}

func TestRunDailySkipsConflictingStock(t *testing.T) {
	stocks := dailyFixtures()
	stocks.updateHook = func(s *models.FeedStock) error {
		if s.FeedType == models.FeedLayer {
			return repo.ErrVersionConflict
		}
		return nil
	}
	svc := newTestService(stocks, stubUsage{}, stubTasks{}, nil, &recordingNotifier{}, jan10())

	result, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Updated)
}

func TestRunDailyReportsNotifierFailure(t *testing.T) {
	svc := newTestService(dailyFixtures(), stubUsage{}, stubTasks{}, nil, &recordingNotifier{err: errors.New("offline")}, jan10())

	result, err := svc.RunDaily(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify daily alerts")
	assert.Equal(t, 2, result.Updated)
}

func TestRunWeeklySendsAndExports(t *testing.T) {
	reporter := &stubReporter{report: &models.WeeklyFeedReport{
		From: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
	}}
	notifier := &recordingNotifier{}
	svc := newTestService(newMemStocks(), stubUsage{}, stubTasks{}, reporter, notifier, jan10())

	result, err := svc.RunWeekly(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Exported)
	require.Len(t, notifier.batches, 1)
	msg := notifier.batches[0][0]
	assert.Equal(t, models.AlertReport, msg.Kind)
	assert.True(t, strings.HasPrefix(msg.Message, "Feed report (2025-01-06-2025-01-12)"))
}

func TestRunWeeklyExportFailureStillNotifies(t *testing.T) {
	reporter := &stubReporter{report: &models.WeeklyFeedReport{}, exportErr: errors.New("sheets quota")}
	notifier := &recordingNotifier{}
	svc := newTestService(newMemStocks(), stubUsage{}, stubTasks{}, reporter, notifier, jan10())

	_, err := svc.RunWeekly(context.Background())
	assert.EqualError(t, err, "sheets quota")
	assert.Len(t, notifier.batches, 1)
}

func TestRunMonthlyCarriesRemainingStock(t *testing.T) {
	stocks := newMemStocks(
		models.FeedStock{FeedType: models.FeedLayer, Month: "2025-01", CurrentQuantity: 300, MinimumThreshold: 100, CostPerUnit: 2, Unit: "kg", Status: models.StockActive, Supplier: "Agro"},
		models.FeedStock{FeedType: models.FeedGrower, Month: "2025-01", CurrentQuantity: 0, Status: models.StockDepleted},
		models.FeedStock{FeedType: models.FeedStarter, Month: "2025-01", CurrentQuantity: 50, Status: models.StockActive},
		models.FeedStock{FeedType: models.FeedStarter, Month: "2025-02", CurrentQuantity: 500, Status: models.StockActive},
		models.FeedStock{FeedType: models.FeedChickMash, Month: "2025-01", CurrentQuantity: 80, Status: models.StockExpired},
	)
	svc := newTestService(stocks, stubUsage{}, stubTasks{}, nil, &recordingNotifier{}, time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC))
	before := stocks.activeQuantity(models.FeedLayer)

	result, err := svc.RunMonthly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, stocks.activeQuantity(models.FeedLayer))
	assert.Equal(t, "2025-01", result.From)
	assert.Equal(t, "2025-02", result.To)
	require.Len(t, result.Opened, 1)
	assert.Equal(t, 3, result.Skipped)

	opened := stocks.byKey[key(models.FeedLayer, "2025-02")]
	assert.Equal(t, 300.0, opened.BaselineQuantity)
	assert.Equal(t, 300.0, opened.CurrentQuantity)
	assert.Equal(t, 600.0, opened.TotalCost)
	assert.Equal(t, 2025, opened.Year)
	assert.Equal(t, "Agro", opened.Supplier)
	assert.Equal(t, "Carried over from 2025-01", opened.Notes)
	assert.Equal(t, models.StockActive, opened.Status)

	closed := stocks.byKey[key(models.FeedLayer, "2025-01")]
	assert.Zero(t, closed.CurrentQuantity)
	assert.Zero(t, closed.TotalCost)
	assert.Equal(t, models.StockDepleted, closed.Status)
	assert.Equal(t, "Carried over to 2025-02", closed.Notes)
	assert.EqualValues(t, 2, closed.Version)

	again, err := svc.RunMonthly(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Opened)
	assert.Equal(t, 4, again.Skipped)
}

func TestRunMonthlyRollsBackWhenSourceChanged(t *testing.T) {
	stocks := newMemStocks(
		models.FeedStock{FeedType: models.FeedLayer, Month: "2025-01", CurrentQuantity: 300, MinimumThreshold: 100, Status: models.StockActive, Notes: "batch A"},
	)
	stocks.updateHook = func(*models.FeedStock) error { return repo.ErrVersionConflict }
	svc := newTestService(stocks, stubUsage{}, stubTasks{}, nil, &recordingNotifier{}, time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC))

	result, err := svc.RunMonthly(context.Background())
	require.ErrorIs(t, err, repo.ErrVersionConflict)
	assert.Empty(t, result.Opened)

	_, ok := stocks.byKey[key(models.FeedLayer, "2025-02")]
	assert.False(t, ok)
	assert.Equal(t, 300.0, stocks.byKey[key(models.FeedLayer, "2025-01")].CurrentQuantity)

	stocks.updateHook = nil
	result, err = svc.RunMonthly(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Opened, 1)
	assert.Equal(t, 300.0, stocks.activeQuantity(models.FeedLayer))
	assert.Equal(t, "batch A; Carried over to 2025-02", stocks.byKey[key(models.FeedLayer, "2025-01")].Notes)
}

type stubWhatsApp struct {
	req whatsapp.SendTextMessageRequest
	err error
}

func (s *stubWhatsApp) SendTextMessage(_ context.Context, req whatsapp.SendTextMessageRequest) (*whatsapp.SendTextMessageResponse, error) {
	s.req = req
	return &whatsapp.SendTextMessageResponse{}, s.err
}

func TestWhatsAppNotifierJoinsAlerts(t *testing.T) {
	client := &stubWhatsApp{}
	n := NewWhatsAppNotifier(client, "224620000000")

	err := n.Notify(context.Background(), []models.Alert{
		{Severity: models.SeverityWarning, Message: "Layer Feed (2025-01): low"},
		{Severity: models.SeverityInfo, Message: "Feed report"},
	})
	require.NoError(t, err)
	assert.Equal(t, "224620000000", client.req.To)
	assert.Equal(t, "[WARNING] Layer Feed (2025-01): low\nFeed report", client.req.Body)
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	a := &recordingNotifier{err: errors.New("a down")}
	b := &recordingNotifier{err: errors.New("b down")}
	c := &recordingNotifier{}

	err := MultiNotifier{a, NewLogNotifier(nil), b, c}.Notify(context.Background(), []models.Alert{{Message: "x"}})
	assert.Len(t, multierr.Errors(err), 2)
	assert.Len(t, c.batches, 1)
}

func TestJobsNames(t *testing.T) {
	svc := newTestService(newMemStocks(), stubUsage{}, stubTasks{}, nil, nil, jan10())
	var names []string
	for _, j := range svc.Jobs() {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{JobDaily, JobWeekly, JobMonthly}, names)
}
