// Package automation implements the recurring daily, weekly and monthly
// maintenance passes over feed stock and tasks.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/config"
	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/internal/service/reporting"
)

type StockStore interface {
	Create(ctx context.Context, s *models.FeedStock) error
	FindByTypeAndMonth(ctx context.Context, feedType models.FeedType, month string) (*models.FeedStock, error)
	Update(ctx context.Context, s *models.FeedStock) error
	ListAll(ctx context.Context, f models.StockFilter) ([]models.FeedStock, error)
}

// Transactor runs fn atomically. fn may be retried and must reload what
// it writes.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UsageTotals interface {
	MonthTotals(ctx context.Context, feedType models.FeedType, month string) (models.UsageTotals, error)
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type Reporter interface {
	WeeklyFeedReport(ctx context.Context, now time.Time) (*models.WeeklyFeedReport, error)
	ExportToSheet(ctx context.Context, report *models.WeeklyFeedReport) (bool, error)
}

// Thresholds tunes the daily pass.
type Thresholds struct {
	ExpiryWarningDays   int
	ExpiryCriticalDays  int
	StockoutHorizonDays int
}

func ThresholdsFrom(cfg config.AutomationConfig) Thresholds {
	return Thresholds{
		ExpiryWarningDays:   cfg.ExpiryWarningDays,
		ExpiryCriticalDays:  cfg.ExpiryCriticalDays,
		StockoutHorizonDays: cfg.StockoutHorizonDays,
	}
}

type Service struct {
	stocks   StockStore
	tx       Transactor
	usages   UsageTotals
	tasks    OverdueMarker
	reporter Reporter
	notifier Notifier
	limits   Thresholds
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the automation passes. tx may be nil, in which case the
// rollover writes run without a transaction.
func NewService(stocks StockStore, tx Transactor, usages UsageTotals, tasks OverdueMarker, reporter Reporter, notifier Notifier, limits Thresholds, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Service{
		stocks:   stocks,
		tx:       tx,
		usages:   usages,
		tasks:    tasks,
		reporter: reporter,
		notifier: notifier,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// DailyResult summarises one daily pass.
type DailyResult struct {
	Checked      int            `json:"checked"`
	Updated      int            `json:"updated"`
	Conflicts    int            `json:"conflicts"`
	OverdueTasks int64          `json:"overdueTasks"`
	Alerts       []models.Alert `json:"alerts"`
}

// RunDaily refreshes consumption averages and derived stock state, raises
// stock alerts and marks overdue tasks. Running it twice on the same day
// changes nothing the second time.
func (s *Service) RunDaily(ctx context.Context) (*DailyResult, error) {
	now := s.now().UTC()
	stocks, err := s.stocks.ListAll(ctx, models.StockFilter{
		Status: []models.StockStatus{models.StockActive, models.StockReserved},
	})
	if err != nil {
		return nil, fmt.Errorf("list open stock: %w", err)
	}

	result := &DailyResult{Alerts: []models.Alert{}}
	var errs error
	for i := range stocks {
		stock := &stocks[i]
		result.Checked++

		changed, err := s.refreshStock(ctx, stock, now)
		switch {
		case errors.Is(err, repo.ErrVersionConflict):
			result.Conflicts++
			s.logger.Warn("stock changed during daily refresh, skipped",
				zap.String("feedType", string(stock.FeedType)), zap.String("month", stock.Month))
			continue
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("refresh %s %s: %w", stock.FeedType, stock.Month, err))
			continue
		case changed:
			result.Updated++
		}
		result.Alerts = append(result.Alerts, s.stockAlerts(stock, now)...)
	}

	overdue, err := s.tasks.MarkOverdue(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("mark overdue tasks: %w", err))
	}
	result.OverdueTasks = overdue
	if overdue > 0 {
		result.Alerts = append(result.Alerts, models.Alert{
			Kind:      models.AlertOverdueTask,
			Severity:  models.SeverityWarning,
			Message:   fmt.Sprintf("%d task(s) became overdue", overdue),
			CreatedAt: now,
		})
	}

	if len(result.Alerts) > 0 {
		if err := s.notifier.Notify(ctx, result.Alerts); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify daily alerts: %w", err))
		}
	}

	s.logger.Info("daily automation finished",
		zap.Int("checked", result.Checked),
		zap.Int("updated", result.Updated),
		zap.Int("conflicts", result.Conflicts),
		zap.Int64("overdueTasks", result.OverdueTasks),
		zap.Int("alerts", len(result.Alerts)),
	)
	return result, errs
}

func (s *Service) refreshStock(ctx context.Context, stock *models.FeedStock, now time.Time) (bool, error) {
	totals, err := s.usages.MonthTotals(ctx, stock.FeedType, stock.Month)
	if err != nil {
		return false, err
	}

	before := *stock
	stock.AverageDailyConsumption = totals.AverageDaily()
	stock.Recompute(now)
	if !stockChanged(before, *stock) {
		return false, nil
	}
	stock.UpdatedAt = now
	if err := s.stocks.Update(ctx, stock); err != nil {
		return false, err
	}
	if before.Status != stock.Status {
		s.logger.Info("stock status changed",
			zap.String("feedType", string(stock.FeedType)),
			zap.String("month", stock.Month),
			zap.String("from", string(before.Status)),
			zap.String("to", string(stock.Status)),
		)
	}
	return true, nil
}

func stockChanged(a, b models.FeedStock) bool {
	return a.AverageDailyConsumption != b.AverageDailyConsumption ||
		a.Status != b.Status ||
		a.IsLowStock != b.IsLowStock ||
		a.DaysUntilExpiry != b.DaysUntilExpiry ||
		a.TotalCost != b.TotalCost ||
		a.Year != b.Year
}

func (s *Service) stockAlerts(stock *models.FeedStock, now time.Time) []models.Alert {
	alert := func(kind models.AlertKind, sev models.AlertSeverity, format string, args ...any) models.Alert {
		return models.Alert{
			Kind:      kind,
			Severity:  sev,
			FeedType:  stock.FeedType,
			Month:     stock.Month,
			Message:   fmt.Sprintf("%s (%s): ", stock.FeedType, stock.Month) + fmt.Sprintf(format, args...),
			CreatedAt: now,
		}
	}

	var out []models.Alert
	switch stock.Status {
	case models.StockExpired:
		return append(out, alert(models.AlertExpired, models.SeverityCritical,
			"expired on %s", stock.ExpiryDate.Format(models.DateLayout)))
	case models.StockDepleted:
		return append(out, alert(models.AlertStockout, models.SeverityCritical, "stock depleted"))
	}

	switch {
	case stock.IsCritical():
		out = append(out, alert(models.AlertCriticalStock, models.SeverityCritical,
			"%.2f %s left, critical below %.2f", stock.CurrentQuantity, stock.Unit, stock.MinimumThreshold/2))
	case stock.IsLowStock:
		out = append(out, alert(models.AlertLowStock, models.SeverityWarning,
			"%.2f %s left, threshold %.2f", stock.CurrentQuantity, stock.Unit, stock.MinimumThreshold))
	}

	if !stock.ExpiryDate.IsZero() {
		switch {
		case stock.DaysUntilExpiry <= s.limits.ExpiryCriticalDays:
			out = append(out, alert(models.AlertExpiring, models.SeverityCritical,
				"expires in %d day(s)", stock.DaysUntilExpiry))
		case stock.DaysUntilExpiry <= s.limits.ExpiryWarningDays:
			out = append(out, alert(models.AlertExpiring, models.SeverityWarning,
				"expires in %d day(s)", stock.DaysUntilExpiry))
		}
	}

	if days, ok := stock.DaysOfStockLeft(); ok && days <= float64(s.limits.StockoutHorizonDays) {
		stockout := now.Add(time.Duration(math.Floor(days*24)) * time.Hour)
		out = append(out, alert(models.AlertStockout, models.SeverityWarning,
			"projected to run out on %s at %.2f %s/day", stockout.Format(models.DateLayout), stock.AverageDailyConsumption, stock.Unit))
	}
	return out
}

// WeeklyResult summarises one weekly pass.
type WeeklyResult struct {
	Report   *models.WeeklyFeedReport `json:"report"`
	Exported bool                     `json:"exported"`
}

// RunWeekly builds the weekly feed report, sends it to the notifier and
// appends it to the spreadsheet when one is configured.
func (s *Service) RunWeekly(ctx context.Context) (*WeeklyResult, error) {
	now := s.now().UTC()
	report, err := s.reporter.WeeklyFeedReport(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &WeeklyResult{Report: report}
	var errs error
	msg := models.Alert{
		Kind:      models.AlertReport,
		Severity:  models.SeverityInfo,
		Message:   reporting.Format(report),
		CreatedAt: now,
	}
	if err := s.notifier.Notify(ctx, []models.Alert{msg}); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("send weekly report: %w", err))
	}
	exported, err := s.reporter.ExportToSheet(ctx, report)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	result.Exported = exported

	s.logger.Info("weekly automation finished",
		zap.Float64("totalQuantity", report.TotalQuantity),
		zap.Int("lowStock", len(report.LowStock)),
		zap.Bool("exported", exported),
	)
	return result, errs
}

// MonthlyResult summarises one rollover.
type MonthlyResult struct {
	From    string             `json:"from"`
	To      string             `json:"to"`
	Opened  []models.FeedStock `json:"opened"`
	Skipped int                `json:"skipped"`
}

// RunMonthly moves the remaining stock of every previous-month bucket into
// a bucket for the current month. The previous bucket is emptied in the
// same transaction so the quantity is only ever counted once. Feed types
// that already have a current-month bucket are left alone.
func (s *Service) RunMonthly(ctx context.Context) (*MonthlyResult, error) {
	now := s.now().UTC()
	to := models.MonthOf(now)
	from := models.MonthOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))

	previous, err := s.stocks.ListAll(ctx, models.StockFilter{Month: from})
	if err != nil {
		return nil, fmt.Errorf("list %s stock: %w", from, err)
	}

	result := &MonthlyResult{From: from, To: to, Opened: []models.FeedStock{}}
	var errs error
	for _, old := range previous {
		if !carriable(old) {
			result.Skipped++
			continue
		}

		opened, err := s.rollOver(ctx, old.FeedType, from, to, now)
		switch {
		case err == nil:
			result.Opened = append(result.Opened, *opened)
		case errors.Is(err, errNothingToCarry), errors.Is(err, repo.ErrDuplicate):
			result.Skipped++
		default:
			errs = multierr.Append(errs, fmt.Errorf("roll over %s %s: %w", old.FeedType, from, err))
		}
	}

	s.logger.Info("monthly rollover finished",
		zap.String("from", from), zap.String("to", to),
		zap.Int("opened", len(result.Opened)), zap.Int("skipped", result.Skipped))
	return result, errs
}

var errNothingToCarry = errors.New("nothing to carry over")

func carriable(s models.FeedStock) bool {
	return s.CurrentQuantity > 0 && s.Status != models.StockExpired
}

func (s *Service) rollOver(ctx context.Context, feedType models.FeedType, from, to string, now time.Time) (*models.FeedStock, error) {
	var opened models.FeedStock
	err := s.transact(ctx, func(ctx context.Context) error {
		old, err := s.stocks.FindByTypeAndMonth(ctx, feedType, from)
		if err != nil {
			return err
		}
		if !carriable(*old) {
			return errNothingToCarry
		}

		opened = carryOver(*old, to, now)
		if err := s.stocks.Create(ctx, &opened); err != nil {
			return err
		}
		closeCarried(old, to, now)
		return s.stocks.Update(ctx, old)
	})
	if err != nil {
		return nil, err
	}
	return &opened, nil
}

func (s *Service) transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithTransaction(ctx, fn)
}

func carryOver(old models.FeedStock, month string, now time.Time) models.FeedStock {
	next := models.FeedStock{
		FeedType:         old.FeedType,
		Month:            month,
		BaselineQuantity: old.CurrentQuantity,
		CurrentQuantity:  old.CurrentQuantity,
		Unit:             old.Unit,
		Supplier:         old.Supplier,
		SupplierContact:  old.SupplierContact,
		CostPerUnit:      old.CostPerUnit,
		MinimumThreshold: old.MinimumThreshold,
		ExpiryDate:       old.ExpiryDate,
		BatchNumber:      old.BatchNumber,
		Notes:            fmt.Sprintf("Carried over from %s", old.Month),
		LastRestocked:    old.LastRestocked,
		Status:           models.StockActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	next.Recompute(now)
	return next
}

// closeCarried empties a bucket whose stock moved to month; Recompute
// marks it Depleted.
func closeCarried(s *models.FeedStock, month string, now time.Time) {
	note := "Carried over to " + month
	if s.Notes != "" {
		note = s.Notes + "; " + note
	}
	s.Notes = note
	s.CurrentQuantity = 0
	s.UpdatedAt = now
	s.Recompute(now)
}
