package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/export"
)

const usageEntity = "Feed usage record"

// UsageInput is the payload of a usage creation.
type UsageInput struct {
	FeedType     models.FeedType            `json:"feedType" validate:"required,feedtype"`
	Date         string                     `json:"date" validate:"required,day"`
	QuantityUsed float64                    `json:"quantityUsed" validate:"required,gt=0"`
	TotalBirds   int                        `json:"totalBirds,omitempty" validate:"gte=0"`
	RecordedBy   string                     `json:"recordedBy" validate:"required"`
	Quality      *models.QualityObservation `json:"quality,omitempty"`
	Health       *models.HealthObservation  `json:"health,omitempty"`
	Environment  *models.EnvironmentReading `json:"environment,omitempty"`
	Notes        string                     `json:"notes,omitempty"`
}

// UsageUpdate is a partial update. Feed type and date identify the stock
// bucket and may only be repeated unchanged.
type UsageUpdate struct {
	FeedType     *models.FeedType           `json:"feedType,omitempty"`
	Date         *string                    `json:"date,omitempty" validate:"omitempty,day"`
	QuantityUsed *float64                   `json:"quantityUsed,omitempty" validate:"omitempty,gt=0"`
	TotalBirds   *int                       `json:"totalBirds,omitempty" validate:"omitempty,gte=0"`
	RecordedBy   *string                    `json:"recordedBy,omitempty" validate:"omitempty,min=1"`
	Quality      *models.QualityObservation `json:"quality,omitempty"`
	Health       *models.HealthObservation  `json:"health,omitempty"`
	Environment  *models.EnvironmentReading `json:"environment,omitempty"`
	Notes        *string                    `json:"notes,omitempty"`
}

type VerifyInput struct {
	VerifiedBy string `json:"verifiedBy" validate:"required"`
}

// RecordUsage stores a usage row and deducts it from the Active bucket of
// its month in one transaction.
func (s *Service) RecordUsage(ctx context.Context, in UsageInput) (*models.FeedUsage, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	day, _ := models.ParseDay(in.Date)
	month := models.MonthOf(day)

	var saved *models.FeedUsage
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.usages.FindByTypeAndDate(ctx, in.FeedType, day)
		switch {
		case err == nil:
			return alreadyRecorded()
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		stock, err := s.stocks.FindByTypeAndMonth(ctx, in.FeedType, month)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && stock.Status != models.StockActive) {
			return apperr.Newf(apperr.CodeDomainRule, "No active stock found for %s in %s", in.FeedType, month)
		}
		if err != nil {
			return err
		}
		if in.QuantityUsed > stock.CurrentQuantity {
			return insufficientStock(stock, in.QuantityUsed)
		}

		now := s.now().UTC()
		usage := &models.FeedUsage{
			FeedType:     in.FeedType,
			Date:         day,
			QuantityUsed: in.QuantityUsed,
			TotalBirds:   in.TotalBirds,
			CostAnalysis: models.CostAnalysis{CostPerKg: stock.CostPerUnit},
			Quality:      in.Quality,
			Health:       in.Health,
			Environment:  in.Environment,
			RecordedBy:   in.RecordedBy,
			Notes:        in.Notes,
			StockID:      stock.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		usage.Derive()
		if err := s.usages.Create(ctx, usage); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return alreadyRecorded()
			}
			return err
		}

		stock.CurrentQuantity -= usage.QuantityUsed
		totals, err := s.usages.MonthTotals(ctx, stock.FeedType, stock.Month)
		if err != nil {
			return fmt.Errorf("usage totals: %w", err)
		}
		stock.AverageDailyConsumption = totals.AverageDaily()
		stock.UpdatedAt = now
		stock.Recompute(now)
		if err := s.stocks.Update(ctx, stock); err != nil {
			return err
		}
		saved = usage
		return nil
	})
	if err != nil {
		return nil, storeError(err, usageEntity)
	}

	s.logger.Info("feed usage recorded",
		zap.String("feed_type", string(saved.FeedType)),
		zap.String("date", saved.Date.Format(models.DateLayout)),
		zap.Float64("quantity", saved.QuantityUsed),
	)
	return saved, nil
}

// UpdateUsage edits a usage row; a quantity change is applied inversely to
// the bucket of the row's month.
func (s *Service) UpdateUsage(ctx context.Context, id primitive.ObjectID, in UsageUpdate) (*models.FeedUsage, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	var saved *models.FeedUsage
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		usage, err := s.usages.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkIdentityUnchanged(usage, in); err != nil {
			return err
		}

		now := s.now().UTC()
		if in.QuantityUsed != nil && *in.QuantityUsed != usage.QuantityUsed {
			if err := s.applyDelta(ctx, usage, models.Round(*in.QuantityUsed-usage.QuantityUsed, 3), now); err != nil {
				return err
			}
			usage.QuantityUsed = *in.QuantityUsed
		}
		applyUsageUpdate(usage, in)
		usage.UpdatedAt = now
		usage.Derive()
		if err := s.usages.Update(ctx, usage); err != nil {
			return err
		}
		saved = usage
		return nil
	})
	if err != nil {
		return nil, storeError(err, usageEntity)
	}
	return saved, nil
}

// applyDelta takes delta more feed from the bucket (or returns -delta).
func (s *Service) applyDelta(ctx context.Context, usage *models.FeedUsage, delta float64, now time.Time) error {
	stock, err := s.stocks.FindByTypeAndMonth(ctx, usage.FeedType, usage.Month)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.Newf(apperr.CodeDomainRule, "Stock record not found for %s in %s", usage.FeedType, usage.Month)
	}
	if err != nil {
		return err
	}
	if delta > stock.CurrentQuantity {
		return apperr.Newf(apperr.CodeDomainRule,
			"Insufficient stock for this increase. Available: %s %s, additional requested: %s %s (short by %s %s)",
			formatQty(stock.CurrentQuantity), stock.Unit,
			formatQty(delta), stock.Unit,
			formatQty(models.Round(delta-stock.CurrentQuantity, 3)), stock.Unit,
		)
	}

	stock.CurrentQuantity -= delta
	stock.UpdatedAt = now
	stock.Recompute(now)
	return s.stocks.Update(ctx, stock)
}

func checkIdentityUnchanged(usage *models.FeedUsage, in UsageUpdate) error {
	if in.FeedType != nil && *in.FeedType != usage.FeedType {
		return apperr.Validation("Feed type of a usage record cannot be changed; delete and record it again",
			"feedType cannot be changed")
	}
	if in.Date != nil {
		day, _ := models.ParseDay(*in.Date)
		if !day.Equal(usage.Date) {
			return apperr.Validation("Date of a usage record cannot be changed; delete and record it again",
				"date cannot be changed")
		}
	}
	return nil
}

func applyUsageUpdate(usage *models.FeedUsage, in UsageUpdate) {
	if in.TotalBirds != nil {
		usage.TotalBirds = *in.TotalBirds
	}
	if in.RecordedBy != nil {
		usage.RecordedBy = *in.RecordedBy
	}
	if in.Quality != nil {
		usage.Quality = in.Quality
	}
	if in.Health != nil {
		usage.Health = in.Health
	}
	if in.Environment != nil {
		usage.Environment = in.Environment
	}
	if in.Notes != nil {
		usage.Notes = *in.Notes
	}
}

// DeleteUsage removes a usage row and returns its quantity to the bucket
// of its month, whatever that bucket's status.
func (s *Service) DeleteUsage(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	var deleted *models.FeedUsage
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		usage, err := s.usages.GetByID(ctx, id)
		if err != nil {
			return err
		}

		stock, err := s.stocks.FindByTypeAndMonth(ctx, usage.FeedType, usage.Month)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			s.logger.Warn("no stock bucket to restore usage into",
				zap.String("feed_type", string(usage.FeedType)), zap.String("month", usage.Month))
		case err != nil:
			return err
		default:
			now := s.now().UTC()
			stock.CurrentQuantity += usage.QuantityUsed
			stock.UpdatedAt = now
			stock.Recompute(now)
			if err := s.stocks.Update(ctx, stock); err != nil {
				return err
			}
		}

		if _, err := s.usages.Delete(ctx, id); err != nil {
			return err
		}
		deleted = usage
		return nil
	})
	if err != nil {
		return nil, storeError(err, usageEntity)
	}

	s.logger.Info("feed usage deleted", zap.String("usage_id", id.Hex()), zap.Float64("restored", deleted.QuantityUsed))
	return deleted, nil
}

func (s *Service) VerifyUsage(ctx context.Context, id primitive.ObjectID, in VerifyInput) (*models.FeedUsage, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	usage, err := s.usages.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, usageEntity)
	}

	now := s.now().UTC()
	usage.IsVerified = true
	usage.VerifiedBy = in.VerifiedBy
	usage.VerifiedAt = &now
	usage.UpdatedAt = now
	if err := s.usages.Update(ctx, usage); err != nil {
		return nil, storeError(err, usageEntity)
	}
	return usage, nil
}

func (s *Service) GetUsage(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	usage, err := s.usages.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, usageEntity)
	}
	return usage, nil
}

func (s *Service) ListUsages(ctx context.Context, f models.UsageFilter, q models.ListQuery) (models.Page[models.FeedUsage], error) {
	page, err := s.usages.List(ctx, f, q)
	if err != nil {
		return page, storeError(err, usageEntity)
	}
	return page, nil
}

func (s *Service) UsageSummary(ctx context.Context, f models.UsageFilter) (*models.UsageSummary, error) {
	summary, err := s.usages.Summary(ctx, f)
	if err != nil {
		return nil, storeError(err, usageEntity)
	}
	return summary, nil
}

// ExportUsages returns the rows matched by f as an export table.
func (s *Service) ExportUsages(ctx context.Context, f models.UsageFilter) (export.Table, error) {
	rows, err := s.usages.ListAll(ctx, f)
	if err != nil {
		return export.Table{}, storeError(err, usageEntity)
	}

	table := export.Table{
		Sheet: "Feed Usage",
		Headers: []string{"Date", "Feed Type", "Quantity Used", "Total Birds", "Feed/Bird",
			"Cost/kg", "Daily Cost", "Cost/Bird", "Recorded By", "Verified"},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, u := range rows {
		table.Rows = append(table.Rows, []any{
			u.Date.Format(models.DateLayout), string(u.FeedType), u.QuantityUsed, u.TotalBirds, u.FeedPerBird,
			u.CostAnalysis.CostPerKg, u.CostAnalysis.DailyCost, u.CostAnalysis.CostPerBird, u.RecordedBy, u.IsVerified,
		})
	}
	return table, nil
}

func alreadyRecorded() error {
	return apperr.New(apperr.CodeDomainRule, "Feed usage already exists for this feed type and date")
}
