package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

const stockEntity = "Feed stock"

// StockInput is the payload of a stock upsert.
type StockInput struct {
	FeedType         models.FeedType `json:"feedType" validate:"required,feedtype"`
	Month            string          `json:"month" validate:"required,yearmonth"`
	Year             int             `json:"year,omitempty"`
	BaselineQuantity *float64        `json:"baselineQuantity" validate:"required,gte=0"`
	Unit             string          `json:"unit,omitempty"`
	Supplier         string          `json:"supplier" validate:"required"`
	SupplierContact  string          `json:"supplierContact,omitempty"`
	CostPerUnit      *float64        `json:"costPerUnit" validate:"required,gte=0"`
	MinimumThreshold *float64        `json:"minimumThreshold,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate       string          `json:"expiryDate" validate:"required,day"`
	BatchNumber      string          `json:"batchNumber,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// StockUpdate is a partial update; nil fields are left unchanged.
type StockUpdate struct {
	CurrentQuantity  *float64            `json:"currentQuantity,omitempty" validate:"omitempty,gte=0"`
	BaselineQuantity *float64            `json:"baselineQuantity,omitempty" validate:"omitempty,gte=0"`
	Unit             *string             `json:"unit,omitempty"`
	Supplier         *string             `json:"supplier,omitempty" validate:"omitempty,min=1"`
	SupplierContact  *string             `json:"supplierContact,omitempty"`
	CostPerUnit      *float64            `json:"costPerUnit,omitempty" validate:"omitempty,gte=0"`
	MinimumThreshold *float64            `json:"minimumThreshold,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate       *string             `json:"expiryDate,omitempty" validate:"omitempty,day"`
	Status           *models.StockStatus `json:"status,omitempty" validate:"omitempty,oneof=Active Reserved"`
	BatchNumber      *string             `json:"batchNumber,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
}

// DeductInput removes stock outside of a usage record (spoilage, transfer).
type DeductInput struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Reason   string  `json:"reason,omitempty"`
}

// UpsertStock creates the bucket for (feedType, month) or overwrites it.
// The baseline replaces the current quantity; it is not added to it.
func (s *Service) UpsertStock(ctx context.Context, in StockInput) (*models.FeedStock, bool, error) {
	if err := models.Validate(in); err != nil {
		return nil, false, err
	}
	expiry, _ := models.ParseDay(in.ExpiryDate)

	var (
		saved   *models.FeedStock
		created bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now().UTC()
		stock, err := s.stocks.FindByTypeAndMonth(ctx, in.FeedType, in.Month)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			stock = &models.FeedStock{
				FeedType:         in.FeedType,
				Month:            in.Month,
				MinimumThreshold: models.DefaultMinimumThreshold,
				CreatedAt:        now,
			}
			created = true
		case err != nil:
			return err
		default:
			created = false
		}

		applyStockInput(stock, in, expiry)
		stock.Status = models.StockActive
		stock.LastRestocked = now
		stock.UpdatedAt = now
		stock.Recompute(now)

		if created {
			if err := s.stocks.Create(ctx, stock); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return apperr.Newf(apperr.CodeDuplicate, "Stock for %s in %s already exists", in.FeedType, in.Month)
				}
				return err
			}
		} else if err := s.stocks.Update(ctx, stock); err != nil {
			return err
		}
		saved = stock
		return nil
	})
	if err != nil {
		return nil, false, storeError(err, stockEntity)
	}

	s.logger.Info("feed stock saved",
		zap.String("feed_type", string(saved.FeedType)),
		zap.String("month", saved.Month),
		zap.Bool("created", created),
		zap.Float64("quantity", saved.CurrentQuantity),
	)
	return saved, created, nil
}

func applyStockInput(stock *models.FeedStock, in StockInput, expiry time.Time) {
	stock.BaselineQuantity = *in.BaselineQuantity
	stock.CurrentQuantity = *in.BaselineQuantity
	stock.Supplier = in.Supplier
	stock.SupplierContact = in.SupplierContact
	stock.CostPerUnit = *in.CostPerUnit
	stock.ExpiryDate = expiry
	stock.BatchNumber = in.BatchNumber
	stock.Notes = in.Notes
	if in.Unit != "" {
		stock.Unit = in.Unit
	}
	if in.MinimumThreshold != nil {
		stock.MinimumThreshold = *in.MinimumThreshold
	}
}

// UpdateStock applies a partial update to a bucket.
func (s *Service) UpdateStock(ctx context.Context, id primitive.ObjectID, in StockUpdate) (*models.FeedStock, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	var saved *models.FeedStock
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.stocks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		applyStockUpdate(stock, in)

		now := s.now().UTC()
		stock.UpdatedAt = now
		stock.Recompute(now)
		if err := s.stocks.Update(ctx, stock); err != nil {
			return err
		}
		saved = stock
		return nil
	})
	if err != nil {
		return nil, storeError(err, stockEntity)
	}
	return saved, nil
}

func applyStockUpdate(stock *models.FeedStock, in StockUpdate) {
	if in.BaselineQuantity != nil {
		stock.BaselineQuantity = *in.BaselineQuantity
	}
	if in.CurrentQuantity != nil {
		stock.CurrentQuantity = *in.CurrentQuantity
	}
	if in.Unit != nil && *in.Unit != "" {
		stock.Unit = *in.Unit
	}
	if in.Supplier != nil {
		stock.Supplier = *in.Supplier
	}
	if in.SupplierContact != nil {
		stock.SupplierContact = *in.SupplierContact
	}
	if in.CostPerUnit != nil {
		stock.CostPerUnit = *in.CostPerUnit
	}
	if in.MinimumThreshold != nil {
		stock.MinimumThreshold = *in.MinimumThreshold
	}
	if in.ExpiryDate != nil {
		expiry, _ := models.ParseDay(*in.ExpiryDate)
		stock.ExpiryDate = expiry
	}
	if in.Status != nil {
		stock.Status = *in.Status
	}
	if in.BatchNumber != nil {
		stock.BatchNumber = *in.BatchNumber
	}
	if in.Notes != nil {
		stock.Notes = *in.Notes
	}
}

// DeductStock removes quantity from a bucket without a usage record.
func (s *Service) DeductStock(ctx context.Context, id primitive.ObjectID, in DeductInput) (*models.FeedStock, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	var saved *models.FeedStock
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.stocks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Quantity > stock.CurrentQuantity {
			return insufficientStock(stock, in.Quantity)
		}

		now := s.now().UTC()
		stock.CurrentQuantity -= in.Quantity
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			stock.Notes = appendNote(stock.Notes, fmt.Sprintf("%s: deducted %s %s (%s)",
				now.Format(models.DateLayout), formatQty(in.Quantity), stock.Unit, reason))
		}
		stock.UpdatedAt = now
		stock.Recompute(now)
		if err := s.stocks.Update(ctx, stock); err != nil {
			return err
		}
		saved = stock
		return nil
	})
	if err != nil {
		return nil, storeError(err, stockEntity)
	}

	s.logger.Info("feed stock deducted",
		zap.String("stock_id", id.Hex()),
		zap.Float64("quantity", in.Quantity),
		zap.String("reason", in.Reason),
	)
	return saved, nil
}

func (s *Service) DeleteStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	stock, err := s.stocks.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err, stockEntity)
	}
	s.logger.Info("feed stock deleted", zap.String("stock_id", id.Hex()), zap.String("month", stock.Month))
	return stock, nil
}

func (s *Service) GetStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	stock, err := s.stocks.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, stockEntity)
	}
	return stock, nil
}

func (s *Service) ListStocks(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error) {
	page, err := s.stocks.List(ctx, f, q)
	if err != nil {
		return page, storeError(err, stockEntity)
	}
	return page, nil
}

func (s *Service) StockSummary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error) {
	summary, err := s.stocks.Summary(ctx, f)
	if err != nil {
		return nil, storeError(err, stockEntity)
	}
	return summary, nil
}

// StockAlerts classifies every non-depleted bucket. Derived fields are
// recomputed against the current time before classification.
func (s *Service) StockAlerts(ctx context.Context) (*models.StockAlerts, error) {
	stocks, err := s.stocks.ListAll(ctx, models.StockFilter{
		Status: []models.StockStatus{models.StockActive, models.StockReserved, models.StockExpired},
	})
	if err != nil {
		return nil, storeError(err, stockEntity)
	}

	now := s.now().UTC()
	alerts := &models.StockAlerts{
		LowStock: []models.FeedStock{},
		Critical: []models.FeedStock{},
		Expiring: []models.FeedStock{},
		Expired:  []models.FeedStock{},
	}
	for _, stock := range stocks {
		stock.Recompute(now)
		switch {
		case stock.Status == models.StockDepleted:
			continue
		case stock.IsCritical():
			alerts.Critical = append(alerts.Critical, stock)
		case stock.IsLowStock:
			alerts.LowStock = append(alerts.LowStock, stock)
		}
		switch {
		case stock.Status == models.StockExpired:
			alerts.Expired = append(alerts.Expired, stock)
		case !stock.ExpiryDate.IsZero() && stock.DaysUntilExpiry <= s.expiryWarningDays:
			alerts.Expiring = append(alerts.Expiring, stock)
		}
	}
	return alerts, nil
}

func insufficientStock(stock *models.FeedStock, requested float64) error {
	return apperr.Newf(apperr.CodeDomainRule,
		"Insufficient stock. Available: %s %s, requested: %s %s (short by %s %s)",
		formatQty(stock.CurrentQuantity), stock.Unit,
		formatQty(requested), stock.Unit,
		formatQty(models.Round(requested-stock.CurrentQuantity, 3)), stock.Unit,
	)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
