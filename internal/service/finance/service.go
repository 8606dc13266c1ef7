// Package finance keeps the farm's income and expense ledger.
package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/export"
)

const (
	entity           = "Financial record"
	referencePrefix  = "FR"
	generateAttempts = 3
)

type Repository interface {
	Create(ctx context.Context, r *models.FinancialRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error)
	Update(ctx context.Context, r *models.FinancialRecord) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error)
	List(ctx context.Context, f models.FinanceFilter, q models.ListQuery) (models.Page[models.FinancialRecord], error)
	ListAll(ctx context.Context, f models.FinanceFilter) ([]models.FinancialRecord, error)
	ByCategory(ctx context.Context, f models.FinanceFilter) ([]models.CategoryAmount, error)
	Monthly(ctx context.Context, f models.FinanceFilter) ([]models.MonthlyAmount, error)
}

// Input is the create/update payload.
type Input struct {
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	Type            models.RecordType `json:"type" validate:"required,oneof=Income Expense"`
	Category        string            `json:"category" validate:"required"`
	Description     string            `json:"description" validate:"required"`
	Amount          float64           `json:"amount" validate:"required,gt=0"`
	TaxAmount       float64           `json:"taxAmount" validate:"gte=0,ltefield=Amount"`
	PaymentMethod   string            `json:"paymentMethod,omitempty"`
	Date            string            `json:"date" validate:"required,day"`
	RelatedEntity   string            `json:"relatedEntity,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

type Service struct {
	repo      Repository
	logger    *zap.Logger
	now       func() time.Time
	newSuffix func() string
}

func NewService(repository Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repository,
		logger:    logger,
		now:       time.Now,
		newSuffix: func() string { return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6]) },
	}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.FinancialRecord, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec := &models.FinancialRecord{CreatedAt: now}
	apply(rec, in, now)

	generated := rec.ReferenceNumber == ""
	for attempt := 1; ; attempt++ {
		if generated {
			rec.ReferenceNumber = fmt.Sprintf("%s-%s-%s", referencePrefix, now.Format("20060102"), s.newSuffix())
		}
		err := s.repo.Create(ctx, rec)
		if err == nil {
			break
		}
		if generated && errors.Is(err, repo.ErrDuplicate) && attempt < generateAttempts {
			continue
		}
		return nil, storeError(err)
	}

	s.logger.Info("financial record created",
		zap.String("reference", rec.ReferenceNumber),
		zap.String("type", string(rec.Type)),
		zap.Float64("amount", rec.Amount),
	)
	return rec, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.FinancialRecord, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	apply(rec, in, s.now().UTC())
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func apply(rec *models.FinancialRecord, in Input, now time.Time) {
	if in.ReferenceNumber != "" {
		rec.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	}
	rec.Type = in.Type
	rec.Category = in.Category
	rec.Description = in.Description
	rec.Amount = in.Amount
	rec.TaxAmount = in.TaxAmount
	rec.PaymentMethod = in.PaymentMethod
	rec.Date, _ = models.ParseDay(in.Date)
	rec.RelatedEntity = in.RelatedEntity
	rec.Notes = in.Notes
	rec.UpdatedAt = now
	rec.Derive()
}

// Summary computes ledger totals, the category breakdown and the monthly
// trend; the two aggregations run concurrently.
func (s *Service) Summary(ctx context.Context, f models.FinanceFilter) (*models.FinanceSummary, error) {
	var (
		byCategory []models.CategoryAmount
		monthly    []models.MonthlyAmount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byCategory, err = s.repo.ByCategory(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.repo.Monthly(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err)
	}

	summary := &models.FinanceSummary{ByCategory: byCategory, Monthly: foldMonthly(monthly)}
	for _, c := range byCategory {
		summary.Records += c.Count
		switch c.Type {
		case models.RecordIncome:
			summary.TotalIncome += c.Amount
		case models.RecordExpense:
			summary.TotalExpense += c.Amount
		}
	}
	summary.TotalIncome = models.Round(summary.TotalIncome, 2)
	summary.TotalExpense = models.Round(summary.TotalExpense, 2)
	summary.NetProfit = models.Sum(2, summary.TotalIncome, -summary.TotalExpense)
	if summary.TotalIncome > 0 {
		summary.ProfitMargin = models.DivRound(summary.NetProfit*100, summary.TotalIncome, 2)
	}
	return summary, nil
}

func foldMonthly(rows []models.MonthlyAmount) []models.MonthlyFinance {
	byMonth := map[string]*models.MonthlyFinance{}
	for _, row := range rows {
		m, ok := byMonth[row.Month]
		if !ok {
			m = &models.MonthlyFinance{Month: row.Month}
			byMonth[row.Month] = m
		}
		switch row.Type {
		case models.RecordIncome:
			m.Income = models.Sum(2, m.Income, row.Amount)
		case models.RecordExpense:
			m.Expense = models.Sum(2, m.Expense, row.Amount)
		}
	}

	out := make([]models.MonthlyFinance, 0, len(byMonth))
	for _, m := range byMonth {
		m.Net = models.Sum(2, m.Income, -m.Expense)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Export returns the ledger rows matched by f as an export table.
func (s *Service) Export(ctx context.Context, f models.FinanceFilter) (export.Table, error) {
	records, err := s.repo.ListAll(ctx, f)
	if err != nil {
		return export.Table{}, storeError(err)
	}
	table := export.Table{
		Sheet:   "Financial Records",
		Headers: []string{"Reference", "Date", "Type", "Category", "Description", "Amount", "Tax", "Net", "Payment Method"},
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		table.Rows = append(table.Rows, []any{
			r.ReferenceNumber, r.Date.Format(models.DateLayout), string(r.Type), r.Category, r.Description,
			r.Amount, r.TaxAmount, r.NetAmount, r.PaymentMethod,
		})
	}
	return table, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error) {
	rec, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.FinancialRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, f models.FinanceFilter, q models.ListQuery) (models.Page[models.FinancialRecord], error) {
	page, err := s.repo.List(ctx, f, q)
	if err != nil {
		return page, storeError(err)
	}
	return page, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Wrap(apperr.CodeDuplicate, err, "Reference number already exists")
	}
	return apperr.Wrap(apperr.CodeInternal, err, err.Error())
}
