package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

type memRepo struct {
	Repository
	records    map[primitive.ObjectID]models.FinancialRecord
	byCategory []models.CategoryAmount
	monthly    []models.MonthlyAmount
	aggErr     error
}

func (m *memRepo) Create(_ context.Context, r *models.FinancialRecord) error {
	for _, existing := range m.records {
		if existing.ReferenceNumber == r.ReferenceNumber {
			return repo.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	m.records[r.ID] = *r
	return nil
}

func (m *memRepo) ListAll(context.Context, models.FinanceFilter) ([]models.FinancialRecord, error) {
	out := []models.FinancialRecord{}
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRepo) ByCategory(context.Context, models.FinanceFilter) ([]models.CategoryAmount, error) {
	return m.byCategory, m.aggErr
}

func (m *memRepo) Monthly(context.Context, models.FinanceFilter) ([]models.MonthlyAmount, error) {
	return m.monthly, nil
}

func newTestService() (*Service, *memRepo) {
	r := &memRepo{records: map[primitive.ObjectID]models.FinancialRecord{}}
	svc := NewService(r, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC) }
	svc.newSuffix = func() string { return "F00D01" }
	return svc, r
}

func TestCreateDerivesNetAndReference(t *testing.T) {
	svc, _ := newTestService()

	rec, err := svc.Create(context.Background(), Input{
		Type: models.RecordIncome, Category: "Egg Sales", Description: "Market day",
		Amount: 1200.456, TaxAmount: 200.1, Date: "2025-01-09",
	})
	require.NoError(t, err)
	assert.Equal(t, "FR-20250110-F00D01", rec.ReferenceNumber)
	assert.Equal(t, 1200.46, rec.Amount)
	assert.Equal(t, 1000.36, rec.NetAmount)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), Input{Type: "Gift", Category: "x", Description: "x", Amount: 10, TaxAmount: 20, Date: "2025-01-09"})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code())
	assert.Len(t, appErr.Details(), 2)
}

func TestSummary(t *testing.T) {
	svc, r := newTestService()
	r.byCategory = []models.CategoryAmount{
		{Type: models.RecordIncome, Category: "Egg Sales", Amount: 1000, Count: 4},
		{Type: models.RecordExpense, Category: "Feed", Amount: 600, Count: 2},
		{Type: models.RecordExpense, Category: "Vet", Amount: 150.5, Count: 1},
	}
	r.monthly = []models.MonthlyAmount{
		{Month: "2025-02", Type: models.RecordIncome, Amount: 400},
		{Month: "2025-01", Type: models.RecordIncome, Amount: 600},
		{Month: "2025-01", Type: models.RecordExpense, Amount: 750.5},
	}

	summary, err := svc.Summary(context.Background(), models.FinanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, summary.TotalIncome)
	assert.Equal(t, 750.5, summary.TotalExpense)
	assert.Equal(t, 249.5, summary.NetProfit)
	assert.Equal(t, 24.95, summary.ProfitMargin)
	assert.EqualValues(t, 7, summary.Records)
	require.Len(t, summary.Monthly, 2)
	assert.Equal(t, models.MonthlyFinance{Month: "2025-01", Income: 600, Expense: 750.5, Net: -150.5}, summary.Monthly[0])
	assert.Equal(t, "2025-02", summary.Monthly[1].Month)
}

func TestSummaryAggregationFailure(t *testing.T) {
	svc, r := newTestService()
	r.aggErr = errors.New("aggregate financialrecords: connection reset")

	_, err := svc.Summary(context.Background(), models.FinanceFilter{})
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
}

func TestExport(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), Input{
		Type: models.RecordExpense, Category: "Feed", Description: "Layer feed", Amount: 500, Date: "2025-01-09",
	})
	require.NoError(t, err)

	table, err := svc.Export(context.Background(), models.FinanceFilter{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "FR-20250110-F00D01", table.Rows[0][0])
	assert.Equal(t, "Expense", table.Rows[0][2])
	assert.Len(t, table.Rows[0], len(table.Headers))
}
