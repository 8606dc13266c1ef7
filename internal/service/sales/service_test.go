package sales

import (
	"context"
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
	orders  map[primitive.ObjectID]models.SalesOrder
	summary *models.SalesSummary
}

func (m *memRepo) Create(_ context.Context, o *models.SalesOrder) error {
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repo.ErrDuplicate
		}
	}
	o.ID = primitive.NewObjectID()
	m.orders[o.ID] = *o
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.SalesOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &o, nil
}

func (m *memRepo) Update(_ context.Context, o *models.SalesOrder) error {
	m.orders[o.ID] = *o
	return nil
}

func (m *memRepo) Summary(context.Context, models.OrderFilter) (*models.SalesSummary, error) {
	return m.summary, nil
}

func newTestService(suffixes ...string) (*Service, *memRepo) {
	r := &memRepo{orders: map[primitive.ObjectID]models.SalesOrder{}}
	svc := NewService(r, "GN", nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC) }
	if len(suffixes) > 0 {
		i := 0
		svc.newSuffix = func() string {
			s := suffixes[i%len(suffixes)]
			i++
			return s
		}
	}
	return svc, r
}

func eggOrder() OrderInput {
	return OrderInput{
		Customer: CustomerInput{Name: " Mariama Diallo ", Phone: "+1 650 253 0000", Email: "Mariama@Example.com"},
		Items: []ItemInput{
			{Product: "Eggs (tray)", Quantity: 10, UnitPrice: 35000},
			{Product: "Manure bag", Quantity: 3, UnitPrice: 0.1},
		},
		Discount:   5000,
		Tax:        1000,
		AmountPaid: 100000,
	}
}

func TestCreateDerivesTotalsAndNormalizesCustomer(t *testing.T) {
	svc, _ := newTestService("ABC123")

	order, err := svc.Create(context.Background(), eggOrder())
	require.NoError(t, err)
	assert.Equal(t, "SO-20250110-ABC123", order.OrderNumber)
	assert.Equal(t, "Mariama Diallo", order.Customer.Name)
	assert.Equal(t, "+16502530000", order.Customer.Phone)
	assert.Equal(t, "mariama@example.com", order.Customer.Email)
	assert.Equal(t, 350000.3, order.Subtotal)
	assert.Equal(t, 346000.3, order.TotalAmount)
	assert.Equal(t, 246000.3, order.Balance)
	assert.Equal(t, models.PaymentPartial, order.PaymentStatus)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), order.OrderDate)
}

func TestCreateRetriesGeneratedNumberCollision(t *testing.T) {
	svc, r := newTestService("AAAAAA", "AAAAAA", "BBBBBB")
	ctx := context.Background()

	_, err := svc.Create(ctx, eggOrder())
	require.NoError(t, err)
	order, err := svc.Create(ctx, eggOrder())
	require.NoError(t, err)
	assert.Equal(t, "SO-20250110-BBBBBB", order.OrderNumber)
	assert.Len(t, r.orders, 2)
}

func TestCreateRejectsExplicitDuplicateNumber(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := eggOrder()
	in.OrderNumber = "SO-MANUAL-1"
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, in)
	require.True(t, apperr.IsCode(err, apperr.CodeDuplicate))
	assert.Equal(t, "Order number already exists", apperr.As(err).Message())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), OrderInput{})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code())
	assert.Equal(t, "Missing required fields: name, items", appErr.Message())

	in := eggOrder()
	in.Customer.Phone = "12"
	_, err = svc.Create(context.Background(), in)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestUpdateMarksPaid(t *testing.T) {
	svc, _ := newTestService("ABC123")
	ctx := context.Background()

	order, err := svc.Create(ctx, eggOrder())
	require.NoError(t, err)

	in := eggOrder()
	in.AmountPaid = 346000.3
	in.Status = models.OrderDelivered
	in.DeliveryDate = "2025-01-12"
	updated, err := svc.Update(ctx, order.ID, in)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, updated.OrderNumber)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, 0.0, updated.Balance)
	assert.Equal(t, models.OrderDelivered, updated.Status)
	require.NotNil(t, updated.DeliveryDate)
}

func TestSummaryAverageOrderValue(t *testing.T) {
	svc, r := newTestService()
	r.summary = &models.SalesSummary{SalesTotals: models.SalesTotals{Orders: 3, Revenue: 100}}

	summary, err := svc.Summary(context.Background(), models.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 33.33, summary.AverageOrderValue)
}
