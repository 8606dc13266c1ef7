// Package sales manages customer orders.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/phone"
)

const (
	entity            = "Sales order"
	orderNumberPrefix = "SO"
	generateAttempts  = 3
)

type Repository interface {
	Create(ctx context.Context, o *models.SalesOrder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error)
	Update(ctx context.Context, o *models.SalesOrder) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error)
	List(ctx context.Context, f models.OrderFilter, q models.ListQuery) (models.Page[models.SalesOrder], error)
	Summary(ctx context.Context, f models.OrderFilter) (*models.SalesSummary, error)
}

type CustomerInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty"`
}

type ItemInput struct {
	Product   string  `json:"product" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	Unit      string  `json:"unit,omitempty"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// OrderInput is the create/update payload. An empty order number is
// generated on create.
type OrderInput struct {
	OrderNumber   string             `json:"orderNumber,omitempty"`
	Customer      CustomerInput      `json:"customer"`
	Items         []ItemInput        `json:"items" validate:"required,min=1,dive"`
	Discount      float64            `json:"discount" validate:"gte=0"`
	Tax           float64            `json:"tax" validate:"gte=0"`
	AmountPaid    float64            `json:"amountPaid" validate:"gte=0"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	Status        models.OrderStatus `json:"status,omitempty" validate:"omitempty,oneof=Pending Confirmed Delivered Cancelled"`
	OrderDate     string             `json:"orderDate,omitempty" validate:"omitempty,day"`
	DeliveryDate  string             `json:"deliveryDate,omitempty" validate:"omitempty,day"`
	Notes         string             `json:"notes,omitempty"`
}

type Service struct {
	repo        Repository
	phoneRegion string
	logger      *zap.Logger
	now         func() time.Time
	newSuffix   func() string
}

func NewService(repository Repository, phoneRegion string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repository,
		phoneRegion: phoneRegion,
		logger:      logger,
		now:         time.Now,
		newSuffix:   randomSuffix,
	}
}

func (s *Service) Create(ctx context.Context, in OrderInput) (*models.SalesOrder, error) {
	now := s.now().UTC()
	order := &models.SalesOrder{CreatedAt: now, OrderDate: models.StartOfDay(now)}
	if err := s.apply(order, in, now); err != nil {
		return nil, err
	}

	generated := order.OrderNumber == ""
	for attempt := 1; ; attempt++ {
		if generated {
			order.OrderNumber = s.orderNumber(now)
		}
		err := s.repo.Create(ctx, order)
		if err == nil {
			break
		}
		if generated && errors.Is(err, repo.ErrDuplicate) && attempt < generateAttempts {
			continue
		}
		return nil, storeError(err)
	}

	s.logger.Info("sales order created",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.TotalAmount),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	return order, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in OrderInput) (*models.SalesOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := s.apply(order, in, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

func (s *Service) apply(order *models.SalesOrder, in OrderInput, now time.Time) error {
	if err := models.Validate(in); err != nil {
		return err
	}
	normalized, err := phone.Normalize(in.Customer.Phone, s.phoneRegion)
	if err != nil {
		return apperr.Validation("Validation failed", "phone must be a valid phone number")
	}

	if in.OrderNumber != "" {
		order.OrderNumber = strings.TrimSpace(in.OrderNumber)
	}
	order.Customer = models.Customer{
		Name:    strings.TrimSpace(in.Customer.Name),
		Phone:   normalized,
		Email:   strings.ToLower(strings.TrimSpace(in.Customer.Email)),
		Address: in.Customer.Address,
	}
	order.Items = make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			Product:   item.Product,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
		})
	}
	order.Discount = in.Discount
	order.Tax = in.Tax
	order.AmountPaid = in.AmountPaid
	order.PaymentMethod = in.PaymentMethod
	if in.Status != "" {
		order.Status = in.Status
	}
	if in.OrderDate != "" {
		order.OrderDate, _ = models.ParseDay(in.OrderDate)
	}
	order.DeliveryDate = nil
	if in.DeliveryDate != "" {
		d, _ := models.ParseDay(in.DeliveryDate)
		order.DeliveryDate = &d
	}
	order.Notes = in.Notes
	order.UpdatedAt = now
	order.Derive()
	return nil
}

// orderNumber renders SO-YYYYMMDD-XXXXXX.
func (s *Service) orderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102"), s.newSuffix())
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error) {
	order, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.SalesOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, f models.OrderFilter, q models.ListQuery) (models.Page[models.SalesOrder], error) {
	page, err := s.repo.List(ctx, f, q)
	if err != nil {
		return page, storeError(err)
	}
	return page, nil
}

func (s *Service) Summary(ctx context.Context, f models.OrderFilter) (*models.SalesSummary, error) {
	summary, err := s.repo.Summary(ctx, f)
	if err != nil {
		return nil, storeError(err)
	}
	if summary.Orders > 0 {
		summary.AverageOrderValue = models.DivRound(summary.Revenue, float64(summary.Orders), 2)
	}
	summary.Revenue = models.Round(summary.Revenue, 2)
	summary.Paid = models.Round(summary.Paid, 2)
	summary.Outstanding = models.Round(summary.Outstanding, 2)
	return summary, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Wrap(apperr.CodeDuplicate, err, "Order number already exists")
	}
	return apperr.Wrap(apperr.CodeInternal, err, err.Error())
}
