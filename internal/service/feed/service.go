package feed

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
)

// StockRepository is the stock bucket storage the service needs.
type StockRepository interface {
	Create(ctx context.Context, s *models.FeedStock) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	FindByTypeAndMonth(ctx context.Context, feedType models.FeedType, month string) (*models.FeedStock, error)
	Update(ctx context.Context, s *models.FeedStock) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	List(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error)
	ListAll(ctx context.Context, f models.StockFilter) ([]models.FeedStock, error)
	Summary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error)
}

// UsageRepository is the usage storage the service needs.
type UsageRepository interface {
	Create(ctx context.Context, u *models.FeedUsage) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error)
	FindByTypeAndDate(ctx context.Context, feedType models.FeedType, day time.Time) (*models.FeedUsage, error)
	Update(ctx context.Context, u *models.FeedUsage) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedUsage, error)
	List(ctx context.Context, f models.UsageFilter, q models.ListQuery) (models.Page[models.FeedUsage], error)
	ListAll(ctx context.Context, f models.UsageFilter) ([]models.FeedUsage, error)
	MonthTotals(ctx context.Context, feedType models.FeedType, month string) (models.UsageTotals, error)
	Summary(ctx context.Context, f models.UsageFilter) (*models.UsageSummary, error)
}

// Transactor runs fn atomically. fn may run more than once.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service keeps stock buckets and usage records consistent.
type Service struct {
	stocks StockRepository
	usages UsageRepository
	tx     Transactor
	logger *zap.Logger
	now    func() time.Time

	expiryWarningDays int
}

func NewService(stocks StockRepository, usages UsageRepository, tx Transactor, expiryWarningDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiryWarningDays <= 0 {
		expiryWarningDays = 30
	}
	return &Service{
		stocks:            stocks,
		usages:            usages,
		tx:                tx,
		logger:            logger,
		now:               time.Now,
		expiryWarningDays: expiryWarningDays,
	}
}

// storeError converts repository sentinels into application errors.
func storeError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case apperr.As(err) != nil:
		return err
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, repo.ErrVersionConflict):
		return apperr.Wrap(apperr.CodeConcurrentUpdate, err, entity+" was modified by another request, retry")
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Wrap(apperr.CodeDuplicate, err, entity+" already exists")
	}
	return apperr.Wrap(apperr.CodeInternal, err, err.Error())
}
