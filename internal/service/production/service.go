// Package production records daily egg collection per house.
package production

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

const entity = "Egg production record"

type Repository interface {
	Create(ctx context.Context, e *models.EggProduction) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error)
	Update(ctx context.Context, e *models.EggProduction) error
	Delete(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error)
	List(ctx context.Context, f models.EggFilter, q models.ListQuery) (models.Page[models.EggProduction], error)
	Summary(ctx context.Context, f models.EggFilter) (*models.EggSummary, error)
}

// Input is the create/update payload.
type Input struct {
	Date          string  `json:"date" validate:"required,day"`
	House         string  `json:"house" validate:"required"`
	TotalBirds    int     `json:"totalBirds" validate:"required,gt=0"`
	EggsCollected int     `json:"eggsCollected" validate:"gte=0"`
	BrokenEggs    int     `json:"brokenEggs" validate:"gte=0,ltefield=EggsCollected"`
	SmallEggs     int     `json:"smallEggs" validate:"gte=0"`
	LargeEggs     int     `json:"largeEggs" validate:"gte=0"`
	Mortality     int     `json:"mortality" validate:"gte=0"`
	FeedConsumed  float64 `json:"feedConsumed" validate:"gte=0"`
	Notes         string  `json:"notes,omitempty"`
	RecordedBy    string  `json:"recordedBy" validate:"required"`
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repository Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.EggProduction, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	rec := &models.EggProduction{CreatedAt: now}
	apply(rec, in, now)

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("egg production recorded",
		zap.String("house", rec.House),
		zap.String("date", rec.Date.Format(models.DateLayout)),
		zap.Int("eggs", rec.EggsCollected),
	)
	return rec, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.EggProduction, error) {
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

func apply(rec *models.EggProduction, in Input, now time.Time) {
	rec.Date, _ = models.ParseDay(in.Date)
	rec.House = in.House
	rec.TotalBirds = in.TotalBirds
	rec.EggsCollected = in.EggsCollected
	rec.BrokenEggs = in.BrokenEggs
	rec.SmallEggs = in.SmallEggs
	rec.LargeEggs = in.LargeEggs
	rec.Mortality = in.Mortality
	rec.FeedConsumed = in.FeedConsumed
	rec.Notes = in.Notes
	rec.RecordedBy = in.RecordedBy
	rec.UpdatedAt = now
	rec.Derive()
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error) {
	rec, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.EggProduction, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, f models.EggFilter, q models.ListQuery) (models.Page[models.EggProduction], error) {
	page, err := s.repo.List(ctx, f, q)
	if err != nil {
		return page, storeError(err)
	}
	return page, nil
}

func (s *Service) Summary(ctx context.Context, f models.EggFilter) (*models.EggSummary, error) {
	summary, err := s.repo.Summary(ctx, f)
	if err != nil {
		return nil, storeError(err)
	}
	return summary, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Wrap(apperr.CodeDuplicate, err, "Egg production record already exists for this date and house")
	}
	return apperr.Wrap(apperr.CodeInternal, err, err.Error())
}
