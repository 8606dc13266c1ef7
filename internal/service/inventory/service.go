// Package inventory serves the legacy feed-inventory API over the monthly
// feed stock buckets.
package inventory

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/feed"
)

// StockService is the part of the feed service the legacy view relies on.
type StockService interface {
	UpsertStock(ctx context.Context, in feed.StockInput) (*models.FeedStock, bool, error)
	UpdateStock(ctx context.Context, id primitive.ObjectID, in feed.StockUpdate) (*models.FeedStock, error)
	DeleteStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	GetStock(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error)
	ListStocks(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error)
	StockSummary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error)
	StockAlerts(ctx context.Context) (*models.StockAlerts, error)
}

// ItemInput is a legacy inventory payload. "type" and "quantity" are
// accepted for feedType and baselineQuantity.
type ItemInput struct {
	feed.StockInput
	Type     models.FeedType `json:"type,omitempty"`
	Quantity *float64        `json:"quantity,omitempty"`
}

// Canonical resolves the legacy aliases; canonical fields win.
func (in ItemInput) Canonical() feed.StockInput {
	out := in.StockInput
	if out.FeedType == "" {
		out.FeedType = in.Type
	}
	if out.BaselineQuantity == nil {
		out.BaselineQuantity = in.Quantity
	}
	return out
}

// ItemUpdate is a legacy partial update; "quantity" sets currentQuantity.
type ItemUpdate struct {
	feed.StockUpdate
	Quantity *float64 `json:"quantity,omitempty"`
}

func (in ItemUpdate) Canonical() feed.StockUpdate {
	out := in.StockUpdate
	if out.CurrentQuantity == nil {
		out.CurrentQuantity = in.Quantity
	}
	return out
}

// Summary is the legacy inventory overview.
type Summary struct {
	TotalItems    int64                     `json:"totalItems"`
	TotalQuantity float64                   `json:"totalQuantity"`
	TotalValue    float64                   `json:"totalValue"`
	LowStockCount int64                     `json:"lowStockCount"`
	ByFeedType    []models.StockTypeSummary `json:"byFeedType"`
}

type Service struct {
	stocks StockService
}

func NewService(stocks StockService) *Service {
	return &Service{stocks: stocks}
}

func (s *Service) Create(ctx context.Context, in ItemInput) (*models.FeedStock, bool, error) {
	return s.stocks.UpsertStock(ctx, in.Canonical())
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in ItemUpdate) (*models.FeedStock, error) {
	return s.stocks.UpdateStock(ctx, id, in.Canonical())
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	return s.stocks.DeleteStock(ctx, id)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	return s.stocks.GetStock(ctx, id)
}

func (s *Service) List(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error) {
	return s.stocks.ListStocks(ctx, f, q)
}

func (s *Service) Summary(ctx context.Context, f models.StockFilter) (*Summary, error) {
	stock, err := s.stocks.StockSummary(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalItems:    stock.TotalRecords,
		TotalQuantity: stock.TotalQuantity,
		TotalValue:    stock.TotalValue,
		LowStockCount: stock.LowStockCount,
		ByFeedType:    stock.ByFeedType,
	}, nil
}

func (s *Service) Alerts(ctx context.Context) (*models.StockAlerts, error) {
	return s.stocks.StockAlerts(ctx)
}
