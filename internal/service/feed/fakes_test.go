package feed

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	repo "github.com/mamadbah2/farmdesk/internal/repository/mongodb"
)

// memStore is an in-memory stand-in for both collections. Its transactor
// restores a snapshot when fn fails, like an aborted transaction.
type memStore struct {
	mu     sync.Mutex
	stocks map[primitive.ObjectID]models.FeedStock
	usages map[primitive.ObjectID]models.FeedUsage

	// beforeStockUpdate runs ahead of every stock write.
	beforeStockUpdate func(stored *models.FeedStock)
}

func newMemStore() *memStore {
	return &memStore{
		stocks: map[primitive.ObjectID]models.FeedStock{},
		usages: map[primitive.ObjectID]models.FeedUsage{},
	}
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	stocks := make(map[primitive.ObjectID]models.FeedStock, len(m.stocks))
	for k, v := range m.stocks {
		stocks[k] = v
	}
	usages := make(map[primitive.ObjectID]models.FeedUsage, len(m.usages))
	for k, v := range m.usages {
		usages[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.stocks, m.usages = stocks, usages
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) stockRepo() *memStocks { return &memStocks{m} }
func (m *memStore) usageRepo() *memUsages { return &memUsages{m} }

func (m *memStore) onlyStock() models.FeedStock {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stocks {
		return s
	}
	return models.FeedStock{}
}

type memStocks struct{ *memStore }

func (r *memStocks) Create(_ context.Context, s *models.FeedStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stocks {
		if existing.FeedType == s.FeedType && existing.Month == s.Month {
			return repo.ErrDuplicate
		}
	}
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.Version = 1
	r.stocks[s.ID] = *s
	return nil
}

func (r *memStocks) GetByID(_ context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &s, nil
}

func (r *memStocks) FindByTypeAndMonth(_ context.Context, feedType models.FeedType, month string) (*models.FeedStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks {
		if s.FeedType == feedType && s.Month == month {
			return &s, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memStocks) Update(_ context.Context, s *models.FeedStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.stocks[s.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if r.beforeStockUpdate != nil {
		r.beforeStockUpdate(&stored)
		r.stocks[s.ID] = stored
	}
	if stored.Version != s.Version {
		return repo.ErrVersionConflict
	}
	s.Version++
	r.stocks[s.ID] = *s
	return nil
}

func (r *memStocks) Delete(_ context.Context, id primitive.ObjectID) (*models.FeedStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(r.stocks, id)
	return &s, nil
}

func (r *memStocks) List(ctx context.Context, f models.StockFilter, q models.ListQuery) (models.Page[models.FeedStock], error) {
	items, _ := r.ListAll(ctx, f)
	q.Normalize()
	return models.Page[models.FeedStock]{Items: items, Total: int64(len(items)), Page: q.Page, Limit: q.Limit}, nil
}

func (r *memStocks) ListAll(_ context.Context, f models.StockFilter) ([]models.FeedStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FeedStock{}
	for _, s := range r.stocks {
		if f.FeedType != "" && s.FeedType != f.FeedType {
			continue
		}
		if f.Month != "" && s.Month != f.Month {
			continue
		}
		if len(f.Status) > 0 && !containsStatus(f.Status, s.Status) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memStocks) Summary(ctx context.Context, f models.StockFilter) (*models.StockSummary, error) {
	items, _ := r.ListAll(ctx, f)
	summary := &models.StockSummary{TotalRecords: int64(len(items))}
	for _, s := range items {
		summary.TotalQuantity += s.CurrentQuantity
		summary.TotalValue += s.TotalCost
		if s.IsLowStock {
			summary.LowStockCount++
		}
	}
	return summary, nil
}

func containsStatus(list []models.StockStatus, s models.StockStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memUsages struct{ *memStore }

func (r *memUsages) Create(_ context.Context, u *models.FeedUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.usages {
		if existing.FeedType == u.FeedType && existing.Date.Equal(u.Date) {
			return repo.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.usages[u.ID] = *u
	return nil
}

func (r *memUsages) GetByID(_ context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usages[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r *memUsages) FindByTypeAndDate(_ context.Context, feedType models.FeedType, day time.Time) (*models.FeedUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usages {
		if u.FeedType == feedType && u.Date.Equal(models.StartOfDay(day)) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memUsages) Update(_ context.Context, u *models.FeedUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usages[u.ID]; !ok {
		return repo.ErrNotFound
	}
	r.usages[u.ID] = *u
	return nil
}

func (r *memUsages) Delete(_ context.Context, id primitive.ObjectID) (*models.FeedUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usages[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(r.usages, id)
	return &u, nil
}

func (r *memUsages) List(ctx context.Context, f models.UsageFilter, q models.ListQuery) (models.Page[models.FeedUsage], error) {
	items, _ := r.ListAll(ctx, f)
	q.Normalize()
	return models.Page[models.FeedUsage]{Items: items, Total: int64(len(items)), Page: q.Page, Limit: q.Limit}, nil
}

func (r *memUsages) ListAll(_ context.Context, f models.UsageFilter) ([]models.FeedUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FeedUsage{}
	for _, u := range r.usages {
		if f.FeedType != "" && u.FeedType != f.FeedType {
			continue
		}
		if f.Month != "" && u.Month != f.Month {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memUsages) MonthTotals(_ context.Context, feedType models.FeedType, month string) (models.UsageTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t models.UsageTotals
	for _, u := range r.usages {
		if u.FeedType == feedType && u.Month == month {
			t.Quantity += u.QuantityUsed
			t.Days++
		}
	}
	return t, nil
}

func (r *memUsages) Summary(ctx context.Context, f models.UsageFilter) (*models.UsageSummary, error) {
	items, _ := r.ListAll(ctx, f)
	summary := &models.UsageSummary{Records: len(items)}
	for _, u := range items {
		summary.TotalQuantity += u.QuantityUsed
		summary.TotalCost += u.CostAnalysis.DailyCost
	}
	return summary, nil
}
