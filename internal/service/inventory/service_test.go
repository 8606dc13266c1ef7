package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/internal/service/feed"
)

type stubStocks struct {
	StockService
	upserted feed.StockInput
	updated  feed.StockUpdate
	summary  *models.StockSummary
}

func (s *stubStocks) UpsertStock(_ context.Context, in feed.StockInput) (*models.FeedStock, bool, error) {
	s.upserted = in
	return &models.FeedStock{FeedType: in.FeedType, CurrentQuantity: *in.BaselineQuantity}, true, nil
}

func (s *stubStocks) UpdateStock(_ context.Context, _ primitive.ObjectID, in feed.StockUpdate) (*models.FeedStock, error) {
	s.updated = in
	return &models.FeedStock{}, nil
}

func (s *stubStocks) StockSummary(context.Context, models.StockFilter) (*models.StockSummary, error) {
	return s.summary, nil
}

func TestCreateAcceptsLegacyAliases(t *testing.T) {
	var in ItemInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "Layer Feed", "quantity": 250, "month": "2025-01",
		"supplier": "X", "costPerUnit": 2, "expiryDate": "2025-06-01"
	}`), &in))

	stub := &stubStocks{}
	stock, created, err := NewService(stub).Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.FeedLayer, stub.upserted.FeedType)
	require.NotNil(t, stub.upserted.BaselineQuantity)
	assert.Equal(t, 250.0, *stub.upserted.BaselineQuantity)
	assert.Equal(t, 250.0, stock.CurrentQuantity)
}

func TestCanonicalFieldsWin(t *testing.T) {
	var in ItemInput
	require.NoError(t, json.Unmarshal([]byte(`{"type": "Other", "feedType": "Grower Feed", "quantity": 1, "baselineQuantity": 5}`), &in))

	out := in.Canonical()
	assert.Equal(t, models.FeedGrower, out.FeedType)
	assert.Equal(t, 5.0, *out.BaselineQuantity)
}

func TestUpdateMapsQuantity(t *testing.T) {
	var in ItemUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 42, "supplier": "Z"}`), &in))

	stub := &stubStocks{}
	_, err := NewService(stub).Update(context.Background(), primitive.NewObjectID(), in)
	require.NoError(t, err)
	require.NotNil(t, stub.updated.CurrentQuantity)
	assert.Equal(t, 42.0, *stub.updated.CurrentQuantity)
	assert.Equal(t, "Z", *stub.updated.Supplier)
}

func TestSummary(t *testing.T) {
	stub := &stubStocks{summary: &models.StockSummary{TotalRecords: 3, TotalValue: 120.5, LowStockCount: 1}}

	summary, err := NewService(stub).Summary(context.Background(), models.StockFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.TotalItems)
	assert.Equal(t, 120.5, summary.TotalValue)
	assert.EqualValues(t, 1, summary.LowStockCount)
}
