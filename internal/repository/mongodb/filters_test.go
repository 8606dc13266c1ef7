package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
)

func TestStockFilter(t *testing.T) {
	low := true
	f := stockFilter(models.StockFilter{
		FeedType: models.FeedLayer,
		Month:    "2025-01",
		Status:   []models.StockStatus{models.StockActive, models.StockReserved},
		LowStock: &low,
	})

	assert.Equal(t, models.FeedLayer, f["feedType"])
	assert.Equal(t, "2025-01", f["month"])
	assert.Equal(t, bson.M{"$in": []models.StockStatus{models.StockActive, models.StockReserved}}, f["status"])
	assert.Equal(t, true, f["isLowStock"])

	single := stockFilter(models.StockFilter{Status: []models.StockStatus{models.StockDepleted}})
	assert.Equal(t, models.StockDepleted, single["status"])
	assert.Empty(t, stockFilter(models.StockFilter{}))
}

func TestDateRangeIncludesWholeEndDay(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	r := dateRange(&from, &to)
	require.NotNil(t, r)
	assert.Equal(t, from, r["$gte"])
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), r["$lte"])

	assert.Nil(t, dateRange(nil, nil))
	assert.NotContains(t, dateRange(&from, nil), "$lte")
}

func TestUsageFilter(t *testing.T) {
	verified := false
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := usageFilter(models.UsageFilter{FeedType: models.FeedLayer, From: &from, RecordedBy: "Awa", Verified: &verified})

	assert.Equal(t, models.FeedLayer, f["feedType"])
	assert.Equal(t, "Awa", f["recordedBy"])
	assert.Equal(t, false, f["isVerified"])
	assert.Equal(t, bson.M{"$gte": from}, f["date"])
}

func TestTaskFilterDueWindow(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	week := now.AddDate(0, 0, 7)
	f := taskFilter(models.TaskFilter{
		Status:    []models.TaskStatus{models.TaskPending},
		DueFrom:   &now,
		DueBefore: &week,
	})

	assert.Equal(t, models.TaskPending, f["status"])
	assert.Equal(t, bson.M{"$gte": now, "$lt": week}, f["dueDate"])
}

func TestOrderFilterEscapesCustomerPattern(t *testing.T) {
	f := orderFilter(models.OrderFilter{Customer: "A.B (shop)"})
	assert.Equal(t, bson.M{"$regex": `A\.B \(shop\)`, "$options": "i"}, f["customer.name"])
}

func TestSortSpec(t *testing.T) {
	c := collection[models.FeedUsage]{
		sortable:    map[string]string{"quantityUsed": "quantityUsed"},
		defaultSort: "date",
	}

	assert.Equal(t, bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}, c.sortSpec(models.ListQuery{}))
	assert.Equal(t, bson.D{{Key: "quantityUsed", Value: 1}, {Key: "_id", Value: 1}}, c.sortSpec(models.ListQuery{SortBy: "quantityUsed"}))
	assert.Equal(t, bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}, c.sortSpec(models.ListQuery{SortBy: "$where", SortDesc: true}))
}

func TestMapErrors(t *testing.T) {
	assert.ErrorIs(t, mapReadError(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapWriteError(dup), ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, mapWriteError(other))
	assert.NoError(t, mapWriteError(nil))
}

func TestMigrationsAreOrdered(t *testing.T) {
	ms := Migrations()
	require.NotEmpty(t, ms)
	assert.Equal(t, "0001_canonical_feed_fields", ms[0].Version)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
}
