package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockStatus is the lifecycle state of a monthly stock bucket.
type StockStatus string

const (
	StockActive   StockStatus = "Active"
	StockDepleted StockStatus = "Depleted"
	StockExpired  StockStatus = "Expired"
	StockReserved StockStatus = "Reserved"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StockActive, StockDepleted, StockExpired, StockReserved:
		return true
	}
	return false
}

const (
	DefaultStockUnit        = "kg"
	DefaultMinimumThreshold = 100
)

// FeedStock is one month's tracked inventory bucket for a feed type.
// At most one bucket exists per (FeedType, Month).
type FeedStock struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FeedType                FeedType           `bson:"feedType" json:"feedType"`
	Month                   string             `bson:"month" json:"month"`
	Year                    int                `bson:"year" json:"year"`
	BaselineQuantity        float64            `bson:"baselineQuantity" json:"baselineQuantity"`
	CurrentQuantity         float64            `bson:"currentQuantity" json:"currentQuantity"`
	Unit                    string             `bson:"unit" json:"unit"`
	Supplier                string             `bson:"supplier" json:"supplier"`
	SupplierContact         string             `bson:"supplierContact,omitempty" json:"supplierContact,omitempty"`
	CostPerUnit             float64            `bson:"costPerUnit" json:"costPerUnit"`
	TotalCost               float64            `bson:"totalCost" json:"totalCost"`
	MinimumThreshold        float64            `bson:"minimumThreshold" json:"minimumThreshold"`
	ExpiryDate              time.Time          `bson:"expiryDate" json:"expiryDate"`
	DaysUntilExpiry         int                `bson:"daysUntilExpiry" json:"daysUntilExpiry"`
	AverageDailyConsumption float64            `bson:"averageDailyConsumption" json:"averageDailyConsumption"`
	IsLowStock              bool               `bson:"isLowStock" json:"isLowStock"`
	Status                  StockStatus        `bson:"status" json:"status"`
	BatchNumber             string             `bson:"batchNumber,omitempty" json:"batchNumber,omitempty"`
	Notes                   string             `bson:"notes,omitempty" json:"notes,omitempty"`
	LastRestocked           time.Time          `bson:"lastRestocked" json:"lastRestocked"`
	Version                 int64              `bson:"version" json:"version"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recompute refreshes every derived field. It must run before each persist.
func (s *FeedStock) Recompute(now time.Time) {
	if s.Unit == "" {
		s.Unit = DefaultStockUnit
	}
	if y := YearOfMonth(s.Month); y != 0 {
		s.Year = y
	}
	s.CurrentQuantity = Round(s.CurrentQuantity, 3)
	s.TotalCost = MulRound(s.CurrentQuantity, s.CostPerUnit, 2)
	s.IsLowStock = s.CurrentQuantity <= s.MinimumThreshold
	s.DaysUntilExpiry = DaysUntil(now, s.ExpiryDate)
	s.Status = DeriveStockStatus(s.Status, s.CurrentQuantity, s.ExpiryDate, now)
}

// IsCritical reports whether the bucket is at or below half its threshold.
func (s *FeedStock) IsCritical() bool {
	return s.CurrentQuantity <= s.MinimumThreshold/2
}

// DaysOfStockLeft projects how many days the current quantity lasts at the
// recorded consumption rate. ok is false when no consumption is recorded.
func (s *FeedStock) DaysOfStockLeft() (days float64, ok bool) {
	if s.AverageDailyConsumption <= 0 {
		return 0, false
	}
	return s.CurrentQuantity / s.AverageDailyConsumption, true
}

// DeriveStockStatus applies the status precedence Depleted > Expired >
// Reserved > Active. Reserved is only kept when set explicitly.
func DeriveStockStatus(current StockStatus, quantity float64, expiry, now time.Time) StockStatus {
	switch {
	case quantity <= 0:
		return StockDepleted
	case !expiry.IsZero() && expiry.Before(now):
		return StockExpired
	case current == StockReserved:
		return StockReserved
	default:
		return StockActive
	}
}

// DaysUntil returns whole days from now until t, rounded up; negative when
// t is in the past and zero when t is unset.
func DaysUntil(now, t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
