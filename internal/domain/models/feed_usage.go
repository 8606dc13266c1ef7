package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostAnalysis is captured from the stock bucket when the usage is written
// and is not re-derived when the bucket's cost changes later.
type CostAnalysis struct {
	CostPerKg   float64 `bson:"costPerKg" json:"costPerKg"`
	DailyCost   float64 `bson:"dailyCost" json:"dailyCost"`
	CostPerBird float64 `bson:"costPerBird" json:"costPerBird"`
}

type QualityObservation struct {
	Condition string  `bson:"condition,omitempty" json:"condition,omitempty"`
	Moisture  float64 `bson:"moisture,omitempty" json:"moisture,omitempty"`
	Notes     string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

type HealthObservation struct {
	Observations     string  `bson:"observations,omitempty" json:"observations,omitempty"`
	Mortality        int     `bson:"mortality,omitempty" json:"mortality,omitempty"`
	WaterConsumption float64 `bson:"waterConsumption,omitempty" json:"waterConsumption,omitempty"`
}

type EnvironmentReading struct {
	Temperature float64 `bson:"temperature,omitempty" json:"temperature,omitempty"`
	Humidity    float64 `bson:"humidity,omitempty" json:"humidity,omitempty"`
}

// FeedUsage is one dated consumption event against a stock bucket.
// At most one usage exists per (FeedType, Date).
type FeedUsage struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	FeedType     FeedType            `bson:"feedType" json:"feedType"`
	Date         time.Time           `bson:"date" json:"date"`
	Month        string              `bson:"month" json:"month"`
	QuantityUsed float64             `bson:"quantityUsed" json:"quantityUsed"`
	TotalBirds   int                 `bson:"totalBirds" json:"totalBirds"`
	FeedPerBird  float64             `bson:"feedPerBird" json:"feedPerBird"`
	CostAnalysis CostAnalysis        `bson:"costAnalysis" json:"costAnalysis"`
	Quality      *QualityObservation `bson:"quality,omitempty" json:"quality,omitempty"`
	Health       *HealthObservation  `bson:"health,omitempty" json:"health,omitempty"`
	Environment  *EnvironmentReading `bson:"environment,omitempty" json:"environment,omitempty"`
	RecordedBy   string              `bson:"recordedBy" json:"recordedBy"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	IsVerified   bool                `bson:"isVerified" json:"isVerified"`
	VerifiedBy   string              `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time          `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	StockID      primitive.ObjectID  `bson:"stockId,omitempty" json:"stockId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Derive normalises the date and refreshes the fields computed from the row
// itself. CostAnalysis.CostPerKg must already be set.
func (u *FeedUsage) Derive() {
	u.Date = StartOfDay(u.Date)
	u.Month = MonthOf(u.Date)
	u.QuantityUsed = Round(u.QuantityUsed, 3)
	u.FeedPerBird = 0
	u.CostAnalysis.CostPerBird = 0
	u.CostAnalysis.DailyCost = MulRound(u.QuantityUsed, u.CostAnalysis.CostPerKg, 2)
	if u.TotalBirds > 0 {
		u.FeedPerBird = DivRound(u.QuantityUsed, float64(u.TotalBirds), 3)
		u.CostAnalysis.CostPerBird = DivRound(u.CostAnalysis.DailyCost, float64(u.TotalBirds), 4)
	}
}
