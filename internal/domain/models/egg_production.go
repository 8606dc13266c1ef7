package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EggsPerTray = 30

// EggProduction captures one day's collection for a house.
type EggProduction struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Date           time.Time          `bson:"date" json:"date"`
	House          string             `bson:"house" json:"house"`
	TotalBirds     int                `bson:"totalBirds" json:"totalBirds"`
	EggsCollected  int                `bson:"eggsCollected" json:"eggsCollected"`
	BrokenEggs     int                `bson:"brokenEggs" json:"brokenEggs"`
	SmallEggs      int                `bson:"smallEggs" json:"smallEggs"`
	LargeEggs      int                `bson:"largeEggs" json:"largeEggs"`
	GoodEggs       int                `bson:"goodEggs" json:"goodEggs"`
	ProductionRate float64            `bson:"productionRate" json:"productionRate"`
	Trays          int                `bson:"trays" json:"trays"`
	LooseEggs      int                `bson:"looseEggs" json:"looseEggs"`
	Mortality      int                `bson:"mortality" json:"mortality"`
	FeedConsumed   float64            `bson:"feedConsumed" json:"feedConsumed"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedBy     string             `bson:"recordedBy" json:"recordedBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Derive recomputes good eggs, trays and the laying rate.
func (e *EggProduction) Derive() {
	e.Date = StartOfDay(e.Date)
	e.GoodEggs = e.EggsCollected - e.BrokenEggs
	if e.GoodEggs < 0 {
		e.GoodEggs = 0
	}
	e.Trays = e.GoodEggs / EggsPerTray
	e.LooseEggs = e.GoodEggs % EggsPerTray
	e.ProductionRate = 0
	if e.TotalBirds > 0 {
		e.ProductionRate = DivRound(float64(e.EggsCollected)*100, float64(e.TotalBirds), 2)
	}
}
