package models

import "time"

// FeedTypeUsage is the usage total of one feed type over a period.
type FeedTypeUsage struct {
	FeedType      FeedType `bson:"_id" json:"feedType"`
	TotalQuantity float64  `bson:"totalQuantity" json:"totalQuantity"`
	TotalCost     float64  `bson:"totalCost" json:"totalCost"`
	Records       int      `bson:"records" json:"records"`
}

// WeeklyFeedReport aggregates feed usage and stock health for a week.
type WeeklyFeedReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Usage         []FeedTypeUsage `json:"usage"`
	TotalQuantity float64         `json:"totalQuantity"`
	TotalCost     float64         `json:"totalCost"`
	LowStock      []FeedStock     `json:"lowStock"`
	CreatedAt     time.Time       `json:"createdAt"`
}
