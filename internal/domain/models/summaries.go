package models

// Bucket is a generic group-by row.
type Bucket struct {
	Key    string  `bson:"_id" json:"key"`
	Count  int64   `bson:"count" json:"count"`
	Amount float64 `bson:"amount" json:"amount"`
}

// UsageTotals is the usage aggregate of one feed type in one month.
type UsageTotals struct {
	Quantity float64 `bson:"quantity" json:"quantity"`
	Days     int     `bson:"days" json:"days"`
}

// AverageDaily returns quantity per recorded usage day.
func (t UsageTotals) AverageDaily() float64 {
	if t.Days <= 0 {
		return 0
	}
	return DivRound(t.Quantity, float64(t.Days), 2)
}

type StockTypeSummary struct {
	FeedType FeedType `bson:"_id" json:"feedType"`
	Quantity float64  `bson:"quantity" json:"quantity"`
	Value    float64  `bson:"value" json:"value"`
	Buckets  int      `bson:"buckets" json:"buckets"`
	LowStock int      `bson:"lowStock" json:"lowStock"`
}

type StockSummary struct {
	TotalRecords  int64              `json:"totalRecords"`
	TotalQuantity float64            `json:"totalQuantity"`
	TotalValue    float64            `json:"totalValue"`
	LowStockCount int64              `json:"lowStockCount"`
	ByFeedType    []StockTypeSummary `json:"byFeedType"`
	ByStatus      []Bucket           `json:"byStatus"`
}

// StockAlerts groups buckets needing attention.
type StockAlerts struct {
	LowStock []FeedStock `json:"lowStock"`
	Critical []FeedStock `json:"critical"`
	Expiring []FeedStock `json:"expiring"`
	Expired  []FeedStock `json:"expired"`
}

type DailyUsage struct {
	Date     string  `bson:"_id" json:"date"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Cost     float64 `bson:"cost" json:"cost"`
}

type UsageSummary struct {
	TotalQuantity float64         `json:"totalQuantity"`
	TotalCost     float64         `json:"totalCost"`
	Records       int             `json:"records"`
	AveragePerDay float64         `json:"averagePerDay"`
	Unverified    int64           `json:"unverified"`
	ByFeedType    []FeedTypeUsage `json:"byFeedType"`
	Daily         []DailyUsage    `json:"daily"`
}

type HouseProduction struct {
	House         string  `bson:"_id" json:"house"`
	EggsCollected int64   `bson:"eggsCollected" json:"eggsCollected"`
	GoodEggs      int64   `bson:"goodEggs" json:"goodEggs"`
	AverageRate   float64 `bson:"averageRate" json:"averageRate"`
	Records       int64   `bson:"records" json:"records"`
}

type DailyProduction struct {
	Date          string  `bson:"_id" json:"date"`
	EggsCollected int64   `bson:"eggsCollected" json:"eggsCollected"`
	AverageRate   float64 `bson:"averageRate" json:"averageRate"`
}

type EggSummary struct {
	Records        int64             `bson:"records" json:"records"`
	EggsCollected  int64             `bson:"eggsCollected" json:"eggsCollected"`
	GoodEggs       int64             `bson:"goodEggs" json:"goodEggs"`
	BrokenEggs     int64             `bson:"brokenEggs" json:"brokenEggs"`
	Mortality      int64             `bson:"mortality" json:"mortality"`
	AverageRate    float64           `bson:"averageRate" json:"averageRate"`
	TotalTrays     int64             `json:"totalTrays"`
	ByHouse        []HouseProduction `json:"byHouse"`
	DailyBreakdown []DailyProduction `json:"daily"`
}

type ProductSales struct {
	Product  string  `bson:"_id" json:"product"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
}

type CustomerSales struct {
	Name   string  `bson:"_id" json:"name"`
	Orders int64   `bson:"orders" json:"orders"`
	Amount float64 `bson:"amount" json:"amount"`
}

type SalesTotals struct {
	Orders      int64   `bson:"orders" json:"orders"`
	Revenue     float64 `bson:"revenue" json:"revenue"`
	Paid        float64 `bson:"paid" json:"paid"`
	Outstanding float64 `bson:"outstanding" json:"outstanding"`
}

type SalesSummary struct {
	SalesTotals
	AverageOrderValue float64         `json:"averageOrderValue"`
	ByStatus          []Bucket        `json:"byStatus"`
	ByPaymentStatus   []Bucket        `json:"byPaymentStatus"`
	ByProduct         []ProductSales  `json:"byProduct"`
	TopCustomers      []CustomerSales `json:"topCustomers"`
}

type TaskDashboard struct {
	Total          int64    `json:"total"`
	CompletionRate float64  `json:"completionRate"`
	ByStatus       []Bucket `json:"byStatus"`
	ByPriority     []Bucket `json:"byPriority"`
	ByCategory     []Bucket `json:"byCategory"`
	Overdue        []Task   `json:"overdue"`
	Upcoming       []Task   `json:"upcoming"`
}

type CategoryAmount struct {
	Type     RecordType `bson:"type" json:"type"`
	Category string     `bson:"category" json:"category"`
	Amount   float64    `bson:"amount" json:"amount"`
	Count    int64      `bson:"count" json:"count"`
}

type MonthlyFinance struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// MonthlyAmount is one (month, type) total as produced by aggregation.
type MonthlyAmount struct {
	Month  string     `bson:"month" json:"month"`
	Type   RecordType `bson:"type" json:"type"`
	Amount float64    `bson:"amount" json:"amount"`
}

type FinanceSummary struct {
	TotalIncome  float64          `json:"totalIncome"`
	TotalExpense float64          `json:"totalExpense"`
	NetProfit    float64          `json:"netProfit"`
	ProfitMargin float64          `json:"profitMargin"`
	Records      int64            `json:"records"`
	ByCategory   []CategoryAmount `json:"byCategory"`
	Monthly      []MonthlyFinance `json:"monthly"`
}
