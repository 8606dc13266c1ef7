package models

import "time"

// StockFilter narrows feed stock listings.
type StockFilter struct {
	FeedType FeedType
	Month    string
	Year     int
	Status   []StockStatus
	LowStock *bool
}

// UsageFilter narrows feed usage listings.
type UsageFilter struct {
	FeedType   FeedType
	Month      string
	From       *time.Time
	To         *time.Time
	RecordedBy string
	Verified   *bool
}

type EggFilter struct {
	House string
	From  *time.Time
	To    *time.Time
}

type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Customer      string
	From          *time.Time
	To            *time.Time
}

type TaskFilter struct {
	Status     []TaskStatus
	Priority   TaskPriority
	Category   string
	AssignedTo string
	DueBefore  *time.Time
	DueFrom    *time.Time
}

type FinanceFilter struct {
	Type     RecordType
	Category string
	From     *time.Time
	To       *time.Time
}
