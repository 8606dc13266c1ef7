package models

import "time"

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type AlertKind string

const (
	AlertLowStock      AlertKind = "low_stock"
	AlertCriticalStock AlertKind = "critical_stock"
	AlertExpiring      AlertKind = "expiring"
	AlertExpired       AlertKind = "expired"
	AlertStockout      AlertKind = "stockout"
	AlertOverdueTask   AlertKind = "overdue_task"
	AlertReport        AlertKind = "report"
)

// Alert is a notification raised by an automation pass.
type Alert struct {
	Kind      AlertKind     `json:"kind"`
	Severity  AlertSeverity `json:"severity"`
	FeedType  FeedType      `json:"feedType,omitempty"`
	Month     string        `json:"month,omitempty"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}
