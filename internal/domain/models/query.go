package models

import "time"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListQuery carries pagination, sorting and date-range inputs for list endpoints.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortDesc  bool
	StartDate *time.Time
	EndDate   *time.Time
}

// Normalize clamps page and limit to sane values.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
}

func (q ListQuery) Skip() int64 {
	if q.Page < 1 {
		return 0
	}
	return int64((q.Page - 1) * q.Limit)
}

// Page is one page of a list result.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// Pages returns the number of pages needed for Total items.
func (p Page[T]) Pages() int {
	if p.Limit <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}
