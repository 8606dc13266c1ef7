package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FeedType enumerates the poultry feed categories tracked by the farm.
type FeedType string

const (
	FeedLayer           FeedType = "Layer Feed"
	FeedStarter         FeedType = "Starter Feed"
	FeedGrower          FeedType = "Grower Feed"
	FeedBroilerStarter  FeedType = "Broiler Starter"
	FeedBroilerFinisher FeedType = "Broiler Finisher"
	FeedChickMash       FeedType = "Chick Mash"
	FeedOther           FeedType = "Other"
)

// FeedTypes lists every accepted feed type in display order.
var FeedTypes = []FeedType{
	FeedLayer, FeedStarter, FeedGrower, FeedBroilerStarter, FeedBroilerFinisher, FeedChickMash, FeedOther,
}

// Valid reports whether f is one of FeedTypes.
func (f FeedType) Valid() bool {
	for _, known := range FeedTypes {
		if f == known {
			return true
		}
	}
	return false
}

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonth reports whether s is a YYYY-MM month key.
func ValidMonth(s string) bool {
	return monthPattern.MatchString(s)
}

// MonthOf returns the YYYY-MM key of t in UTC.
func MonthOf(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// YearOfMonth extracts the year from a YYYY-MM key.
func YearOfMonth(month string) int {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return 0
	}
	return t.Year()
}

// MonthRange returns [start, end) of a YYYY-MM key in UTC.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// NextMonth returns the key following month.
func NextMonth(month string) string {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return ""
	}
	return start.AddDate(0, 1, 0).Format(MonthLayout)
}

// ParseDay parses a calendar day, accepting YYYY-MM-DD or RFC3339, and
// truncates it to midnight UTC.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return StartOfDay(t), nil
}

// StartOfDay truncates t to midnight UTC of the same calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
