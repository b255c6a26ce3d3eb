package model

import (
	"fmt"
	"time"
)

// Granularity is the size of the time buckets a report groups by.
type Granularity string

// Granularity constants.
const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityYearly:
		return true
	}
	return false
}

// ParseGranularity converts user input into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown granularity %q (want daily, weekly, monthly or yearly)", s)
	}
	return g, nil
}

// ReportFilters selects the transactions a report covers. Both dates are
// inclusive at day resolution.
type ReportFilters struct {
	StartDate   time.Time
	EndDate     time.Time
	Granularity Granularity
}

// Normalized returns filters whose start is not after the end. An inverted
// range collapses to the single day of StartDate; a zero date stays open.
func (f ReportFilters) Normalized() ReportFilters {
	if !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		f.EndDate = f.StartDate
	}
	if f.Granularity == "" {
		f.Granularity = GranularityMonthly
	}
	return f
}
