package report

import (
	"fmt"
	"time"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDay returns the last representable instant of t's UTC day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// PeriodStart returns the first day of the bucket containing t. Weeks start
// on Monday.
func PeriodStart(t time.Time, g model.Granularity) time.Time {
	base := startOfDay(t)
	switch g {
	case model.GranularityWeekly:
		offset := (int(base.Weekday()) + 6) % 7
		return base.AddDate(0, 0, -offset)
	case model.GranularityMonthly:
		return time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
	case model.GranularityYearly:
		return time.Date(base.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return base
	}
}

// PeriodEnd returns the last instant of the bucket that starts at start.
func PeriodEnd(start time.Time, g model.Granularity) time.Time {
	base := startOfDay(start)
	switch g {
	case model.GranularityWeekly:
		base = base.AddDate(0, 0, 6)
	case model.GranularityMonthly:
		base = base.AddDate(0, 1, -1)
	case model.GranularityYearly:
		base = time.Date(base.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return endOfDay(base)
}

// PeriodKey identifies a bucket: "<granularity>-<unix millis of its start>".
func PeriodKey(start time.Time, g model.Granularity) string {
	return fmt.Sprintf("%s-%d", g, start.UnixMilli())
}

// PeriodLabel is the display label of a bucket.
func PeriodLabel(start, end time.Time, g model.Granularity) string {
	switch g {
	case model.GranularityWeekly:
		return start.Format("Jan 2") + " - " + end.Format("Jan 2")
	case model.GranularityMonthly:
		return start.Format("Jan 2006")
	case model.GranularityYearly:
		return start.Format("2006")
	default:
		return start.Format("Jan 2")
	}
}
