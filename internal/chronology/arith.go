package chronology

import (
	"fmt"
	"math"
	"strings"
)

// The calendar arithmetic is deliberately approximate: a year is 365.25
// days and a month is a flat 30 days, with no leap rules or variable month
// lengths. Both conversion directions share these exact constants so
// round-trips stay consistent.
const (
	// SecondsPerDay is the length of a day in seconds.
	SecondsPerDay int64 = 86_400

	// SecondsPerMonth is a 30-day month in seconds.
	SecondsPerMonth int64 = 30 * SecondsPerDay

	// SecondsPerYear is a 365.25-day year in seconds.
	SecondsPerYear int64 = 31_557_600
)

// AddYears returns ts shifted by n years. Pure offset addition; no
// calendar-aware carry.
func AddYears(ts, n int64) int64 {
	return ts + n*SecondsPerYear
}

// AddMonths returns ts shifted by n 30-day months.
func AddMonths(ts, n int64) int64 {
	return ts + n*SecondsPerMonth
}

// AddDays returns ts shifted by n days.
func AddDays(ts, n int64) int64 {
	return ts + n*SecondsPerDay
}

// YearsDifference returns the number of years between two timestamps,
// rounded to the nearest whole year. Negative when to precedes from.
func YearsDifference(from, to int64) int64 {
	return int64(math.Round(float64(to-from) / float64(SecondsPerYear)))
}

// YearsToSeconds converts a whole year count to seconds.
func YearsToSeconds(n int64) int64 {
	return n * SecondsPerYear
}

// DescribeTimeSpan renders the distance between two timestamps as a short
// human-readable phrase like "1 year, 1 month" or "3 days". The absolute
// difference is decomposed into years, months, and days using the shared
// constants; zero components are skipped, and the day component is dropped
// entirely once the span reaches a year. A span shorter than a day reads
// "Less than a day".
func DescribeTimeSpan(start, end int64) string {
	diff := end - start
	if diff < 0 {
		diff = -diff
	}

	years := diff / SecondsPerYear
	rem := diff % SecondsPerYear
	months := rem / SecondsPerMonth
	days := (rem % SecondsPerMonth) / SecondsPerDay

	var parts []string
	if years > 0 {
		parts = append(parts, pluralize(years, "year"))
	}
	if months > 0 {
		parts = append(parts, pluralize(months, "month"))
	}
	if days > 0 && years == 0 {
		parts = append(parts, pluralize(days, "day"))
	}

	if len(parts) == 0 {
		return "Less than a day"
	}
	return strings.Join(parts, ", ")
}

// pluralize renders a count with its unit, adding "s" above one.
func pluralize(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
