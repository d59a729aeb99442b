package chronology

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToCanonDate renders a timestamp back into the universe's native notation.
// It never fails: an age_based timestamp outside every configured age
// degrades to a plain calendar date instead of erroring, which keeps
// display paths tolerant while parsing stays strict.
func ToCanonDate(ts int64, cfg *Config) string {
	switch cfg.Kind {
	case KindEpochRelative:
		return formatEpochRelative(ts, cfg.Epoch)
	case KindAgeBased:
		return formatAgeBased(ts, cfg.Ages)
	default:
		return formatAbsolute(ts)
	}
}

// formatAbsolute renders the timestamp as a UTC "YYYY-MM-DD HH:MM:SS".
func formatAbsolute(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}

// formatEpochRelative renders years-from-epoch, either through the custom
// template or as "<years> <epoch>" with a "B" marker for years before it.
func formatEpochRelative(ts int64, epoch *EpochConfig) string {
	yearsDiff := YearsDifference(epoch.Timestamp, ts)

	if epoch.Format != "" {
		return applyEpochTemplate(epoch.Format, ts, yearsDiff, epoch.Name)
	}
	if yearsDiff < 0 {
		return fmt.Sprintf("%d B%s", -yearsDiff, epoch.Name)
	}
	return fmt.Sprintf("%d %s", yearsDiff, epoch.Name)
}

// applyEpochTemplate substitutes the supported placeholders into a custom
// format template. Month and day derive from the raw timestamp's UTC
// calendar date; month names are English.
func applyEpochTemplate(format string, ts, yearsDiff int64, epochName string) string {
	t := time.Unix(ts, 0).UTC()

	year := yearsDiff
	sign := ""
	if yearsDiff < 0 {
		year = -yearsDiff
		sign = "B"
	}

	return strings.NewReplacer(
		"{year}", strconv.FormatInt(year, 10),
		"{epoch}", epochName,
		"{sign}", sign,
		"{month}", strconv.Itoa(int(t.Month())),
		"{day}", strconv.Itoa(t.Day()),
		"{month_name}", t.Month().String(),
	).Replace(format)
}

// formatAgeBased renders "<Age Name>, Year <N>" for the first age whose
// half-open range [start, end) contains the timestamp, scanning in array
// order so overlaps resolve to the earlier entry. With no covering age the
// timestamp falls back to a generic date string.
func formatAgeBased(ts int64, ages []Age) string {
	for _, age := range ages {
		if ts < age.Start {
			continue
		}
		if age.End != nil && ts >= *age.End {
			continue
		}
		return fmt.Sprintf("%s, Year %d", age.Name, YearsDifference(age.Start, ts))
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
