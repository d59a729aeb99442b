package chronology

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ToTimestamp converts native date text to a timestamp under the given
// validated config. Returns a ParseError when the text matches no grammar
// for the kind, or names an unknown age.
func ToTimestamp(dateText string, cfg *Config) (int64, error) {
	text := strings.TrimSpace(dateText)

	switch cfg.Kind {
	case KindAbsolute:
		return parseAbsolute(text)
	case KindEpochRelative:
		return parseEpochRelative(text, cfg.Epoch)
	case KindAgeBased:
		return parseAgeBased(text, cfg.Ages)
	default:
		return 0, &ConfigError{Reason: ConfigUnknownKind, Kind: string(cfg.Kind)}
	}
}

// --- Absolute ---

// absoluteLayouts are tried in order; the first layout that parses wins.
// All are interpreted as UTC.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func parseAbsolute(text string) (int64, error) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, &ParseError{Reason: ParseUnparseableDate, Text: text}
}

// --- Epoch-relative ---

// epochGrammar pairs a pattern with the conversion it implies. The table
// order below is the dispatch contract: the first matching pattern wins,
// so "32 BBY" resolves through the signed before/after form even though
// the generic year-plus-suffix form would also match it.
type epochGrammar struct {
	pattern *regexp.Regexp
	apply   func(m []string, epoch *EpochConfig) int64
}

var epochGrammars = []epochGrammar{
	{
		// "32 BBY" / "5 ABY": signed years before or after the epoch.
		pattern: regexp.MustCompile(`(?i)^(\d[\d,]*)\s+(BBY|ABY)$`),
		apply: func(m []string, epoch *EpochConfig) int64 {
			years := groupedInt(m[1])
			if strings.EqualFold(m[2], "BBY") {
				years = -years
			}
			return AddYears(epoch.Timestamp, years)
		},
	},
	{
		// "10,191 AG": comma-grouped year count in the epoch's own unit.
		pattern: regexp.MustCompile(`^(\d[\d,]*)\s+([A-Z]+)$`),
		apply: func(m []string, epoch *EpochConfig) int64 {
			return AddYears(epoch.Timestamp, groupedInt(m[1]))
		},
	},
	{
		// "TA 3019": era prefix resolved through the configured offsets.
		// Unknown prefixes count from the epoch itself.
		pattern: regexp.MustCompile(`^([A-Z]+)\s+(\d[\d,]*)$`),
		apply: func(m []string, epoch *EpochConfig) int64 {
			return AddYears(epoch.Timestamp, epoch.AgeOffsets[m[1]]+groupedInt(m[2]))
		},
	},
	{
		// "Year 512".
		pattern: regexp.MustCompile(`(?i)^year\s+(\d[\d,]*)$`),
		apply: func(m []string, epoch *EpochConfig) int64 {
			return AddYears(epoch.Timestamp, groupedInt(m[1]))
		},
	},
	{
		// "3019-03-25 TA": a full date with an era prefix. The year
		// resolves like the prefixed form; month and day are flat offsets
		// from the year's start.
		pattern: regexp.MustCompile(`^(\d{1,6})-(\d{1,2})-(\d{1,2})\s+([A-Z]+)$`),
		apply: func(m []string, epoch *EpochConfig) int64 {
			ts := AddYears(epoch.Timestamp, epoch.AgeOffsets[m[4]]+groupedInt(m[1]))
			ts = AddMonths(ts, groupedInt(m[2])-1)
			return AddDays(ts, groupedInt(m[3])-1)
		},
	},
}

func parseEpochRelative(text string, epoch *EpochConfig) (int64, error) {
	for _, g := range epochGrammars {
		if m := g.pattern.FindStringSubmatch(text); m != nil {
			return g.apply(m, epoch), nil
		}
	}
	return 0, &ParseError{Reason: ParseUnparseableDate, Text: text}
}

// --- Age-based ---

// agePattern matches "<Age Name>, Year <N>"; the comma is optional.
var agePattern = regexp.MustCompile(`(?i)^(.+?),?\s+year\s+(\d[\d,]*)$`)

func parseAgeBased(text string, ages []Age) (int64, error) {
	m := agePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, &ParseError{Reason: ParseUnparseableDate, Text: text}
	}

	name := strings.TrimSpace(m[1])
	for _, age := range ages {
		if strings.EqualFold(age.Name, name) {
			return age.Start + YearsToSeconds(groupedInt(m[2])), nil
		}
	}
	return 0, &ParseError{Reason: ParseUnknownAge, Text: name}
}

// groupedInt converts a digit string with optional thousands commas. The
// grammar patterns guarantee the input is numeric.
func groupedInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	return n
}
