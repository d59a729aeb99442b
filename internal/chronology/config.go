package chronology

import (
	"encoding/json"
	"fmt"
)

// Config is the validated, kind-tagged calendar configuration. It is the
// only form ToTimestamp and ToCanonDate accept, so callers must run
// ValidateConfig before converting. Constructed once per saga record from
// the stored JSON and used read-only afterwards.
type Config struct {
	// Kind selects the populated branch below.
	Kind Kind

	// Epoch is set when Kind == KindEpochRelative.
	Epoch *EpochConfig

	// Ages is set when Kind == KindAgeBased. Lookup is a linear scan in
	// array order; the first range containing a timestamp wins, so the
	// ordering here is part of the contract.
	Ages []Age

	// Warnings holds non-fatal diagnostics found during validation, such
	// as overlapping age ranges. The caller decides whether to surface or
	// log them; this package never does.
	Warnings []string
}

// EpochConfig configures an epoch_relative calendar. The JSON tags match
// the keys of the stored calendar_config column.
type EpochConfig struct {
	// Name is the epoch's display name, e.g. "AG".
	Name string `json:"epoch_name"`

	// Timestamp is the epoch's zero point on the linear axis.
	Timestamp int64 `json:"epoch_timestamp"`

	// AgeOffsets maps era prefixes (e.g. "TA") to year offsets added to a
	// prefixed year before conversion. Missing prefixes resolve to 0.
	AgeOffsets map[string]int64 `json:"age_offsets,omitempty"`

	// Format is an optional rendering template for ToCanonDate supporting
	// {year}, {epoch}, {sign}, {month}, {day}, and {month_name}. Empty
	// means the default rendering.
	Format string `json:"format,omitempty"`
}

// Age is one named era of an age_based calendar.
type Age struct {
	Name string `json:"name"`

	// Start is the age's first instant on the linear axis.
	Start int64 `json:"start_timestamp"`

	// End bounds the age exclusively; nil means open-ended (the current
	// era).
	End *int64 `json:"end_timestamp,omitempty"`
}

// ValidateConfig normalizes a loosely-typed configuration record (a decoded
// JSON object) for the given kind. All field presence checks happen here;
// the conversion operations can then switch on Kind without re-checking.
func ValidateConfig(raw map[string]any, kind Kind) (*Config, error) {
	switch kind {
	case KindAbsolute:
		// No configuration needed for standard linear dates.
		return &Config{Kind: KindAbsolute}, nil

	case KindEpochRelative:
		epoch, err := validateEpoch(raw)
		if err != nil {
			return nil, err
		}
		return &Config{Kind: KindEpochRelative, Epoch: epoch}, nil

	case KindAgeBased:
		ages, err := validateAges(raw)
		if err != nil {
			return nil, err
		}
		return &Config{
			Kind:     KindAgeBased,
			Ages:     ages,
			Warnings: overlapWarnings(ages),
		}, nil

	default:
		return nil, &ConfigError{Reason: ConfigUnknownKind, Kind: string(kind)}
	}
}

// MarshalConfig serializes the validated config back to the canonical JSON
// object shape accepted by ValidateConfig. Warnings are derived data and
// are not persisted.
func (c *Config) MarshalConfig() ([]byte, error) {
	switch c.Kind {
	case KindEpochRelative:
		return json.Marshal(c.Epoch)
	case KindAgeBased:
		return json.Marshal(struct {
			Ages []Age `json:"ages"`
		}{Ages: c.Ages})
	default:
		return []byte("{}"), nil
	}
}

// validateEpoch extracts and checks the epoch_relative fields.
func validateEpoch(raw map[string]any) (*EpochConfig, error) {
	name, ok := stringValue(raw["epoch_name"])
	if !ok {
		return nil, &ConfigError{Reason: ConfigMissingField, Field: "epoch_name"}
	}
	ts, ok := intValue(raw["epoch_timestamp"])
	if !ok {
		return nil, &ConfigError{Reason: ConfigMissingField, Field: "epoch_timestamp"}
	}

	epoch := &EpochConfig{
		Name:       name,
		Timestamp:  ts,
		AgeOffsets: map[string]int64{},
	}

	if offsets, ok := raw["age_offsets"].(map[string]any); ok {
		for prefix, v := range offsets {
			if offset, ok := intValue(v); ok {
				epoch.AgeOffsets[prefix] = offset
			}
		}
	}
	if format, ok := stringValue(raw["format"]); ok {
		epoch.Format = format
	}

	return epoch, nil
}

// validateAges extracts and checks the age_based era list. An empty list is
// structurally valid; lookups will then always miss.
func validateAges(raw map[string]any) ([]Age, error) {
	v, present := raw["ages"]
	if !present {
		return nil, &ConfigError{Reason: ConfigMissingField, Field: "ages"}
	}
	entries, ok := v.([]any)
	if !ok {
		return nil, &ConfigError{Reason: ConfigMissingField, Field: "ages"}
	}

	ages := make([]Age, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, &ConfigError{Reason: ConfigMalformedAge, Index: i}
		}
		name, ok := stringValue(m["name"])
		if !ok {
			return nil, &ConfigError{Reason: ConfigMalformedAge, Index: i}
		}
		start, ok := intValue(m["start_timestamp"])
		if !ok {
			return nil, &ConfigError{Reason: ConfigMalformedAge, Index: i}
		}

		age := Age{Name: name, Start: start}
		if end, ok := intValue(m["end_timestamp"]); ok {
			age.End = &end
		}
		ages = append(ages, age)
	}
	return ages, nil
}

// overlapWarnings reports every pair of age ranges that intersect. Overlap
// is legal -- the earlier array entry wins all lookups -- but almost always
// a configuration mistake worth surfacing.
func overlapWarnings(ages []Age) []string {
	var warnings []string
	for i := 0; i < len(ages); i++ {
		for j := i + 1; j < len(ages); j++ {
			if agesOverlap(ages[i], ages[j]) {
				warnings = append(warnings, fmt.Sprintf(
					"ages %q and %q overlap; the earlier entry wins lookups",
					ages[i].Name, ages[j].Name,
				))
			}
		}
	}
	return warnings
}

// agesOverlap treats ranges as half-open [start, end) with a nil end
// extending to infinity.
func agesOverlap(a, b Age) bool {
	aBeforeB := a.End != nil && *a.End <= b.Start
	bBeforeA := b.End != nil && *b.End <= a.Start
	return !aBeforeB && !bBeforeA
}

// stringValue coerces a raw config value into a non-empty string.
func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intValue coerces a raw config value into an int64. JSON decoding yields
// float64; configs built in Go code (presets, tests) carry int or int64;
// json.Number appears when a caller decodes with UseNumber.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}
