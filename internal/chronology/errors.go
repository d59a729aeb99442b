package chronology

import "fmt"

// All errors in this package are local and non-retriable: they indicate
// malformed input or configuration, never transient failure. They are
// returned to the immediate caller with no recovery or substitution, with
// one exception -- ToCanonDate degrades to a generic date rendering instead
// of failing when no age covers a timestamp.

// ConfigReason classifies configuration validation failures.
type ConfigReason string

const (
	// ConfigUnknownKind means the calendar kind is outside the closed set.
	ConfigUnknownKind ConfigReason = "unknown_calendar_kind"

	// ConfigMissingField means a required config key is absent for the kind.
	ConfigMissingField ConfigReason = "missing_field"

	// ConfigMalformedAge means an age entry lacks a name or start timestamp.
	ConfigMalformedAge ConfigReason = "malformed_age"
)

// ConfigError reports an invalid calendar configuration. Exactly one of
// Kind, Field, or Index is meaningful, depending on Reason.
type ConfigError struct {
	Reason ConfigReason
	Kind   string // the offending kind string (ConfigUnknownKind)
	Field  string // the missing key (ConfigMissingField)
	Index  int    // the offending ages entry (ConfigMalformedAge)
}

func (e *ConfigError) Error() string {
	switch e.Reason {
	case ConfigUnknownKind:
		return fmt.Sprintf("unknown calendar kind %q", e.Kind)
	case ConfigMissingField:
		return fmt.Sprintf("missing required config field %q", e.Field)
	case ConfigMalformedAge:
		return fmt.Sprintf("ages[%d] must have a name and a start_timestamp", e.Index)
	default:
		return "invalid calendar config"
	}
}

// ParseReason classifies date text parsing failures.
type ParseReason string

const (
	// ParseUnparseableDate means no grammar matched the input text.
	ParseUnparseableDate ParseReason = "unparseable_date"

	// ParseUnknownAge means the text referenced an age absent from config.
	ParseUnknownAge ParseReason = "unknown_age"
)

// ParseError reports date text that could not be converted. Text holds the
// rejected input, or the unrecognized age name for ParseUnknownAge.
type ParseError struct {
	Reason ParseReason
	Text   string
}

func (e *ParseError) Error() string {
	switch e.Reason {
	case ParseUnknownAge:
		return fmt.Sprintf("unknown age %q", e.Text)
	default:
		return fmt.Sprintf("cannot parse date %q", e.Text)
	}
}
