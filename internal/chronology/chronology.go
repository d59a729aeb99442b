// Package chronology converts between a fictional universe's native date
// notation (e.g. "32 BBY", "10,191 AG", "Third Age, Year 3019") and a single
// linear timestamp, a signed count of seconds on an arbitrary axis. The
// timestamp is what the rest of the system persists, sorts, and range-filters;
// the native "canon date" string is a derived representation regenerated on
// demand.
//
// Which notation applies is driven by a per-saga configuration record
// validated into a Config. Three calendar kinds exist: absolute (standard
// linear dates), epoch_relative (years counted from a named zero point), and
// age_based (a sequence of named eras, each with its own local year count).
//
// Every operation is a stateless pure function: no I/O, no logging, no shared
// mutable state. Validation diagnostics that are not errors (such as
// overlapping age ranges) are returned as data on Config.
package chronology

import "strings"

// Kind identifies the calendar system a saga uses. The set is closed;
// anything else is rejected by ParseKind and ValidateConfig.
type Kind string

const (
	// KindAbsolute is a standard linear (Gregorian-like) calendar.
	// Needs no extra configuration.
	KindAbsolute Kind = "absolute"

	// KindEpochRelative counts years from a named epoch, like Star Wars
	// BBY/ABY or Dune's "After Guild" reckoning.
	KindEpochRelative Kind = "epoch_relative"

	// KindAgeBased divides history into named eras ("Third Age"), each
	// with a year count starting at its own beginning.
	KindAgeBased Kind = "age_based"
)

// ParseKind converts a stored kind string to a Kind. Matching is
// case-insensitive; the canonical form is lowercase.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAbsolute:
		return KindAbsolute, nil
	case KindEpochRelative:
		return KindEpochRelative, nil
	case KindAgeBased:
		return KindAgeBased, nil
	default:
		return "", &ConfigError{Reason: ConfigUnknownKind, Kind: s}
	}
}

// IsValid reports whether k is one of the three supported kinds.
func (k Kind) IsValid() bool {
	return k == KindAbsolute || k == KindEpochRelative || k == KindAgeBased
}
