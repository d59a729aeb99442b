// Package presets defines the built-in calendar presets for Loreline.
// Presets are ready-made calendar configurations for well-known fictional
// universes. They are read-only; creating a saga from a preset copies the
// config, so edits to the saga never touch the preset.
package presets

import (
	"github.com/keyxmakerx/loreline/internal/chronology"
)

// PresetInfo holds metadata and the calendar configuration for a preset.
type PresetInfo struct {
	// ID is the unique machine-readable identifier (e.g., "middle-earth").
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Description is a short summary of the calendar system.
	Description string `json:"description"`

	// Kind is the calendar kind the config is written for.
	Kind chronology.Kind `json:"kind"`

	// Config is the raw calendar configuration, in the same shape as a
	// saga's calendar_config column.
	Config map[string]any `json:"config"`

	// Examples lists date strings this calendar parses, for API consumers
	// exploring the preset.
	Examples []string `json:"examples"`
}

// Registry returns the list of all built-in presets. This is the canonical
// source of truth for what presets exist in Loreline.
func Registry() []PresetInfo {
	return []PresetInfo{
		{
			ID:          "galactic-standard",
			Name:        "Galactic Standard Calendar",
			Description: "Years counted before and after a galaxy-defining battle. Dates before the epoch use the BBY marker, dates after use ABY.",
			Kind:        chronology.KindEpochRelative,
			Config: map[string]any{
				"epoch_name":      "BY",
				"epoch_timestamp": int64(0),
			},
			Examples: []string{"32 BBY", "0 BBY", "4 ABY"},
		},
		{
			ID:          "imperium",
			Name:        "Imperial Reckoning",
			Description: "Years After Guild, counted from the founding of the spacing guild. Large years are written with comma grouping.",
			Kind:        chronology.KindEpochRelative,
			Config: map[string]any{
				"epoch_name":      "AG",
				"epoch_timestamp": int64(0),
			},
			Examples: []string{"10,191 AG", "Year 10191"},
		},
		{
			ID:          "middle-earth",
			Name:        "Ages of Middle-earth",
			Description: "Named ages with their own year counts. The Third Age opens at the anchor point of the timeline.",
			Kind:        chronology.KindAgeBased,
			Config: map[string]any{
				"ages": []any{
					map[string]any{
						"name":            "First Age",
						"start_timestamp": -4031 * chronology.SecondsPerYear,
						"end_timestamp":   -3441 * chronology.SecondsPerYear,
					},
					map[string]any{
						"name":            "Second Age",
						"start_timestamp": -3441 * chronology.SecondsPerYear,
						"end_timestamp":   int64(0),
					},
					map[string]any{
						"name":            "Third Age",
						"start_timestamp": int64(0),
						"end_timestamp":   3021 * chronology.SecondsPerYear,
					},
					map[string]any{
						"name":            "Fourth Age",
						"start_timestamp": 3021 * chronology.SecondsPerYear,
					},
				},
			},
			Examples: []string{"Third Age, Year 3019", "Second Age, Year 3441"},
		},
		{
			ID:          "gregorian",
			Name:        "Gregorian Calendar",
			Description: "Plain real-world dates for stories set in the here and now.",
			Kind:        chronology.KindAbsolute,
			Config:      map[string]any{},
			Examples:    []string{"2024-03-01", "March 1, 2024"},
		},
	}
}

// Find returns the preset info for a given ID, or nil if not found.
func Find(id string) *PresetInfo {
	for _, p := range Registry() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}
