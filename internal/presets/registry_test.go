package presets

import (
	"testing"

	"github.com/keyxmakerx/loreline/internal/chronology"
)

// Every preset must validate and parse its own examples, since creating a
// saga from a preset copies the config verbatim.
func TestRegistryPresetsAreValid(t *testing.T) {
	for _, p := range Registry() {
		t.Run(p.ID, func(t *testing.T) {
			cfg, err := chronology.ValidateConfig(p.Config, p.Kind)
			if err != nil {
				t.Fatalf("preset config does not validate: %v", err)
			}
			if len(cfg.Warnings) > 0 {
				t.Errorf("preset config produced warnings: %v", cfg.Warnings)
			}

			if len(p.Examples) == 0 {
				t.Error("preset has no example dates")
			}
			for _, example := range p.Examples {
				if _, err := chronology.ToTimestamp(example, cfg); err != nil {
					t.Errorf("example %q does not parse: %v", example, err)
				}
			}
		})
	}
}

func TestRegistryIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Registry() {
		if seen[p.ID] {
			t.Errorf("duplicate preset id %q", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestFind(t *testing.T) {
	if p := Find("middle-earth"); p == nil {
		t.Error("expected to find middle-earth preset")
	} else if p.Kind != chronology.KindAgeBased {
		t.Errorf("unexpected kind %q", p.Kind)
	}

	if p := Find("narnia"); p != nil {
		t.Errorf("expected nil for unknown preset, got %+v", p)
	}
}
