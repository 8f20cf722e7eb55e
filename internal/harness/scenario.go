package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/machine"
)

// Scenario is one end-to-end test of a machine world.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Catalog is a catalog file path, relative to the scenario file.
	// Exactly one of Catalog and Tables must be set.
	Catalog string `yaml:"catalog,omitempty"`

	// Tables is an inline catalog.
	Tables *catalog.Tables `yaml:"tables,omitempty"`

	// StrictCounts and Duplicates configure every machine, as in a level file.
	StrictCounts bool   `yaml:"strict_counts,omitempty"`
	Duplicates   string `yaml:"duplicates,omitempty"`

	Machines []machine.Config `yaml:"machines"`

	// ExpectBuildError names the configuration error building the world
	// must fail with. Steps and assertions are skipped when set.
	ExpectBuildError string `yaml:"expect_build_error,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one action field must be set.
type Step struct {
	Place    *PlaceStep     `yaml:"place,omitempty"`
	Enter    *ProximityStep `yaml:"enter,omitempty"`
	Leave    *ProximityStep `yaml:"leave,omitempty"`
	Select   string         `yaml:"select,omitempty"`
	Clear    bool           `yaml:"clear,omitempty"`
	Toggle   *ToggleStep    `yaml:"toggle,omitempty"`
	Spawn    *SpawnStep     `yaml:"spawn,omitempty"`
	Describe bool           `yaml:"describe,omitempty"`

	// ExpectError is the error code the step must fail with (see ErrorCode).
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectTransactions, if set, is the number of transactions the step must trigger.
	ExpectTransactions *int `yaml:"expect_transactions,omitempty"`
}

// PlaceStep puts a world-owned shape into play under a scenario alias.
type PlaceStep struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
}

// ProximityStep reports a shape entering or leaving a machine's zone.
// ID is a placed alias; an unplaced ID is used verbatim as the handle.
// Kind defaults to the placed shape's kind.
type ProximityStep struct {
	Machine string `yaml:"machine"`
	ID      string `yaml:"id"`
	Kind    string `yaml:"kind,omitempty"`
}

// ToggleStep sets a recipe's enabled flag on the selected machine.
type ToggleStep struct {
	Recipe  string `yaml:"recipe"`
	Enabled bool   `yaml:"enabled"`
}

// SpawnStep manually spawns a recipe's output at the selected machine.
type SpawnStep struct {
	Recipe string `yaml:"recipe"`
}

// Assertion validates the final world, trace or journal.
type Assertion struct {
	Type string `yaml:"type"`

	Machine string `yaml:"machine,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Recipe  string `yaml:"recipe,omitempty"`

	// Count is used by count, live and transactions.
	Count *int `yaml:"count,omitempty"`

	// Kinds is the expected ordered list of produced kinds (spawned).
	Kinds []string `yaml:"kinds"`

	// Effects is the expected ordered list of played effects (effects).
	Effects []string `yaml:"effects"`

	Enabled  *bool   `yaml:"enabled,omitempty"`
	Selected *string `yaml:"selected,omitempty"`

	// Events and Transactions are expected journal row counts (journal).
	Events       *int `yaml:"events,omitempty"`
	Transactions *int `yaml:"transactions,omitempty"`
}

// Assertion type constants.
const (
	AssertCount        = "count"
	AssertLive         = "live"
	AssertSpawned      = "spawned"
	AssertTransactions = "transactions"
	AssertEnabled      = "enabled"
	AssertSelected     = "selected"
	AssertEffects      = "effects"
	AssertJournal      = "journal"
)

// LoadScenario reads a scenario file. Unknown fields are rejected and the
// catalog path is resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if s.Catalog != "" && !filepath.IsAbs(s.Catalog) {
		s.Catalog = filepath.Join(filepath.Dir(path), s.Catalog)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Catalog == "") == (s.Tables == nil) {
		return fmt.Errorf("exactly one of catalog and tables is required")
	}
	if s.ExpectBuildError != "" {
		if _, ok := buildErrors[s.ExpectBuildError]; !ok {
			return fmt.Errorf("unknown expect_build_error %q", s.ExpectBuildError)
		}
		return nil
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st Step) error {
	n := 0
	for _, set := range []bool{
		st.Place != nil, st.Enter != nil, st.Leave != nil, st.Select != "",
		st.Clear, st.Toggle != nil, st.Spawn != nil, st.Describe,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", i, n)
	}

	switch {
	case st.Place != nil:
		if st.Place.ID == "" || st.Place.Kind == "" {
			return fmt.Errorf("steps[%d]: place requires id and kind", i)
		}
	case st.Enter != nil, st.Leave != nil:
		p := st.Enter
		if p == nil {
			p = st.Leave
		}
		if p.Machine == "" || p.ID == "" {
			return fmt.Errorf("steps[%d]: proximity step requires machine and id", i)
		}
	case st.Toggle != nil:
		if st.Toggle.Recipe == "" {
			return fmt.Errorf("steps[%d]: toggle requires recipe", i)
		}
	case st.Spawn != nil:
		if st.Spawn.Recipe == "" {
			return fmt.Errorf("steps[%d]: spawn requires recipe", i)
		}
	}

	if st.ExpectError != "" {
		if _, ok := stepErrors[st.ExpectError]; !ok {
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, st.ExpectError)
		}
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertCount:
		if a.Machine == "" || a.Kind == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: count requires machine, kind and count", i)
		}
	case AssertLive:
		if a.Kind == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: live requires kind and count", i)
		}
	case AssertSpawned:
		if a.Kinds == nil {
			return fmt.Errorf("assertions[%d]: spawned requires kinds", i)
		}
	case AssertTransactions:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: transactions requires count", i)
		}
	case AssertEnabled:
		if a.Machine == "" || a.Recipe == "" || a.Enabled == nil {
			return fmt.Errorf("assertions[%d]: enabled requires machine, recipe and enabled", i)
		}
	case AssertSelected:
		if a.Selected == nil {
			return fmt.Errorf("assertions[%d]: selected requires selected", i)
		}
	case AssertEffects:
		if a.Effects == nil {
			return fmt.Errorf("assertions[%d]: effects requires effects", i)
		}
	case AssertJournal:
		if a.Events == nil && a.Transactions == nil {
			return fmt.Errorf("assertions[%d]: journal requires events or transactions", i)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
