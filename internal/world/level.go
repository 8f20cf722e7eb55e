package world

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shapeforge/internal/inventory"
	"github.com/roach88/shapeforge/internal/machine"
)

// Level is the placement file for one map.
type Level struct {
	// StrictCounts requires one instance per listed input occurrence.
	StrictCounts bool `yaml:"strict_counts,omitempty" json:"strict_counts,omitempty"`

	// Duplicates is "allow" (default) or "ignore"; see inventory.DuplicatePolicy.
	Duplicates string `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`

	Machines []machine.Config `yaml:"machines" json:"machines"`
}

// LoadLevel reads a level YAML file. Unknown fields are rejected.
func LoadLevel(path string) (Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Level{}, fmt.Errorf("read level %s: %w", path, err)
	}
	lvl, err := ParseLevel(raw)
	if err != nil {
		return Level{}, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// ParseLevel decodes level YAML.
func ParseLevel(raw []byte) (Level, error) {
	var lvl Level
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&lvl); err != nil {
		if errors.Is(err, io.EOF) {
			return Level{}, ErrNoMachines
		}
		return Level{}, fmt.Errorf("parse level: %w", err)
	}
	if _, err := inventory.ParseDuplicatePolicy(lvl.Duplicates); err != nil {
		return Level{}, err
	}
	return lvl, nil
}
