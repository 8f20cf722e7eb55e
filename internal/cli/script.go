package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shapeforge/internal/engine"
)

// Script is a list of events for the run command.
type Script struct {
	Events []ScriptEvent `yaml:"events"`
}

// ScriptEvent is one scripted event. Type is an engine event name.
//
// For proximity events, ID names a shape: the first event mentioning an ID
// places a fresh shape of Kind at the machine, later events reuse its handle.
// An empty ID places an anonymous shape.
type ScriptEvent struct {
	Type    string `yaml:"type"`
	Machine string `yaml:"machine,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	ID      string `yaml:"id,omitempty"`
	Recipe  string `yaml:"recipe,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty"`
}

// LoadScript reads and checks a script file. Unknown fields are rejected.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}

	for i, ev := range s.Events {
		t, err := engine.ParseEventType(ev.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: events[%d]: %w", path, i, err)
		}
		if (t == engine.EventShapeEntered || t == engine.EventShapeLeft) && (ev.Machine == "" || ev.Kind == "") {
			return nil, fmt.Errorf("%s: events[%d]: %s requires machine and kind", path, i, ev.Type)
		}
	}
	return &s, nil
}
