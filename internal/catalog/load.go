package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var tableSchema = jsonschema.MustCompileString("catalog.schema.json", schemaJSON)

// Load reads a catalog file and builds a Catalog.
// The format is chosen by file extension (.yaml, .yml, .json, .cue).
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Source: path, Message: err.Error()}
	}

	var t Tables
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		t, err = decodeYAML(raw)
	case ".json":
		t, err = decodeJSON(raw)
	case ".cue":
		t, err = decodeCUE(path, raw)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Source: path, Message: fmt.Sprintf("unsupported catalog format %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, withSource(err, path)
	}

	c, err := FromTables(t)
	if err != nil {
		return nil, withSource(err, path)
	}
	c.source = path
	return c, nil
}

// decodeYAML parses YAML tables, rejecting unknown fields (catches typos like "recipe:").
func decodeYAML(raw []byte) (Tables, error) {
	var t Tables
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	return t, nil
}

// decodeJSON validates raw JSON against the embedded schema, then decodes it.
func decodeJSON(raw []byte) (Tables, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	if err := tableSchema.Validate(doc); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}

	var t Tables
	if err := json.Unmarshal(raw, &t); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("failed to decode JSON: %v", err)}
	}
	return t, nil
}

// decodeCUE compiles a CUE source and decodes the concrete value into tables.
func decodeCUE(path string, raw []byte) (Tables, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(raw, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: cueerrors.Details(err, nil)}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: cueerrors.Details(err, nil)}
	}

	var t Tables
	if err := v.Decode(&t); err != nil {
		return Tables{}, &LoadError{Code: ErrCodeParse, Message: cueerrors.Details(err, nil)}
	}
	return t, nil
}

func withSource(err error, path string) error {
	if le, ok := err.(*LoadError); ok && le.Source == "" {
		le.Source = path
	}
	return err
}
