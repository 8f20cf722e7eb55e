package catalog

import (
	"errors"
	"fmt"
)

// Load error codes.
const (
	ErrCodeNotFound        = "E_NOT_FOUND"
	ErrCodeUnsupported     = "E_UNSUPPORTED_FORMAT"
	ErrCodeParse           = "E_PARSE"
	ErrCodeSchema          = "E_SCHEMA"
	ErrCodeEmptyTable      = "E_EMPTY_TABLE"
	ErrCodeEmptyName       = "E_EMPTY_NAME"
	ErrCodeDuplicate       = "E_DUPLICATE"
	ErrCodeNoInputs        = "E_NO_INPUTS"
	ErrCodeNoOutput        = "E_NO_OUTPUT"
	ErrCodeUnresolvedClass = "E_UNRESOLVED_CLASS"
)

// LoadError is a fatal configuration error raised while loading the catalog.
type LoadError struct {
	Code    string
	Message string
	Source  string // file path, empty for in-memory tables
}

func (e *LoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrNotFound is wrapped by every failed catalog lookup.
var ErrNotFound = errors.New("not found in catalog")

// LookupError reports an unknown recipe or shape name.
type LookupError struct {
	Table string // "recipe" or "shape"
	Name  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s %q: %v", e.Table, e.Name, ErrNotFound)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// IsLoadError returns true if err is (or wraps) a *LoadError with the given code.
// An empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}
