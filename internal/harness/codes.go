package harness

import (
	"errors"
	"strings"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/front"
	"github.com/roach88/shapeforge/internal/inventory"
	"github.com/roach88/shapeforge/internal/machine"
	"github.com/roach88/shapeforge/internal/world"
)

// stepErrors maps expect_error codes to the sentinel a step may fail with.
var stepErrors = map[string]error{
	"unknown_kind":    inventory.ErrUnknownKind,
	"duplicate":       inventory.ErrDuplicate,
	"no_selection":    front.ErrNoSelection,
	"unknown_machine": front.ErrUnknownMachine,
	"unknown_recipe":  machine.ErrUnknownRecipe,
	"not_in_catalog":  catalog.ErrNotFound,
}

// buildErrors maps expect_build_error codes to world configuration errors.
var buildErrors = map[string]error{
	"no_machines":       world.ErrNoMachines,
	"duplicate_machine": world.ErrDuplicateMachine,
	"not_in_catalog":    catalog.ErrNotFound,
}

// stepErrorOrder fixes the lookup order so ErrorCode is deterministic.
var stepErrorOrder = []string{
	"unknown_kind", "duplicate", "no_selection", "unknown_machine", "unknown_recipe", "not_in_catalog",
}

// ErrorCode returns the stable code of a dispatch error for traces and
// expect_error: a known sentinel's name, a lower-cased engine runtime code,
// or "error".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, code := range stepErrorOrder {
		if errors.Is(err, stepErrors[code]) {
			return code
		}
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return strings.ToLower(string(re.Code))
	}
	return "error"
}

func buildErrorMatches(code string, err error) bool {
	want, ok := buildErrors[code]
	return ok && errors.Is(err, want)
}
