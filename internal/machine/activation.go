package machine

import (
	"context"
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

// SetEnabled sets a recipe's activation flag, then re-runs ProcessAllRecipes.
// Toggling is the only activation-state change that re-triggers matching.
//
// Returns ErrUnknownRecipe (logged) if the recipe is not affected by this machine.
func (m *Machine) SetEnabled(ctx context.Context, recipe string, enabled bool) ([]Transaction, error) {
	rs, ok := m.byName[recipe]
	if !ok {
		m.log.Error("cannot toggle recipe not affected by machine", "recipe", recipe)
		return nil, unknownRecipe(m.name, recipe)
	}

	rs.enabled = enabled
	m.log.Info("recipe availability set", "recipe", recipe, "enabled", enabled)

	return m.ProcessAllRecipes(ctx), nil
}

// Enabled returns a recipe's activation flag.
func (m *Machine) Enabled(recipe string) (bool, error) {
	rs, ok := m.byName[recipe]
	if !ok {
		return false, unknownRecipe(m.name, recipe)
	}
	return rs.enabled, nil
}

// RecipeEntries returns the UI rows for the machine's recipes in definition order.
func (m *Machine) RecipeEntries() []ir.RecipeEntry {
	out := make([]ir.RecipeEntry, len(m.recipes))
	for i, rs := range m.recipes {
		inputs := make([]ir.ShapeKind, len(rs.def.Inputs))
		copy(inputs, rs.def.Inputs)
		out[i] = ir.RecipeEntry{
			Name:    rs.def.Name,
			Inputs:  inputs,
			Output:  rs.def.Output,
			Enabled: rs.enabled,
		}
	}
	return out
}

func unknownRecipe(machine, recipe string) error {
	return fmt.Errorf("machine %s: recipe %q: %w", machine, recipe, ErrUnknownRecipe)
}
