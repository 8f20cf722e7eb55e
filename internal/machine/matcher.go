package machine

import (
	"github.com/roach88/shapeforge/internal/ir"
)

// IsSatisfiable reports whether every kind the recipe requires is present.
//
// The check:
//  1. Fails (logged) if the recipe has no inputs; this is a data error, not an
//     "always available" recipe.
//  2. Fails (logged) on the first kind unknown to the inventory; the whole
//     check aborts, not just that ingredient.
//  3. Short-circuits false on the first kind with zero instances.
//
// By default a kind listed twice needs only one instance (presence). With
// WithStrictCounts it needs as many instances as it is listed.
func (m *Machine) IsSatisfiable(recipe ir.RecipeDef) bool {
	if len(recipe.Inputs) == 0 {
		m.log.Error("recipe has no input shapes", "recipe", recipe.Name)
		return false
	}

	var need map[ir.ShapeKind]int
	if m.strict {
		need = make(map[ir.ShapeKind]int, len(recipe.Inputs))
		for _, kind := range recipe.Inputs {
			need[kind]++
		}
	}

	for _, kind := range recipe.Inputs {
		n, err := m.inv.Count(kind)
		if err != nil {
			m.log.Error("recipe references unknown shape",
				"recipe", recipe.Name,
				"shape", kind,
			)
			return false
		}

		if n == 0 {
			return false
		}
		if m.strict && n < need[kind] {
			return false
		}
	}

	return true
}

// Satisfiable reports IsSatisfiable for one of the machine's own recipes.
func (m *Machine) Satisfiable(recipe string) (bool, error) {
	rs, ok := m.byName[recipe]
	if !ok {
		return false, unknownRecipe(m.name, recipe)
	}
	return m.IsSatisfiable(rs.def), nil
}
