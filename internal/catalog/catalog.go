package catalog

import (
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

// Tables is the raw row data a catalog is built from.
type Tables struct {
	SpawnEffect string      `json:"spawn_effect,omitempty" yaml:"spawn_effect,omitempty"`
	Shapes      []ShapeRow  `json:"shapes" yaml:"shapes"`
	Recipes     []RecipeRow `json:"recipes" yaml:"recipes"`
}

// ShapeRow is one row of the shape table.
type ShapeRow struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Class       string `json:"class" yaml:"class"`
	Effect      string `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// RecipeRow is one row of the recipe table.
type RecipeRow struct {
	Name   string   `json:"name" yaml:"name"`
	Inputs []string `json:"inputs" yaml:"inputs"`
	Output string   `json:"output" yaml:"output"`
}

// Catalog is the immutable recipe and shape lookup service.
type Catalog struct {
	recipes     map[string]ir.RecipeDef
	recipeOrder []string
	shapes      map[ir.ShapeKind]ir.ShapeDef
	shapeOrder  []ir.ShapeKind
	spawnEffect string
	digest      string
	source      string
}

// FromTables validates raw tables and builds a Catalog.
// Returns *LoadError on any configuration error; never a partial catalog.
func FromTables(t Tables) (*Catalog, error) {
	if len(t.Shapes) == 0 {
		return nil, &LoadError{Code: ErrCodeEmptyTable, Message: "shape table is empty"}
	}
	if len(t.Recipes) == 0 {
		return nil, &LoadError{Code: ErrCodeEmptyTable, Message: "recipe table is empty"}
	}

	c := &Catalog{
		recipes:     make(map[string]ir.RecipeDef, len(t.Recipes)),
		recipeOrder: make([]string, 0, len(t.Recipes)),
		shapes:      make(map[ir.ShapeKind]ir.ShapeDef, len(t.Shapes)),
		shapeOrder:  make([]ir.ShapeKind, 0, len(t.Shapes)),
		spawnEffect: t.SpawnEffect,
	}

	for i, row := range t.Shapes {
		if row.Name == "" {
			return nil, &LoadError{Code: ErrCodeEmptyName, Message: fmt.Sprintf("shapes[%d]: empty name", i)}
		}
		kind := ir.Kind(row.Name)
		if _, dup := c.shapes[kind]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("shapes[%d]: duplicate shape %q", i, row.Name)}
		}
		if row.Class == "" {
			return nil, &LoadError{Code: ErrCodeUnresolvedClass, Message: fmt.Sprintf("shape %q: no spawnable class", row.Name)}
		}
		c.shapes[kind] = ir.ShapeDef{
			Kind:        kind,
			Description: row.Description,
			Class:       row.Class,
			Effect:      row.Effect,
		}
		c.shapeOrder = append(c.shapeOrder, kind)
	}

	for i, row := range t.Recipes {
		if row.Name == "" {
			return nil, &LoadError{Code: ErrCodeEmptyName, Message: fmt.Sprintf("recipes[%d]: empty name", i)}
		}
		if _, dup := c.recipes[row.Name]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("recipes[%d]: duplicate recipe %q", i, row.Name)}
		}
		if len(row.Inputs) == 0 {
			return nil, &LoadError{Code: ErrCodeNoInputs, Message: fmt.Sprintf("recipe %q: no input shapes", row.Name)}
		}
		for j, in := range row.Inputs {
			if in == "" {
				return nil, &LoadError{Code: ErrCodeEmptyName, Message: fmt.Sprintf("recipe %q: inputs[%d] is empty", row.Name, j)}
			}
		}
		if row.Output == "" {
			return nil, &LoadError{Code: ErrCodeNoOutput, Message: fmt.Sprintf("recipe %q: no output shape", row.Name)}
		}
		c.recipes[row.Name] = ir.RecipeDef{
			Name:   row.Name,
			Inputs: ir.Kinds(row.Inputs...),
			Output: ir.Kind(row.Output),
		}
		c.recipeOrder = append(c.recipeOrder, row.Name)
	}

	digest, err := ir.CatalogDigest(t.canonical())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	c.digest = digest

	return c, nil
}

// canonical converts tables into a canonically marshalable map for digesting.
func (t Tables) canonical() map[string]any {
	shapes := make([]any, len(t.Shapes))
	for i, s := range t.Shapes {
		shapes[i] = map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"class":       s.Class,
			"effect":      s.Effect,
		}
	}
	recipes := make([]any, len(t.Recipes))
	for i, r := range t.Recipes {
		recipes[i] = map[string]any{
			"name":   r.Name,
			"inputs": r.Inputs,
			"output": r.Output,
		}
	}
	return map[string]any{
		"spawn_effect": t.SpawnEffect,
		"shapes":       shapes,
		"recipes":      recipes,
	}
}

// Recipe returns the recipe definition with the given name.
func (c *Catalog) Recipe(name string) (ir.RecipeDef, error) {
	r, ok := c.recipes[name]
	if !ok {
		return ir.RecipeDef{}, &LookupError{Table: "recipe", Name: name}
	}
	return cloneRecipe(r), nil
}

// ShapeSpawnInfo returns spawn metadata for a shape kind.
func (c *Catalog) ShapeSpawnInfo(kind ir.ShapeKind) (ir.SpawnInfo, error) {
	s, ok := c.shapes[kind]
	if !ok {
		return ir.SpawnInfo{}, &LookupError{Table: "shape", Name: string(kind)}
	}
	return ir.SpawnInfo{
		Kind:        s.Kind,
		Description: s.Description,
		Class:       s.Class,
		Effect:      s.Effect,
	}, nil
}

// AllShapeKinds returns every shape kind in table order.
func (c *Catalog) AllShapeKinds() []ir.ShapeKind {
	out := make([]ir.ShapeKind, len(c.shapeOrder))
	copy(out, c.shapeOrder)
	return out
}

// Recipes returns all recipe definitions in definition order.
func (c *Catalog) Recipes() []ir.RecipeDef {
	out := make([]ir.RecipeDef, 0, len(c.recipeOrder))
	for _, name := range c.recipeOrder {
		out = append(out, cloneRecipe(c.recipes[name]))
	}
	return out
}

// SpawnEffect returns the default effect played when an output is produced.
func (c *Catalog) SpawnEffect() string {
	return c.spawnEffect
}

// Digest returns a content hash of the tables the catalog was built from.
func (c *Catalog) Digest() string {
	return c.digest
}

// Source returns the file the catalog was loaded from, if any.
func (c *Catalog) Source() string {
	return c.source
}

// Lint reports recipes that reference kinds missing from the shape table,
// followed by recipe cycles. These are not load errors: matching treats
// unknown kinds as runtime consistency errors, so a catalog with warnings
// still loads.
func (c *Catalog) Lint() []string {
	var warnings []string
	for _, name := range c.recipeOrder {
		r := c.recipes[name]
		for _, in := range r.Inputs {
			if _, ok := c.shapes[in]; !ok {
				warnings = append(warnings, fmt.Sprintf("recipe %q: input shape %q is not in the shape table", name, in))
			}
		}
		if _, ok := c.shapes[r.Output]; !ok {
			warnings = append(warnings, fmt.Sprintf("recipe %q: output shape %q is not in the shape table", name, r.Output))
		}
	}
	for _, cycle := range c.Cycles() {
		warnings = append(warnings, formatCycle(cycle))
	}
	return warnings
}

func cloneRecipe(r ir.RecipeDef) ir.RecipeDef {
	inputs := make([]ir.ShapeKind, len(r.Inputs))
	copy(inputs, r.Inputs)
	r.Inputs = inputs
	return r
}
