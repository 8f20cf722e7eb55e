package machine

import (
	"context"
	"fmt"

	"github.com/roach88/shapeforge/internal/ir"
)

// Transaction records one consume/produce execution of a recipe.
//
// Transactions are not atomic: Shortfalls and DespawnFailures list the steps
// that failed while the rest of the transaction went ahead.
type Transaction struct {
	Machine string
	Recipe  string

	// Consumed lists handles popped from the inventory, in input order.
	Consumed []ir.Handle

	// Shortfalls lists input occurrences that could not be popped.
	Shortfalls []ir.ShapeKind

	// DespawnFailures lists consumed handles the spawner failed to destroy.
	DespawnFailures []ir.Handle

	Output   ir.ShapeKind
	Produced ir.Handle // empty when SpawnErr is set
	SpawnErr error
}

// Complete reports whether every step of the transaction succeeded.
func (t Transaction) Complete() bool {
	return len(t.Shortfalls) == 0 && len(t.DespawnFailures) == 0 && t.SpawnErr == nil
}

// ProcessAllRecipes makes a single pass over the machine's recipes in
// definition order and executes every recipe that is enabled and satisfiable.
//
// Each execution sees the inventory left by the previous one, so two recipes
// sharing an input compete for it in definition order.
func (m *Machine) ProcessAllRecipes(ctx context.Context) []Transaction {
	var txs []Transaction
	for _, rs := range m.recipes {
		if !rs.enabled {
			continue
		}
		if !m.IsSatisfiable(rs.def) {
			continue
		}
		txs = append(txs, m.execute(ctx, rs.def))
	}
	return txs
}

// execute consumes one instance per listed input occurrence, then produces the
// output. A failed step is logged and the remaining steps still run.
func (m *Machine) execute(ctx context.Context, recipe ir.RecipeDef) Transaction {
	tx := Transaction{
		Machine: m.name,
		Recipe:  recipe.Name,
		Output:  recipe.Output,
	}

	for _, kind := range recipe.Inputs {
		h, err := m.inv.Pop(kind)
		if err != nil {
			m.log.Error("failed to consume input shape",
				"recipe", recipe.Name,
				"shape", kind,
				"error", err,
			)
			tx.Shortfalls = append(tx.Shortfalls, kind)
			continue
		}
		tx.Consumed = append(tx.Consumed, h)

		if err := m.spawner.Despawn(ctx, h); err != nil {
			m.log.Error("failed to despawn consumed shape",
				"recipe", recipe.Name,
				"shape", kind,
				"handle", h,
				"error", err,
			)
			tx.DespawnFailures = append(tx.DespawnFailures, h)
		}
	}

	tx.Produced, tx.SpawnErr = m.Produce(ctx, recipe.Output)

	m.log.Info("recipe executed",
		"recipe", recipe.Name,
		"consumed", len(tx.Consumed),
		"shortfalls", len(tx.Shortfalls),
		"output", recipe.Output,
		"produced", tx.Produced,
	)

	return tx
}

// Produce spawns one instance of kind at the machine's location and, on
// success, plays the kind's effect (or the catalog default). Effect failures
// are cosmetic and only logged.
//
// Produce is also the manual "cheat" path used by the selection front: it
// never touches the inventory.
func (m *Machine) Produce(ctx context.Context, kind ir.ShapeKind) (ir.Handle, error) {
	info, err := m.catalog.ShapeSpawnInfo(kind)
	if err != nil {
		m.log.Error("invalid shape class for output", "shape", kind, "error", err)
		return "", fmt.Errorf("produce %q: %w", kind, err)
	}

	h, err := m.spawner.Spawn(ctx, info, m.location)
	if err != nil {
		m.log.Error("spawning shape failed",
			"shape", kind,
			"class", info.Class,
			"error", err,
		)
		return "", fmt.Errorf("produce %q: %w", kind, err)
	}

	effect := info.Effect
	if effect == "" {
		effect = m.catalog.SpawnEffect()
	}
	if effect != "" {
		if err := m.spawner.PlayEffect(ctx, effect, m.location); err != nil {
			m.log.Warn("spawn effect failed", "effect", effect, "error", err)
		}
	}

	return h, nil
}
