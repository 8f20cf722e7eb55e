// Package machine implements a conversion machine: its shape inventory, its
// recipe activation state, and the matching and transaction logic that turns
// nearby input shapes into one output shape.
//
// # Matching
//
// IsSatisfiable tests presence: every distinct kind listed in a recipe's inputs
// must have at least one instance nearby. A recipe listing [Cube, Cube] is
// satisfied by a single Cube. Consumption still removes one instance per
// listed occurrence, so the second pop fails, is logged as a shortfall, and the
// output is produced anyway. WithStrictCounts switches matching to occurrence
// counting for callers that want the two to agree.
//
// # Transactions
//
// ProcessAllRecipes makes one pass over the machine's recipes in definition
// order. For each recipe that is enabled and satisfiable it consumes the inputs
// (pop + despawn per occurrence) and then produces the output at the machine's
// location. Steps are fire-and-continue, not atomic: a failed pop or despawn is
// logged and the remaining steps still run. The pass does not loop until
// nothing matches.
//
// ProcessAllRecipes runs after a shape enters proximity and after a recipe is
// toggled. It never runs when a shape leaves.
//
// # Failure policy
//
// Unknown kinds and unknown recipe names fail loudly in the log and softly in
// control flow: the method returns an error or false, the machine state is
// unchanged, and nothing panics.
//
// A Machine is not safe for concurrent use. The engine serializes all events.
package machine
