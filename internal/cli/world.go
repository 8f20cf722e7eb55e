package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/world"
)

// loaded is a catalog and level built into a live world on an in-memory sim.
type loaded struct {
	catalog *catalog.Catalog
	level   world.Level
	world   *world.World
	sim     *world.Sim
}

// loadWorld loads the catalog and level and builds the world. Every failure
// is a configuration error.
func loadWorld(catalogPath, levelPath string, log *slog.Logger, simOpts ...world.SimOption) (*loaded, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	for _, w := range cat.Lint() {
		log.Warn("catalog lint", "warning", w)
	}

	lvl, err := world.LoadLevel(levelPath)
	if err != nil {
		return nil, err
	}

	sim := world.NewSim(cat, simOpts...)
	w, err := world.Build(cat, lvl, sim, world.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", levelPath, err)
	}
	return &loaded{catalog: cat, level: lvl, world: w, sim: sim}, nil
}
