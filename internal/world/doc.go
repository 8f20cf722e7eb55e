// Package world places machines and owns the shape instances they act on.
//
// A Level file lists the machines of a map (name, location, affected recipes)
// plus the matching policy shared by all of them. Build resolves a Level
// against a catalog into a registry of machines.
//
// Sim is the in-memory spawn service: it issues handles, tracks which
// instances are alive, and records played effects. The game shell replaces it
// with its own machine.Spawner; Sim is what the CLI, harness and websocket
// bridge run against.
package world
