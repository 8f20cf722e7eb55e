package catalog

import (
	"fmt"
	"strings"
)

// recipeGraph maps a recipe to the recipes that consume its output.
type recipeGraph map[string][]string

// Cycles returns recipe chains whose outputs feed back into themselves,
// e.g. [A B A] when A's output is an input of B and B's output is an
// input of A. A recipe that consumes its own output is reported as [A A].
//
// Spawned outputs never enter an inventory directly, but a player can carry
// one back into range, so a cycle lets a machine layout churn forever.
// Cycles are reported by Lint and never reject a catalog.
func (c *Catalog) Cycles() [][]string {
	graph := c.recipeGraph()

	var cycles [][]string
	for _, scc := range tarjanSCC(c.recipeOrder, graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		cycles = append(cycles, cyclePath(scc, graph))
	}
	return cycles
}

func (c *Catalog) recipeGraph() recipeGraph {
	consumers := make(map[string][]string)
	for _, name := range c.recipeOrder {
		seen := make(map[string]bool)
		for _, in := range c.recipes[name].Inputs {
			if seen[string(in)] {
				continue
			}
			seen[string(in)] = true
			consumers[string(in)] = append(consumers[string(in)], name)
		}
	}

	graph := make(recipeGraph, len(c.recipeOrder))
	for _, name := range c.recipeOrder {
		graph[name] = append([]string{}, consumers[string(c.recipes[name].Output)]...)
	}
	return graph
}

func hasSelfLoop(node string, graph recipeGraph) bool {
	for _, next := range graph[node] {
		if next == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting nodes in order so
// the result is deterministic.
func tarjanSCC(order []string, graph recipeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks one loop through an SCC, starting from the member the
// search reached first.
func cyclePath(scc []string, graph recipeGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[len(scc)-1]

	if len(scc) == 1 {
		return []string{start, start}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, n := range graph[current] {
			if members[n] && (!visited[n] || n == start) {
				next = n
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}

func formatCycle(path []string) string {
	return fmt.Sprintf("recipe cycle: %s", strings.Join(path, " -> "))
}
