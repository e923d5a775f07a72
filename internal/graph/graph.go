// Package graph orders resource intents by their declared predecessors.
package graph

import (
	"fmt"
	"strings"

	"github.com/juju/collections/set"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// MissingPredecessorError reports an intent that depends on a node the
// graph does not contain.
type MissingPredecessorError struct {
	Intent      string
	Predecessor string
}

func (e *MissingPredecessorError) Error() string {
	return fmt.Sprintf("intent %q depends on unknown intent %q", e.Intent, e.Predecessor)
}

// CycleError reports intents that depend on each other.
type CycleError struct {
	Intents []string
}

func (e *CycleError) Error() string {
	return "dependency cycle between intents: " + strings.Join(e.Intents, ", ")
}

// Graph is an insertion-ordered set of resource intents.
type Graph struct {
	nodes map[string]models.ResourceIntent
	names []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]models.ResourceIntent)}
}

// Add inserts intent. Adding an intent whose name is already present fails.
func (g *Graph) Add(intent models.ResourceIntent) error {
	if intent.Name == "" {
		return fmt.Errorf("intent of type %q has no name", intent.Type)
	}
	if _, ok := g.nodes[intent.Name]; ok {
		return fmt.Errorf("intent %q already added", intent.Name)
	}
	g.nodes[intent.Name] = intent
	g.names = append(g.names, intent.Name)
	return nil
}

// Get returns the intent called name.
func (g *Graph) Get(name string) (models.ResourceIntent, bool) {
	in, ok := g.nodes[name]
	return in, ok
}

// Len returns the number of intents.
func (g *Graph) Len() int {
	return len(g.names)
}

// Order returns every intent after all of its predecessors. Among intents
// whose predecessors are satisfied, insertion order wins, so the result is
// deterministic.
func (g *Graph) Order() ([]models.ResourceIntent, error) {
	for _, name := range g.names {
		for _, p := range g.nodes[name].Predecessors {
			if _, ok := g.nodes[p]; !ok {
				return nil, &MissingPredecessorError{Intent: name, Predecessor: p}
			}
		}
	}

	done := set.NewStrings()
	out := make([]models.ResourceIntent, 0, len(g.names))
	for len(out) < len(g.names) {
		progressed := false
		for _, name := range g.names {
			if done.Contains(name) || !g.ready(name, done) {
				continue
			}
			done.Add(name)
			out = append(out, g.nodes[name])
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, name := range g.names {
				if !done.Contains(name) {
					stuck = append(stuck, name)
				}
			}
			return nil, &CycleError{Intents: stuck}
		}
	}
	return out, nil
}

func (g *Graph) ready(name string, done set.Strings) bool {
	for _, p := range g.nodes[name].Predecessors {
		if !done.Contains(p) {
			return false
		}
	}
	return true
}

// Chain returns name and everything it transitively depends on, in
// dependency order.
func (g *Graph) Chain(name string) ([]models.ResourceIntent, error) {
	if _, ok := g.nodes[name]; !ok {
		return nil, fmt.Errorf("intent %q not found", name)
	}
	want := set.NewStrings()
	var visit func(string)
	visit = func(n string) {
		if want.Contains(n) {
			return
		}
		want.Add(n)
		for _, p := range g.nodes[n].Predecessors {
			visit(p)
		}
	}
	visit(name)

	ordered, err := g.Order()
	if err != nil {
		return nil, err
	}
	var out []models.ResourceIntent
	for _, in := range ordered {
		if want.Contains(in.Name) {
			out = append(out, in)
		}
	}
	return out, nil
}
