// Copyright (c) 2026 The cc64 Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package liveness

import "cc64/utils"

// InterferenceGraph is a pair of insertion-ordered maps keyed by variable
// name, never pointer-linked nodes. Symmetric edges give it cycles, so it
// is not a tree; Regalloc's simplify/select phases consume it by name,
// never by pointer.
type InterferenceGraph struct {
	order   []string
	present map[string]bool
	edges   map[string]*utils.OrderedStringSet
}

func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		present: make(map[string]bool),
		edges:   make(map[string]*utils.OrderedStringSet),
	}
}

// AddVertex registers name even if it never gains an edge: every Var or
// Temp ever mentioned is inserted as a vertex even when isolated.
func (g *InterferenceGraph) AddVertex(name string) {
	if g.present[name] {
		return
	}
	g.present[name] = true
	g.order = append(g.order, name)
	g.edges[name] = utils.NewOrderedStringSet()
}

func (g *InterferenceGraph) AddEdge(a, b string) {
	if a == b {
		return
	}
	g.AddVertex(a)
	g.AddVertex(b)
	g.edges[a].Add(b)
	g.edges[b].Add(a)
}

func (g *InterferenceGraph) HasVertex(name string) bool {
	return g.present[name]
}

func (g *InterferenceGraph) HasEdge(a, b string) bool {
	if !g.present[a] {
		return false
	}
	return g.edges[a].Contains(b)
}

// Vertices returns every vertex in insertion order.
func (g *InterferenceGraph) Vertices() []string {
	return g.order
}

// Neighbors returns name's current adjacency in insertion order.
func (g *InterferenceGraph) Neighbors(name string) []string {
	adj, ok := g.edges[name]
	if !ok {
		return nil
	}
	return adj.Items()
}

func (g *InterferenceGraph) Degree(name string) int {
	adj, ok := g.edges[name]
	if !ok {
		return 0
	}
	return adj.Length()
}

// RemoveVertex deletes name and every edge touching it, returning its
// former neighbors in insertion order (Simplify reinserts them in Select).
func (g *InterferenceGraph) RemoveVertex(name string) []string {
	neighbors := g.Neighbors(name)
	for _, n := range neighbors {
		g.edges[n].Remove(name)
	}
	delete(g.edges, name)
	delete(g.present, name)
	for i, v := range g.order {
		if v == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return neighbors
}

// RestoreVertex re-inserts name at the end of insertion order together
// with the given edges, undoing RemoveVertex for Select.
func (g *InterferenceGraph) RestoreVertex(name string, neighbors []string) {
	g.AddVertex(name)
	for _, n := range neighbors {
		g.AddEdge(name, n)
	}
}
