// Package graph - Directed service graph
// Built strictly from connections: a service that appears in no connection
// is not a node. Node order is first appearance in the connection list,
// which makes every traversal deterministic.
package graph

import (
	"cloud-architect-sim/core/types"
)

// ServiceGraph is a directed graph over service type ids
type ServiceGraph struct {
	nodes []string
	index map[string]int

	// Forward edges (source → target), deduplicated, in insertion order
	edges map[string][]string

	// Reverse edges (target → source)
	reverseEdges map[string][]string
}

// FromConnections builds a graph from connections
func FromConnections(connections []types.Connection) *ServiceGraph {
	g := &ServiceGraph{
		index:        make(map[string]int),
		edges:        make(map[string][]string),
		reverseEdges: make(map[string][]string),
	}
	seen := make(map[types.Connection]bool, len(connections))
	for _, c := range connections {
		g.addNode(c.Source)
		g.addNode(c.Target)
		if seen[c] {
			continue
		}
		seen[c] = true
		g.edges[c.Source] = append(g.edges[c.Source], c.Target)
		g.reverseEdges[c.Target] = append(g.reverseEdges[c.Target], c.Source)
	}
	return g
}

func (g *ServiceGraph) addNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
}

// Nodes returns the nodes in first-appearance order
func (g *ServiceGraph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Len returns the number of nodes
func (g *ServiceGraph) Len() int {
	return len(g.nodes)
}

// Has reports whether id is a node
func (g *ServiceGraph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Successors returns the direct targets of id
func (g *ServiceGraph) Successors(id string) []string {
	return g.edges[id]
}

// Predecessors returns the direct sources of id
func (g *ServiceGraph) Predecessors(id string) []string {
	return g.reverseEdges[id]
}

// Entries returns nodes with no incoming edge. When every node has one
// (a cycle), the first node stands in as the sole entry.
func (g *ServiceGraph) Entries() []string {
	return g.collect(func(id string) bool { return len(g.reverseEdges[id]) == 0 })
}

// Exits returns nodes with no outgoing edge, with the same fallback
func (g *ServiceGraph) Exits() []string {
	return g.collect(func(id string) bool { return len(g.edges[id]) == 0 })
}

func (g *ServiceGraph) collect(keep func(string) bool) []string {
	var result []string
	for _, id := range g.nodes {
		if keep(id) {
			result = append(result, id)
		}
	}
	if len(result) == 0 && len(g.nodes) > 0 {
		result = []string{g.nodes[0]}
	}
	return result
}

// PathFunc receives each simple path found. The slice is reused between
// calls; copy it to keep it. Returning false stops the walk.
type PathFunc func(path []string) bool

// Budget bounds the node visits of one or more path searches. Steps is
// the number of visits left; Exhausted is set once a search runs out.
type Budget struct {
	Steps     int
	Exhausted bool
}

func (b *Budget) spend() bool {
	if b == nil {
		return true
	}
	if b.Steps <= 0 {
		b.Exhausted = true
		return false
	}
	b.Steps--
	return true
}

// SimplePaths enumerates every path from start to end that visits no node
// twice, depth first in edge order. It returns false if fn stopped the walk.
func (g *ServiceGraph) SimplePaths(start, end string, fn PathFunc) bool {
	return g.SimplePathsWithin(start, end, nil, fn)
}

// SimplePathsWithin is SimplePaths charging every node visit to budget.
// Nodes that cannot reach end are never entered. It returns false if fn
// stopped the walk or the budget ran out; a nil budget is unbounded.
func (g *ServiceGraph) SimplePathsWithin(start, end string, budget *Budget, fn PathFunc) bool {
	if !g.Has(start) || !g.Has(end) {
		return true
	}
	reach := g.reaching(end)
	if !reach[start] {
		return true
	}
	w := &walker{
		graph:   g,
		end:     end,
		fn:      fn,
		budget:  budget,
		reach:   reach,
		onPath:  make(map[string]bool, len(g.nodes)),
		path:    make([]string, 0, len(g.nodes)),
		running: true,
	}
	w.visit(start)
	return w.running
}

// reaching returns every node with a path to id, id included
func (g *ServiceGraph) reaching(id string) map[string]bool {
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range g.reverseEdges[cur] {
			if !seen[prev] {
				seen[prev] = true
				queue = append(queue, prev)
			}
		}
	}
	return seen
}

type walker struct {
	graph   *ServiceGraph
	end     string
	fn      PathFunc
	budget  *Budget
	reach   map[string]bool
	onPath  map[string]bool
	path    []string
	running bool
}

func (w *walker) visit(id string) {
	if !w.budget.spend() {
		w.running = false
		return
	}
	w.path = append(w.path, id)
	w.onPath[id] = true
	defer func() {
		w.path = w.path[:len(w.path)-1]
		w.onPath[id] = false
	}()

	if id == w.end {
		w.running = w.fn(w.path)
		return
	}
	for _, next := range w.graph.edges[id] {
		if !w.running {
			return
		}
		if w.reach[next] && !w.onPath[next] {
			w.visit(next)
		}
	}
}
