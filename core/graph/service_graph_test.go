package graph

import (
	"fmt"
	"reflect"
	"testing"

	"cloud-architect-sim/core/types"
)

func links(pairs ...string) []types.Connection {
	var result []types.Connection
	for i := 0; i+1 < len(pairs); i += 2 {
		result = append(result, types.Link(pairs[i], pairs[i+1]))
	}
	return result
}

func TestFromConnections(t *testing.T) {
	g := FromConnections(links("a", "b", "b", "c", "a", "b", "d", "b"))

	if got, want := g.Nodes(), []string{"a", "b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
	if got := g.Successors("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("duplicate edge not collapsed: %v", got)
	}
	if got := g.Predecessors("b"); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("Predecessors(b) = %v", got)
	}
}

func TestEntriesAndExits(t *testing.T) {
	tests := []struct {
		name        string
		connections []types.Connection
		entries     []string
		exits       []string
	}{
		{"empty", nil, nil, nil},
		{"chain", links("a", "b", "b", "c"), []string{"a"}, []string{"c"}},
		{"fan out", links("a", "b", "a", "c"), []string{"a"}, []string{"b", "c"}},
		{"cycle falls back to first node", links("x", "y", "y", "x"), []string{"x"}, []string{"x"}},
		{"tail into cycle", links("a", "b", "b", "c", "c", "b"), []string{"a"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := FromConnections(tt.connections)
			if got := g.Entries(); !reflect.DeepEqual(got, tt.entries) {
				t.Errorf("Entries() = %v, want %v", got, tt.entries)
			}
			if got := g.Exits(); !reflect.DeepEqual(got, tt.exits) {
				t.Errorf("Exits() = %v, want %v", got, tt.exits)
			}
		})
	}
}

func TestSimplePaths(t *testing.T) {
	g := FromConnections(links("a", "b", "b", "d", "a", "c", "c", "d", "d", "a"))

	var paths [][]string
	g.SimplePaths("a", "d", func(p []string) bool {
		paths = append(paths, append([]string(nil), p...))
		return true
	})

	want := [][]string{{"a", "b", "d"}, {"a", "c", "d"}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestSimplePathsSingleNode(t *testing.T) {
	g := FromConnections(links("x", "y", "y", "x"))

	var paths [][]string
	g.SimplePaths("x", "x", func(p []string) bool {
		paths = append(paths, append([]string(nil), p...))
		return true
	})
	if !reflect.DeepEqual(paths, [][]string{{"x"}}) {
		t.Errorf("paths = %v, want [[x]]", paths)
	}
}

func TestSimplePathsStops(t *testing.T) {
	g := FromConnections(links("a", "b", "b", "d", "a", "c", "c", "d"))

	count := 0
	completed := g.SimplePaths("a", "d", func([]string) bool {
		count++
		return false
	})
	if completed || count != 1 {
		t.Errorf("walk should stop after the first path: completed=%v count=%d", completed, count)
	}

	if !g.SimplePaths("a", "zzz", func([]string) bool { return false }) {
		t.Error("walk to a missing node should complete without calling fn")
	}
}

// complete builds every edge between n0..n(size-1)
func complete(size int) []types.Connection {
	var result []types.Connection
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if i != j {
				result = append(result, types.Link(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", j)))
			}
		}
	}
	return result
}

func TestSimplePathsSkipsNodesThatCannotReachEnd(t *testing.T) {
	connections := append(links("entry", "n0", "other", "exit"), complete(16)...)
	g := FromConnections(connections)

	budget := &Budget{Steps: 10}
	called := false
	if !g.SimplePathsWithin("entry", "exit", budget, func([]string) bool {
		called = true
		return true
	}) {
		t.Error("walk with no route to the end should complete")
	}
	if called || budget.Exhausted || budget.Steps != 10 {
		t.Errorf("dense core was entered: called=%v budget=%+v", called, budget)
	}

	var paths [][]string
	g.SimplePathsWithin("other", "exit", budget, func(p []string) bool {
		paths = append(paths, append([]string(nil), p...))
		return true
	})
	if !reflect.DeepEqual(paths, [][]string{{"other", "exit"}}) {
		t.Errorf("paths = %v", paths)
	}
	if budget.Steps != 8 {
		t.Errorf("Steps = %d, want 8", budget.Steps)
	}
}

func TestSimplePathsBudgetRunsOut(t *testing.T) {
	connections := complete(12)
	for i := 0; i < 12; i++ {
		connections = append(connections, types.Link(fmt.Sprintf("n%d", i), "end"))
	}
	g := FromConnections(connections)

	budget := &Budget{Steps: 50}
	count := 0
	completed := g.SimplePathsWithin("n0", "end", budget, func([]string) bool {
		count++
		return true
	})
	if completed {
		t.Error("walk should stop when the budget runs out")
	}
	if !budget.Exhausted || budget.Steps != 0 {
		t.Errorf("budget = %+v, want exhausted", budget)
	}
	if count == 0 {
		t.Error("expected paths before the budget ran out")
	}
}
