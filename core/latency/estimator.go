// Package latency estimates worst-case request latency as the critical path
// through the connection graph: the maximum, over every entry/exit pair and
// every simple path between them, of the summed per-service latency.
package latency

import (
	"go.uber.org/zap"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/graph"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/logging"
)

// DefaultMaxPaths bounds path enumeration on dense graphs
const DefaultMaxPaths = 100000

// Analysis is the result of a critical path search
type Analysis struct {
	// Latency is the critical path latency in milliseconds
	Latency float64 `json:"latency_ms"`

	// CriticalPath is the slowest path found, entry first
	CriticalPath []string `json:"critical_path,omitempty"`

	PathsExplored int `json:"paths_explored"`

	// Truncated is set when MaxPaths stopped the search early;
	// Latency is then the best found so far
	Truncated bool `json:"truncated,omitempty"`
}

// Estimator computes critical path latency against a catalog
type Estimator struct {
	catalog *catalog.Catalog

	// MaxPaths caps the number of paths examined; <= 0 means DefaultMaxPaths
	MaxPaths int
}

// NewEstimator creates an estimator
func NewEstimator(c *catalog.Catalog, maxPaths int) *Estimator {
	return &Estimator{catalog: c, MaxPaths: maxPaths}
}

// Analyze finds the critical path. Services that appear in no connection
// are not part of the graph and contribute nothing. A node counts its
// catalog latency only if it is placed.
func (e *Estimator) Analyze(services []string, connections []types.Connection) Analysis {
	var result Analysis
	if len(services) == 0 {
		return result
	}

	weights := make(map[string]float64, len(services))
	for _, id := range services {
		if def, ok := e.catalog.Get(id); ok {
			weights[id] = def.LatencyMS
		}
	}

	g := graph.FromConnections(connections)
	limit := e.MaxPaths
	if limit <= 0 {
		limit = DefaultMaxPaths
	}

	found := false
	visit := func(path []string) bool {
		if result.PathsExplored >= limit {
			result.Truncated = true
			return false
		}
		result.PathsExplored++
		total := 0.0
		for _, id := range path {
			total += weights[id]
		}
		if !found || total > result.Latency {
			found = true
			result.Latency = total
			result.CriticalPath = append(result.CriticalPath[:0], path...)
		}
		return true
	}

	// node visits are bounded too, not only completed paths
	budget := &graph.Budget{Steps: limit * (g.Len() + 1)}

search:
	for _, entry := range g.Entries() {
		for _, exit := range g.Exits() {
			if !g.SimplePathsWithin(entry, exit, budget, visit) {
				break search
			}
		}
	}
	if budget.Exhausted {
		result.Truncated = true
	}

	logging.Debug("latency estimated",
		zap.Int("nodes", g.Len()),
		zap.Int("paths", result.PathsExplored),
		zap.Bool("truncated", result.Truncated),
		zap.Float64("latency_ms", result.Latency))

	return result
}

// EstimateLatency returns the critical path latency in milliseconds
func (e *Estimator) EstimateLatency(services []string, connections []types.Connection) float64 {
	return e.Analyze(services, connections).Latency
}
