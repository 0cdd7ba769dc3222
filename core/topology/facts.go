// Package topology indexes a placed architecture for rule evaluation.
// Security rules, cost adjustments, wiring blueprints and tutorial steps
// are all expressed as Conditions over Facts.
package topology

import (
	"cloud-architect-sim/core/types"
)

// Facts is a read-only index over services and connections
type Facts struct {
	counts   map[string]int
	links    map[types.Connection]bool
	outgoing map[string]bool
	incoming map[string]bool
}

// NewFacts indexes the given services and connections.
// Connections are indexed as given, including ones whose endpoints are not placed.
func NewFacts(services []string, connections []types.Connection) *Facts {
	f := &Facts{
		counts:   make(map[string]int, len(services)),
		links:    make(map[types.Connection]bool, len(connections)),
		outgoing: make(map[string]bool),
		incoming: make(map[string]bool),
	}
	for _, id := range services {
		f.counts[id]++
	}
	for _, c := range connections {
		f.links[c] = true
		f.outgoing[c.Source] = true
		f.incoming[c.Target] = true
	}
	return f
}

// Of indexes a placement
func Of(p types.Placement) *Facts {
	return NewFacts(p.ServiceList(), p.ConnectionList())
}

// Placed reports whether at least one instance of id is placed
func (f *Facts) Placed(id string) bool {
	return f.counts[id] > 0
}

// Count returns the number of placed instances of id
func (f *Facts) Count(id string) int {
	return f.counts[id]
}

// Linked reports whether a source->target connection exists
func (f *Facts) Linked(source, target string) bool {
	return f.links[types.Link(source, target)]
}

// HasOutgoing reports whether id is the source of any connection
func (f *Facts) HasOutgoing(id string) bool {
	return f.outgoing[id]
}

// HasIncoming reports whether id is the target of any connection
func (f *Facts) HasIncoming(id string) bool {
	return f.incoming[id]
}
