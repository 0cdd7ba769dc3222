// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "strings"

// NoLevel marks an evaluation that is not bound to a level.
// Level ids start at 1.
const NoLevel = 0

// Connection is a directed edge between two service types
type Connection struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Link builds a connection
func Link(source, target string) Connection {
	return Connection{Source: source, Target: target}
}

// String returns the "source->target" form
func (c Connection) String() string {
	return c.Source + "->" + c.Target
}

// Placement exposes a placed architecture to the evaluators
type Placement interface {
	ServiceList() []string
	ConnectionList() []Connection
}

// ArchitectureSpec is a declarative architecture: the placed service
// types (duplicates allowed) and the connections between them
type ArchitectureSpec struct {
	Services    []string     `json:"services" yaml:"services"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

// ServiceList returns the placed services
func (s ArchitectureSpec) ServiceList() []string {
	return s.Services
}

// ConnectionList returns the connections
func (s ArchitectureSpec) ConnectionList() []Connection {
	return s.Connections
}

// JoinIDs renders a list of service ids for messages
func JoinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
