// Package architecture - The player's placed architecture
// Services are placed as instances with their own refs; links join
// instances. Removing an instance removes every link that touches it in
// the same call, so no dangling link is ever observable.
package architecture

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// Ref identifies a placed instance
type Ref string

// Instance is one placed service
type Instance struct {
	Ref       Ref    `json:"ref"`
	ServiceID string `json:"service_id"`
}

// Link is a directed connection between two instances
type Link struct {
	Source Ref `json:"source"`
	Target Ref `json:"target"`
}

// Architecture is a mutable placed architecture owned by one session.
// It is not safe for concurrent use.
type Architecture struct {
	catalog   *catalog.Catalog
	validator *connection.Validator

	// available restricts placement when non-nil
	available map[string]bool

	instances []Instance
	links     []Link
}

// New creates an empty architecture
func New(c *catalog.Catalog, v *connection.Validator) *Architecture {
	return &Architecture{catalog: c, validator: v}
}

// Restrict limits placement to the given service ids. Nil lifts the restriction.
func (a *Architecture) Restrict(available []string) {
	if available == nil {
		a.available = nil
		return
	}
	a.available = make(map[string]bool, len(available))
	for _, id := range available {
		a.available[id] = true
	}
}

// Place adds an instance of serviceID
func (a *Architecture) Place(serviceID string) (Ref, error) {
	if !a.catalog.Has(serviceID) {
		return "", errors.UnknownService(serviceID)
	}
	if a.available != nil && !a.available[serviceID] {
		return "", errors.Newf(errors.TypeInput, "service not available in this level: %s", serviceID).
			WithContext("service_id", serviceID)
	}

	ref := Ref(uuid.NewString())
	a.instances = append(a.instances, Instance{Ref: ref, ServiceID: serviceID})
	logging.Debug("service placed", zap.String("service", serviceID), zap.String("ref", string(ref)))
	return ref, nil
}

// Remove deletes an instance and every link touching it
func (a *Architecture) Remove(ref Ref) error {
	idx := a.indexOf(ref)
	if idx < 0 {
		return errors.NotFound("instance", string(ref))
	}
	a.instances = append(a.instances[:idx], a.instances[idx+1:]...)

	kept := a.links[:0]
	removed := 0
	for _, l := range a.links {
		if l.Source == ref || l.Target == ref {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	a.links = kept

	logging.Debug("service removed", zap.String("ref", string(ref)), zap.Int("links_removed", removed))
	return nil
}

// Connect links two instances after the connection validator accepts
// their service types. The validator result is returned in both cases.
func (a *Architecture) Connect(source, target Ref) (connection.Result, error) {
	src, ok := a.Lookup(source)
	if !ok {
		return connection.Result{}, errors.NotFound("instance", string(source))
	}
	dst, ok := a.Lookup(target)
	if !ok {
		return connection.Result{}, errors.NotFound("instance", string(target))
	}
	if source == target {
		return connection.Result{}, errors.InvalidConnection("a service cannot connect to itself")
	}
	if a.hasLink(source, target) {
		return connection.Result{}, errors.InvalidConnection("connection already exists")
	}

	result := a.validator.Validate(src.ServiceID, dst.ServiceID)
	if !result.Valid {
		err := errors.InvalidConnection(result.Message).
			WithContext("kind", string(result.Kind))
		if len(result.RequiredServices) > 0 {
			err = err.WithContext("required_services", result.RequiredServices)
		}
		return result, err
	}

	a.links = append(a.links, Link{Source: source, Target: target})
	return result, nil
}

// Disconnect removes the link between two instances
func (a *Architecture) Disconnect(source, target Ref) error {
	for i, l := range a.links {
		if l.Source == source && l.Target == target {
			a.links = append(a.links[:i], a.links[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("connection", string(source)+"->"+string(target))
}

// DisconnectServices removes the first link from an instance of sourceID
// to an instance of targetID
func (a *Architecture) DisconnectServices(sourceID, targetID string) error {
	for _, l := range a.links {
		src, _ := a.Lookup(l.Source)
		dst, _ := a.Lookup(l.Target)
		if src.ServiceID == sourceID && dst.ServiceID == targetID {
			return a.Disconnect(l.Source, l.Target)
		}
	}
	return errors.NotFound("connection", sourceID+"->"+targetID)
}

// Lookup returns the instance for ref
func (a *Architecture) Lookup(ref Ref) (Instance, bool) {
	idx := a.indexOf(ref)
	if idx < 0 {
		return Instance{}, false
	}
	return a.instances[idx], true
}

// First returns the first placed instance of serviceID
func (a *Architecture) First(serviceID string) (Instance, bool) {
	for _, inst := range a.instances {
		if inst.ServiceID == serviceID {
			return inst, true
		}
	}
	return Instance{}, false
}

// Instances returns the placed instances in placement order
func (a *Architecture) Instances() []Instance {
	return append([]Instance(nil), a.instances...)
}

// Links returns the links in creation order
func (a *Architecture) Links() []Link {
	return append([]Link(nil), a.links...)
}

// Len returns the number of placed instances
func (a *Architecture) Len() int {
	return len(a.instances)
}

// Reset removes everything
func (a *Architecture) Reset() {
	a.instances = nil
	a.links = nil
}

// Snapshot returns an immutable view for evaluation
func (a *Architecture) Snapshot() Snapshot {
	s := Snapshot{
		services:    make([]string, len(a.instances)),
		connections: make([]types.Connection, 0, len(a.links)),
	}
	for i, inst := range a.instances {
		s.services[i] = inst.ServiceID
	}
	for _, l := range a.links {
		src, _ := a.Lookup(l.Source)
		dst, _ := a.Lookup(l.Target)
		s.connections = append(s.connections, types.Link(src.ServiceID, dst.ServiceID))
	}
	return s
}

func (a *Architecture) indexOf(ref Ref) int {
	for i, inst := range a.instances {
		if inst.Ref == ref {
			return i
		}
	}
	return -1
}

func (a *Architecture) hasLink(source, target Ref) bool {
	for _, l := range a.links {
		if l.Source == source && l.Target == target {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time copy of an architecture, by service type
type Snapshot struct {
	services    []string
	connections []types.Connection
}

// ServiceList returns placed service ids in placement order, duplicates kept
func (s Snapshot) ServiceList() []string {
	return append([]string(nil), s.services...)
}

// ConnectionList returns the connections by service type, in creation order
func (s Snapshot) ConnectionList() []types.Connection {
	return append([]types.Connection(nil), s.connections...)
}

// Spec converts the snapshot to a declarative description
func (s Snapshot) Spec() types.ArchitectureSpec {
	return types.ArchitectureSpec{Services: s.ServiceList(), Connections: s.ConnectionList()}
}

// FromSpec places every service of spec and connects the first instance
// of each connection's source type to the first instance of its target
// type. The first rejected service or connection aborts the build.
func FromSpec(c *catalog.Catalog, v *connection.Validator, spec types.ArchitectureSpec) (*Architecture, error) {
	a := New(c, v)
	for _, id := range spec.Services {
		if _, err := a.Place(id); err != nil {
			return nil, err
		}
	}
	for _, conn := range spec.Connections {
		src, ok := a.First(conn.Source)
		if !ok {
			return nil, errors.Newf(errors.TypeInput, "connection %s: source service is not placed", conn)
		}
		dst, ok := a.First(conn.Target)
		if !ok {
			return nil, errors.Newf(errors.TypeInput, "connection %s: target service is not placed", conn)
		}
		if _, err := a.Connect(src.Ref, dst.Ref); err != nil {
			return nil, err
		}
	}
	return a, nil
}
