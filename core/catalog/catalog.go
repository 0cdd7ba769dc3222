// Package catalog - Authoritative service catalog
// Defines every service type the player can place, with its hourly cost,
// latency and the connection rules that govern what it may connect to.
// A Catalog is immutable once constructed.
package catalog

import (
	"fmt"
	"sort"

	"cloud-architect-sim/internal/errors"
)

// ConnectionRules governs the outgoing connections of a service
type ConnectionRules struct {
	// Direct lists targets this service may connect to directly
	Direct []string `json:"direct" yaml:"direct"`

	// Requires lists targets only reachable through intermediates
	Requires []Requirement `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Requirement names the intermediates needed to reach Target
type Requirement struct {
	Target       string   `json:"target" yaml:"target"`
	Intermediate []string `json:"intermediate" yaml:"intermediate"`
}

// ServiceDefinition is a catalog entry for a service type
type ServiceDefinition struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	IconPath    string          `json:"icon_path,omitempty"`
	CostPerHour float64         `json:"cost_per_hour"`
	LatencyMS   float64         `json:"latency_ms"`
	Rules       ConnectionRules `json:"connection_rules"`
}

// AllowsDirect reports whether target is a direct connection target
func (d ServiceDefinition) AllowsDirect(target string) bool {
	for _, id := range d.Rules.Direct {
		if id == target {
			return true
		}
	}
	return false
}

// RequirementFor returns the intermediate requirement for target, if any
func (d ServiceDefinition) RequirementFor(target string) (Requirement, bool) {
	for _, req := range d.Rules.Requires {
		if req.Target == target {
			return req, true
		}
	}
	return Requirement{}, false
}

// validate checks the invariants of a single definition
func (d ServiceDefinition) validate() error {
	if d.ID == "" {
		return fmt.Errorf("service with empty id")
	}
	if d.CostPerHour < 0 {
		return fmt.Errorf("service %s: negative cost_per_hour %v", d.ID, d.CostPerHour)
	}
	if d.LatencyMS < 0 {
		return fmt.Errorf("service %s: negative latency_ms %v", d.ID, d.LatencyMS)
	}
	for _, target := range d.Rules.Direct {
		if target == d.ID {
			return fmt.Errorf("service %s: direct rule references itself", d.ID)
		}
	}
	for _, req := range d.Rules.Requires {
		if req.Target == d.ID {
			return fmt.Errorf("service %s: requires rule references itself", d.ID)
		}
		if req.Target == "" {
			return fmt.Errorf("service %s: requires rule without target", d.ID)
		}
	}
	return nil
}

// Catalog is the authoritative service catalog
type Catalog struct {
	entries map[string]ServiceDefinition
}

// New builds a catalog, rejecting duplicate ids and invalid definitions
func New(defs ...ServiceDefinition) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[string]ServiceDefinition, len(defs)),
	}
	for _, def := range defs {
		if err := def.validate(); err != nil {
			return nil, errors.Wrap(errors.TypeMalformedData, "invalid service definition", err)
		}
		if _, exists := c.entries[def.ID]; exists {
			return nil, errors.Newf(errors.TypeMalformedData, "duplicate service id: %s", def.ID)
		}
		c.entries[def.ID] = def
	}
	return c, nil
}

// Get returns a service definition
func (c *Catalog) Get(id string) (ServiceDefinition, bool) {
	def, ok := c.entries[id]
	return def, ok
}

// Has reports whether id is in the catalog
func (c *Catalog) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Lookup returns a definition or an UNKNOWN_SERVICE error
func (c *Catalog) Lookup(id string) (ServiceDefinition, error) {
	def, ok := c.entries[id]
	if !ok {
		return ServiceDefinition{}, errors.UnknownService(id)
	}
	return def, nil
}

// CostPerHour returns the hourly cost of id, or 0 if unknown
func (c *Catalog) CostPerHour(id string) float64 {
	return c.entries[id].CostPerHour
}

// LatencyMS returns the latency of id, or 0 if unknown
func (c *Catalog) LatencyMS(id string) float64 {
	return c.entries[id].LatencyMS
}

// Len returns the number of services
func (c *Catalog) Len() int {
	return len(c.entries)
}

// IDs returns all service ids, sorted
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every definition, sorted by id
func (c *Catalog) All() []ServiceDefinition {
	ids := c.IDs()
	defs := make([]ServiceDefinition, len(ids))
	for i, id := range ids {
		defs[i] = c.entries[id]
	}
	return defs
}

// ByCategory returns the definitions in a category, sorted by id
func (c *Catalog) ByCategory(category string) []ServiceDefinition {
	var result []ServiceDefinition
	for _, def := range c.All() {
		if def.Category == category {
			result = append(result, def)
		}
	}
	return result
}

// Categories returns the distinct categories, sorted
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var result []string
	for _, def := range c.entries {
		if !seen[def.Category] {
			seen[def.Category] = true
			result = append(result, def.Category)
		}
	}
	sort.Strings(result)
	return result
}

// DanglingReferences lists "service -> target" rules whose target or
// intermediate is not in the catalog. Loaders log these as warnings.
func (c *Catalog) DanglingReferences() []string {
	var result []string
	for _, def := range c.All() {
		for _, target := range def.Rules.Direct {
			if !c.Has(target) {
				result = append(result, def.ID+" -> "+target)
			}
		}
		for _, req := range def.Rules.Requires {
			if !c.Has(req.Target) {
				result = append(result, def.ID+" -> "+req.Target)
			}
			for _, mid := range req.Intermediate {
				if !c.Has(mid) {
					result = append(result, def.ID+" -> "+req.Target+" via "+mid)
				}
			}
		}
	}
	return result
}

// MustGet returns a definition and panics if id is unknown.
// Intended for fixtures and the embedded tables.
func (c *Catalog) MustGet(id string) ServiceDefinition {
	def, err := c.Lookup(id)
	if err != nil {
		panic(err)
	}
	return def
}
