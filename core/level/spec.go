// Package level - Level definitions and the data-driven level runtime
// A Spec is immutable once loaded. Per-level behaviour (security tier,
// wiring blueprint, tutorial progression) is expressed as data on the
// Spec and interpreted by the generic routines in this package.
package level

import (
	"fmt"
	"sort"

	"cloud-architect-sim/core/topology"
)

// Spec describes one level
type Spec struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Objective   string `json:"objective,omitempty"`

	// Required, Optional and Available are sorted service ids
	Required  []string `json:"required_services"`
	Optional  []string `json:"optional_services"`
	Available []string `json:"available_services"`

	// Budget is USD per month
	Budget float64 `json:"budget"`

	// MaxLatency is milliseconds
	MaxLatency float64 `json:"max_latency"`

	Tutorial []Step       `json:"tutorial,omitempty"`
	Wiring   []WiringRule `json:"wiring,omitempty"`
}

// Step is one tutorial step
type Step struct {
	Text string `json:"text" yaml:"text"`

	// CompleteWhen patterns must all hold for the step to complete.
	// A step without patterns never completes on its own.
	CompleteWhen []string `json:"complete_when,omitempty" yaml:"complete_when"`
}

// WiringRule is one entry of a level's blueprint: when every When pattern
// holds, at least one AnyOf pattern must hold too.
type WiringRule struct {
	Message string   `json:"message" yaml:"message"`
	AnyOf   []string `json:"any_of" yaml:"any_of"`
	When    []string `json:"when,omitempty" yaml:"when"`
}

// Tier returns the level's rule tier
func (s Spec) Tier() Tier {
	return TierFor(s.ID)
}

// IsRequired reports whether id is a required service
func (s Spec) IsRequired(id string) bool {
	return contains(s.Required, id)
}

// IsOptional reports whether id is an optional service
func (s Spec) IsOptional(id string) bool {
	return contains(s.Optional, id)
}

// IsAvailable reports whether id may be placed in this level
func (s Spec) IsAvailable(id string) bool {
	return contains(s.Available, id)
}

// IsExpected reports whether id is required or optional
func (s Spec) IsExpected(id string) bool {
	return s.IsRequired(id) || s.IsOptional(id)
}

// Missing returns the required services not placed, sorted
func (s Spec) Missing(facts *topology.Facts) []string {
	var missing []string
	for _, id := range s.Required {
		if !facts.Placed(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

func contains(sorted []string, id string) bool {
	i := sort.SearchStrings(sorted, id)
	return i < len(sorted) && sorted[i] == id
}

// normalize sorts and deduplicates the service sets
func (s *Spec) normalize() {
	s.Required = sortedSet(s.Required)
	s.Optional = sortedSet(s.Optional)
	s.Available = sortedSet(s.Available)
}

func sortedSet(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	sort.Strings(result)
	return result
}

// Validate checks the level invariants
func (s Spec) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("level id must be positive, got %d", s.ID)
	}
	if s.Title == "" {
		return fmt.Errorf("level %d: missing title", s.ID)
	}
	if len(s.Required) == 0 {
		return fmt.Errorf("level %d: no required services", s.ID)
	}
	for _, id := range s.Required {
		if contains(s.Optional, id) {
			return fmt.Errorf("level %d: %s is both required and optional", s.ID, id)
		}
		if !contains(s.Available, id) {
			return fmt.Errorf("level %d: required service %s is not available", s.ID, id)
		}
	}
	for _, id := range s.Optional {
		if !contains(s.Available, id) {
			return fmt.Errorf("level %d: optional service %s is not available", s.ID, id)
		}
	}
	if s.Budget <= 0 {
		return fmt.Errorf("level %d: budget must be positive", s.ID)
	}
	if s.MaxLatency <= 0 {
		return fmt.Errorf("level %d: max_latency must be positive", s.ID)
	}
	for i, step := range s.Tutorial {
		if _, err := allOf(step.CompleteWhen); err != nil {
			return fmt.Errorf("level %d: tutorial step %d: %w", s.ID, i+1, err)
		}
	}
	for i, rule := range s.Wiring {
		if len(rule.AnyOf) == 0 {
			return fmt.Errorf("level %d: wiring rule %d has no any_of patterns", s.ID, i+1)
		}
		if _, _, err := rule.conditions(); err != nil {
			return fmt.Errorf("level %d: wiring rule %d: %w", s.ID, i+1, err)
		}
	}
	return nil
}

func allOf(tokens []string) (topology.Condition, error) {
	conds := make([]topology.Condition, 0, len(tokens))
	for _, tok := range tokens {
		c, err := topology.ParsePattern(tok)
		if err != nil {
			return topology.Condition{}, err
		}
		conds = append(conds, c)
	}
	return topology.All(conds...), nil
}
