// Package connection decides whether a directed link between two service
// types is legal. Decisions depend only on the catalog and the two ids.
package connection

import (
	"fmt"
	"strings"

	"cloud-architect-sim/core/catalog"
)

// Kind classifies a connection decision
type Kind string

const (
	KindValid                Kind = "valid"
	KindInvalidService       Kind = "invalid_service"
	KindRequiresIntermediate Kind = "requires_intermediate"
	KindNotAllowed           Kind = "not_allowed"
)

// Result is the outcome of validating one connection
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`

	// RequiredServices is advisory: the intermediates that would make the
	// connection legal. Set only for KindRequiresIntermediate.
	RequiredServices []string `json:"required_services,omitempty"`
}

// Validator checks connections against a catalog
type Validator struct {
	catalog *catalog.Catalog
}

// NewValidator creates a validator
func NewValidator(c *catalog.Catalog) *Validator {
	return &Validator{catalog: c}
}

// Validate decides whether source may connect to target.
// Direction matters: Validate(a, b) and Validate(b, a) are independent.
func (v *Validator) Validate(source, target string) Result {
	src, srcOK := v.catalog.Get(source)
	dst, dstOK := v.catalog.Get(target)
	if !srcOK || !dstOK {
		return Result{Kind: KindInvalidService, Message: "Invalid service ID"}
	}

	if src.AllowsDirect(target) {
		return Result{
			Valid:   true,
			Kind:    KindValid,
			Message: fmt.Sprintf("Valid connection: %s → %s", src.DisplayName, dst.DisplayName),
		}
	}

	if req, ok := src.RequirementFor(target); ok {
		required := append([]string(nil), req.Intermediate...)
		return Result{
			Kind:             KindRequiresIntermediate,
			Message:          fmt.Sprintf("%s → %s requires %s", src.DisplayName, dst.DisplayName, strings.Join(required, ", ")),
			RequiredServices: required,
		}
	}

	return Result{
		Kind:    KindNotAllowed,
		Message: fmt.Sprintf("%s cannot connect directly to %s", src.DisplayName, dst.DisplayName),
	}
}

// Targets lists every service id source may connect to directly, sorted
func (v *Validator) Targets(source string) []string {
	var result []string
	for _, id := range v.catalog.IDs() {
		if v.Validate(source, id).Valid {
			result = append(result, id)
		}
	}
	return result
}
