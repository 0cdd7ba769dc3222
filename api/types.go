// Package api - API types
// The API is stateless: every request carries a complete architecture.
package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/session"
	"cloud-architect-sim/core/types"
)

// ConnectionRequest is the input to POST /api/v1/connections/validate
type ConnectionRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// EstimateRequest is the input to POST /api/v1/estimate
type EstimateRequest struct {
	types.ArchitectureSpec

	// LevelID selects level discounts and the rule tier; 0 means none
	LevelID int `json:"level_id,omitempty"`
}

// ValidateRequest is the input to POST /api/v1/levels/{id}/validate
type ValidateRequest struct {
	types.ArchitectureSpec
}

// BatchRequest is the input to POST /api/v1/validate/batch
type BatchRequest struct {
	Jobs []engine.Job `json:"jobs"`
}

// BatchResponse is the output of POST /api/v1/validate/batch
type BatchResponse struct {
	Results  []engine.JobResult `json:"results"`
	Stats    engine.BatchStats  `json:"stats"`
	Metadata *ResponseMetadata  `json:"metadata,omitempty"`
}

// ResponseMetadata describes how a response was produced
type ResponseMetadata struct {
	InputHash     string `json:"input_hash"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
}

// EstimateResponse is the output of POST /api/v1/estimate
type EstimateResponse struct {
	engine.Estimate
	Metadata *ResponseMetadata `json:"metadata,omitempty"`
}

// ValidateResponse is the output of POST /api/v1/levels/{id}/validate
type ValidateResponse struct {
	Result engine.ValidationResult `json:"result"`

	// Rank buckets the score delta of this attempt
	Rank     session.Rank      `json:"rank"`
	Metadata *ResponseMetadata `json:"metadata,omitempty"`
}

// ServiceResponse is one catalog entry with its reachable targets
type ServiceResponse struct {
	catalog.ServiceDefinition
	Targets []string `json:"targets"`
}

// LevelSummary is a level in the listing
type LevelSummary struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Budget     float64    `json:"budget"`
	MaxLatency float64    `json:"max_latency"`
	Tier       level.Tier `json:"tier"`
}

// LevelResponse is a full level with its rule tier
type LevelResponse struct {
	level.Spec
	Tier level.Tier `json:"tier"`
}

// ConnectionResponse wraps a connection validator result
type ConnectionResponse struct {
	connection.Result
	Source string `json:"source"`
	Target string `json:"target"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// normalize trims whitespace from every service id. Order is kept:
// the latency estimator depends on it.
func normalize(spec types.ArchitectureSpec) types.ArchitectureSpec {
	out := types.ArchitectureSpec{
		Services:    make([]string, len(spec.Services)),
		Connections: make([]types.Connection, len(spec.Connections)),
	}
	for i, id := range spec.Services {
		out.Services[i] = strings.TrimSpace(id)
	}
	for i, c := range spec.Connections {
		out.Connections[i] = types.Link(strings.TrimSpace(c.Source), strings.TrimSpace(c.Target))
	}
	return out
}

// computeInputHash hashes a normalized request so identical inputs can be
// recognised across calls
func computeInputHash(v interface{}) string {
	data, _ := json.Marshal(v)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
