package engine

import (
	"fmt"

	"go.uber.org/zap"

	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/cost"
	"cloud-architect-sim/core/latency"
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/security"
	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/logging"
)

// FailureKind names the check that rejected an architecture
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureMissingServices FailureKind = "missing_required_services"
	FailureSecurity        FailureKind = "security_violation"
	FailureBudget          FailureKind = "budget_exceeded"
	FailureLatency         FailureKind = "latency_exceeded"
)

// Success message of a passing validation
const MsgValidated = "Architecture validated successfully!"

// ScoreItem is one contribution to a score delta
type ScoreItem struct {
	Reason string `json:"reason"`
	Delta  int    `json:"delta"`
}

// ValidationResult is the outcome of validating an architecture against a
// level. Failures are data: every invalid outcome carries one message.
type ValidationResult struct {
	LevelID    int         `json:"level_id"`
	Valid      bool        `json:"valid"`
	Message    string      `json:"message"`
	ScoreDelta int         `json:"score_delta"`
	Failure    FailureKind `json:"failure,omitempty"`

	// Score itemises ScoreDelta
	Score []ScoreItem `json:"score,omitempty"`

	Missing     []string `json:"missing,omitempty"`
	Unnecessary []string `json:"unnecessary,omitempty"`
	Issues      []string `json:"issues,omitempty"`

	// Cost and Latency are set once their checks have run
	Cost    *float64 `json:"cost,omitempty"`
	Latency *float64 `json:"latency_ms,omitempty"`

	// Hints are unmet wiring blueprint rules. They never affect Valid or ScoreDelta.
	Hints []string `json:"hints,omitempty"`
}

func (r *ValidationResult) add(reason string, delta int) {
	r.Score = append(r.Score, ScoreItem{Reason: reason, Delta: delta})
	r.ScoreDelta += delta
}

// Observer receives evaluation outcomes. internal/metrics implements it.
type Observer interface {
	ObserveValidation(result ValidationResult)
	ObserveConnection(result connection.Result)
	ObserveLatency(analysis latency.Analysis)
}

// Validator composes the estimators and the auditor into a pass/fail
// decision. Checks run in a fixed order: completeness, unnecessary
// services, security, cost, latency, bonuses. Score deltas of the checks
// that ran persist into the result even when a later check fails.
type Validator struct {
	cost     *cost.Estimator
	latency  *latency.Estimator
	security *security.Auditor
	scoring  config.ScoringConfig

	// optimizationRatio is the budget fraction under which the cost bonus applies
	optimizationRatio float64

	observer Observer
}

// NewValidator creates a validator
func NewValidator(c *cost.Estimator, l *latency.Estimator, s *security.Auditor, scoring config.ScoringConfig, optimizationRatio float64) *Validator {
	return &Validator{
		cost:              c,
		latency:           l,
		security:          s,
		scoring:           scoring,
		optimizationRatio: optimizationRatio,
	}
}

// WithObserver sets the observer and returns the validator
func (v *Validator) WithObserver(o Observer) *Validator {
	v.observer = o
	return v
}

// Validate evaluates a placement against a level
func (v *Validator) Validate(spec level.Spec, p types.Placement) ValidationResult {
	result := v.validate(spec, p)
	if v.observer != nil {
		v.observer.ObserveValidation(result)
	}
	logging.Debug("architecture validated",
		zap.Int("level", spec.ID),
		zap.Bool("valid", result.Valid),
		zap.String("failure", string(result.Failure)),
		zap.Int("score_delta", result.ScoreDelta))
	return result
}

func (v *Validator) validate(spec level.Spec, p types.Placement) ValidationResult {
	services := p.ServiceList()
	connections := p.ConnectionList()
	facts := topology.NewFacts(services, connections)

	result := ValidationResult{LevelID: spec.ID}

	if missing := spec.Missing(facts); len(missing) > 0 {
		result.Failure = FailureMissingServices
		result.Missing = missing
		result.Message = "Missing required services: " + types.JoinIDs(missing)
		return result
	}

	for _, id := range services {
		if !spec.IsExpected(id) {
			result.Unnecessary = append(result.Unnecessary, id)
			result.add("unnecessary service: "+id, v.scoring.UnnecessaryService)
		}
	}

	result.Hints = level.Review(spec, facts)

	if issues := v.security.Audit(services, connections, spec.ID); len(issues) > 0 {
		result.Issues = issues
		result.add(fmt.Sprintf("%d security issue(s)", len(issues)), len(issues)*v.scoring.SecurityViolation)
		result.Failure = FailureSecurity
		result.Message = "Security issues found: " + issues[0]
		return result
	}

	monthly := v.cost.EstimateMonthlyCost(services, connections, spec.ID)
	result.Cost = &monthly
	if monthly > spec.Budget {
		result.Failure = FailureBudget
		result.Message = fmt.Sprintf("Architecture exceeds budget: $%.2f > $%.2f", monthly, spec.Budget)
		return result
	}

	analysis := v.latency.Analyze(services, connections)
	if v.observer != nil {
		v.observer.ObserveLatency(analysis)
	}
	worst := analysis.Latency
	result.Latency = &worst
	if worst > spec.MaxLatency {
		result.Failure = FailureLatency
		result.Message = fmt.Sprintf("Architecture exceeds max latency: %.2fms > %.2fms", worst, spec.MaxLatency)
		return result
	}

	result.Valid = true
	result.Message = MsgValidated
	result.add("requirements fulfilled", v.scoring.RequirementsFulfilled)
	if monthly < spec.Budget*v.optimizationRatio {
		result.add("cost optimization", v.scoring.CostOptimization)
	}
	return result
}
