// Package engine provides the evaluation engine.
// The CLI and the HTTP API are thin wrappers around it.
package engine

import (
	"go.uber.org/zap"

	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/cost"
	"cloud-architect-sim/core/latency"
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/security"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// Engine bundles the catalog, the level registry and every evaluator
// built against them. All members are immutable and safe for concurrent use.
type Engine struct {
	Catalog     *catalog.Catalog
	Levels      *level.Registry
	Connections *connection.Validator
	Cost        *cost.Estimator
	Latency     *latency.Estimator
	Security    *security.Auditor
	Validator   *Validator

	observer Observer
}

// New wires an engine from loaded data
func New(c *catalog.Catalog, levels *level.Registry, cfg *config.Config) *Engine {
	e := &Engine{
		Catalog:     c,
		Levels:      levels,
		Connections: connection.NewValidator(c),
		Cost:        cost.NewEstimator(c),
		Latency:     latency.NewEstimator(c, cfg.Engine.MaxPaths),
		Security:    security.NewAuditor(),
	}
	e.Validator = NewValidator(e.Cost, e.Latency, e.Security, cfg.Scoring, cfg.Engine.CostOptimizationRatio)
	return e
}

// Build loads the catalog and levels named by cfg (embedded data when the
// paths are empty) and wires an engine. A broken catalog is fatal; a
// broken level file falls back to the embedded levels.
func Build(cfg *config.Config) (*Engine, error) {
	c, err := catalog.LoadOrDefault(cfg.Data.CatalogPath)
	if err != nil {
		return nil, err
	}
	levels := level.LoadOrDefault(cfg.Data.LevelsPath)

	if unknown := levels.UnknownServices(c); len(unknown) > 0 {
		return nil, errors.Newf(errors.TypeMalformedData,
			"levels reference services missing from the catalog: %s", types.JoinIDs(unknown))
	}

	logging.Debug("engine built",
		zap.Int("services", c.Len()),
		zap.Int("levels", levels.Len()))
	return New(c, levels, cfg), nil
}

// WithObserver attaches an observer to the engine and its validator
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	e.Validator.WithObserver(o)
	return e
}

// Observer returns the attached observer, or nil
func (e *Engine) Observer() Observer {
	return e.observer
}

// Level returns a level or NOT_FOUND
func (e *Engine) Level(id int) (level.Spec, error) {
	return e.Levels.Get(id)
}

// CheckConnection runs the connection validator
func (e *Engine) CheckConnection(source, target string) connection.Result {
	result := e.Connections.Validate(source, target)
	if e.observer != nil {
		e.observer.ObserveConnection(result)
	}
	return result
}

// NewArchitecture creates an empty architecture. When levelID names a
// level, placement is restricted to the level's available services.
func (e *Engine) NewArchitecture(levelID int) (*architecture.Architecture, error) {
	a := architecture.New(e.Catalog, e.Connections)
	if levelID == types.NoLevel {
		return a, nil
	}
	spec, err := e.Levels.Get(levelID)
	if err != nil {
		return nil, err
	}
	a.Restrict(spec.Available)
	return a, nil
}

// Build places and connects a declarative architecture, rejecting
// unknown services and invalid connections
func (e *Engine) Build(spec types.ArchitectureSpec) (*architecture.Architecture, error) {
	return architecture.FromSpec(e.Catalog, e.Connections, spec)
}

// Evaluate validates a placement against a level
func (e *Engine) Evaluate(levelID int, p types.Placement) (ValidationResult, error) {
	spec, err := e.Levels.Get(levelID)
	if err != nil {
		return ValidationResult{}, err
	}
	return e.Validator.Validate(spec, p), nil
}

// EvaluateSpec builds a declarative architecture and validates it
func (e *Engine) EvaluateSpec(levelID int, spec types.ArchitectureSpec) (ValidationResult, error) {
	if _, err := e.Levels.Get(levelID); err != nil {
		return ValidationResult{}, err
	}
	a, err := e.Build(spec)
	if err != nil {
		return ValidationResult{}, err
	}
	return e.Evaluate(levelID, a.Snapshot())
}

// Estimate is the combined cost, latency and security picture of an
// architecture, independent of any pass/fail decision
type Estimate struct {
	LevelID     int              `json:"level_id,omitempty"`
	MonthlyCost float64          `json:"monthly_cost"`
	Cost        cost.Report      `json:"cost"`
	Latency     latency.Analysis `json:"latency"`
	Issues      []string         `json:"issues,omitempty"`
}

// Estimate runs every estimator over a placement. Unknown services and
// stale connections are skipped, as the estimators do.
func (e *Engine) Estimate(p types.Placement, levelID int) Estimate {
	services := p.ServiceList()
	connections := p.ConnectionList()

	report := e.Cost.Estimate(services, connections, levelID)
	analysis := e.Latency.Analyze(services, connections)
	if e.observer != nil {
		e.observer.ObserveLatency(analysis)
	}

	return Estimate{
		LevelID:     levelID,
		MonthlyCost: report.Monthly(),
		Cost:        report,
		Latency:     analysis,
		Issues:      e.Security.Audit(services, connections, levelID),
	}
}
