// Package metrics exposes evaluation metrics to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/latency"
)

// OutcomeValid labels validations that passed
const OutcomeValid = "valid"

// Collector bundles the engine and HTTP metrics. It implements
// engine.Observer; every method is safe on a nil receiver.
type Collector struct {
	gatherer prometheus.Gatherer

	Validations      *prometheus.CounterVec
	ScoreDelta       prometheus.Histogram
	ConnectionChecks *prometheus.CounterVec
	PathsTruncated   prometheus.Counter

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil. Metrics that are
// already registered are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	validations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archsim_validations_total",
		Help: "Architecture validations, labeled by outcome (valid or the failure kind).",
	}, []string{"outcome"}), "archsim_validations_total")
	if err != nil {
		return nil, err
	}

	scoreDelta, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "archsim_validation_score_delta",
		Help:    "Score delta produced by architecture validations.",
		Buckets: []float64{-100, -50, -30, -20, -10, 0, 50, 100, 150, 200},
	}), "archsim_validation_score_delta")
	if err != nil {
		return nil, err
	}

	connections, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archsim_connection_attempts_total",
		Help: "Connection checks, labeled by the validator's result kind.",
	}, []string{"result"}), "archsim_connection_attempts_total")
	if err != nil {
		return nil, err
	}

	truncated, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archsim_latency_paths_truncated_total",
		Help: "Latency searches stopped early by the path limit.",
	}), "archsim_latency_paths_truncated_total")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archsim_http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "archsim_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archsim_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"}), "archsim_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Validations:      validations,
		ScoreDelta:       scoreDelta,
		ConnectionChecks: connections,
		PathsTruncated:   truncated,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveValidation records a validation outcome and its score delta
func (c *Collector) ObserveValidation(result engine.ValidationResult) {
	if c == nil {
		return
	}
	outcome := OutcomeValid
	if !result.Valid {
		outcome = string(result.Failure)
	}
	if c.Validations != nil {
		c.Validations.WithLabelValues(outcome).Inc()
	}
	if c.ScoreDelta != nil {
		c.ScoreDelta.Observe(float64(result.ScoreDelta))
	}
}

// ObserveConnection records a connection check
func (c *Collector) ObserveConnection(result connection.Result) {
	if c == nil || c.ConnectionChecks == nil {
		return
	}
	c.ConnectionChecks.WithLabelValues(string(result.Kind)).Inc()
}

// ObserveLatency counts truncated latency searches
func (c *Collector) ObserveLatency(analysis latency.Analysis) {
	if c == nil || c.PathsTruncated == nil || !analysis.Truncated {
		return
	}
	c.PathsTruncated.Inc()
}

// ObserveRequest records one handled HTTP request
func (c *Collector) ObserveRequest(method, route string, code int, seconds float64) {
	if c == nil {
		return
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(method, route).Observe(seconds)
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
