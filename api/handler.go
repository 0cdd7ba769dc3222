package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/session"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/errors"
)

const (
	// maxBodyBytes bounds request bodies
	maxBodyBytes = 1 << 20

	maxBatchJobs = 100
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "healthy",
		"version":  s.version,
		"services": s.engine.Catalog.Len(),
		"levels":   s.engine.Levels.Len(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "archsim",
		"api_version": "v1",
	}, http.StatusOK)
}

// handleListServices handles GET /api/v1/services[?category=]
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	defs := s.engine.Catalog.All()
	if category := r.URL.Query().Get("category"); category != "" {
		defs = s.engine.Catalog.ByCategory(category)
	}
	s.writeJSON(w, map[string]interface{}{
		"services":   defs,
		"categories": s.engine.Catalog.Categories(),
		"total":      len(defs),
	}, http.StatusOK)
}

// handleGetService handles GET /api/v1/services/{id}
func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := s.engine.Catalog.Lookup(id)
	if err != nil {
		s.writeError(w, string(errors.TypeNotFound), errors.MessageOf(err), http.StatusNotFound)
		return
	}
	s.writeJSON(w, ServiceResponse{
		ServiceDefinition: def,
		Targets:           s.engine.Connections.Targets(id),
	}, http.StatusOK)
}

// handleListLevels handles GET /api/v1/levels
func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	specs := s.engine.Levels.All()
	levels := make([]LevelSummary, 0, len(specs))
	for _, spec := range specs {
		levels = append(levels, LevelSummary{
			ID:         spec.ID,
			Title:      spec.Title,
			Budget:     spec.Budget,
			MaxLatency: spec.MaxLatency,
			Tier:       spec.Tier(),
		})
	}
	s.writeJSON(w, map[string]interface{}{
		"levels": levels,
		"total":  len(levels),
	}, http.StatusOK)
}

// handleGetLevel handles GET /api/v1/levels/{id}
func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	id, err := levelParam(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	spec, err := s.engine.Level(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, LevelResponse{Spec: spec, Tier: spec.Tier()}, http.StatusOK)
}

// handleValidateConnection handles POST /api/v1/connections/validate
func (s *Server) handleValidateConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	req.Target = strings.TrimSpace(req.Target)
	if req.Source == "" || req.Target == "" {
		s.writeError(w, string(errors.TypeInput), "source and target are required", http.StatusBadRequest)
		return
	}

	result := s.engine.CheckConnection(req.Source, req.Target)
	s.writeJSON(w, ConnectionResponse{Result: result, Source: req.Source, Target: req.Target}, http.StatusOK)
}

// handleEstimate handles POST /api/v1/estimate
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EstimateRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.ArchitectureSpec = normalize(req.ArchitectureSpec)

	if req.LevelID != types.NoLevel {
		if _, err := s.engine.Level(req.LevelID); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	estimate := s.engine.Estimate(req.ArchitectureSpec, req.LevelID)
	s.writeJSON(w, EstimateResponse{
		Estimate: estimate,
		Metadata: s.metadata(req, start),
	}, http.StatusOK)
}

// handleValidate handles POST /api/v1/levels/{id}/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := levelParam(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var req ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.ArchitectureSpec = normalize(req.ArchitectureSpec)

	result, err := s.engine.EvaluateSpec(id, req.ArchitectureSpec)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, ValidateResponse{
		Result:   result,
		Rank:     session.RankFor(result.ScoreDelta, s.cfg.Ranks),
		Metadata: s.metadata(req, start),
	}, http.StatusOK)
}

// handleValidateBatch handles POST /api/v1/validate/batch. Job errors
// are reported per job; the request itself only fails on bad input.
func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Jobs) == 0 {
		s.writeDomainError(w, errors.Input("batch has no jobs"))
		return
	}
	if len(req.Jobs) > maxBatchJobs {
		s.writeDomainError(w, errors.Newf(errors.TypeInput, "batch has %d jobs, at most %d allowed", len(req.Jobs), maxBatchJobs))
		return
	}
	for i := range req.Jobs {
		req.Jobs[i].Spec = normalize(req.Jobs[i].Spec)
	}

	results, stats := engine.NewBatchEvaluator(s.engine, s.cfg.Engine.Workers).Run(r.Context(), req.Jobs)
	s.writeJSON(w, BatchResponse{
		Results:  results,
		Stats:    stats,
		Metadata: s.metadata(req, start),
	}, http.StatusOK)
}

func (s *Server) metadata(req interface{}, start time.Time) *ResponseMetadata {
	return &ResponseMetadata{
		InputHash:     computeInputHash(req),
		EngineVersion: s.version,
		DurationMs:    time.Since(start).Milliseconds(),
	}
}

// decode reads a JSON body, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func levelParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.Newf(errors.TypeInput, "invalid level id: %q", raw)
	}
	return id, nil
}
