// Package api - Thin HTTP layer over the evaluation engine
// The API is ONLY responsible for: input decoding, engine calls, output serialization.
// The API NEVER evaluates architectures itself.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
	"cloud-architect-sim/internal/metrics"
)

// Server is the API server
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Collector
	cfg     *config.Config
	version string
	router  *chi.Mux
}

// NewServer creates a new API server. collector may be nil.
func NewServer(e *engine.Engine, cfg *config.Config, collector *metrics.Collector, version string) *Server {
	s := &Server{
		engine:  e,
		metrics: collector,
		cfg:     cfg,
		version: version,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observeMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.handleListServices)
			r.Get("/{id}", s.handleGetService)
		})

		r.Route("/levels", func(r chi.Router) {
			r.Get("/", s.handleListLevels)
			r.Get("/{id}", s.handleGetLevel)
			r.Post("/{id}/validate", s.handleValidate)
		})

		r.Post("/connections/validate", s.handleValidateConnection)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/validate/batch", s.handleValidateBatch)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, string(errors.TypeNotFound), "route not found", http.StatusNotFound)
	})

	s.router = r
}

// observeMiddleware logs requests and records request metrics by route pattern
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			s.metrics.ObserveRequest(r.Method, route, ww.Status(), elapsed.Seconds())

			logging.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()

		next.ServeHTTP(ww, r)
	})
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("api server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.TypeInternal, "api server failed", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("api server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

// writeDomainError maps a typed error onto a status code
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	errType := errors.TypeOf(err)
	status := http.StatusInternalServerError
	switch errType {
	case errors.TypeInput, errors.TypeMalformedData:
		status = http.StatusBadRequest
	case errors.TypeNotFound:
		status = http.StatusNotFound
	case errors.TypeUnknownService, errors.TypeInvalidConnection:
		status = http.StatusUnprocessableEntity
	}
	s.writeError(w, string(errType), errors.MessageOf(err), status)
}
