package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/HerbHall/markstash/docs" // registers the OpenAPI document
	"github.com/HerbHall/markstash/internal/version"
)

// VersionHeader carries the build version on health responses.
const VersionHeader = "X-Markstash-Version"

// RouteRegistrar mounts a group of handlers on the server mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the middleware chain. Zero values disable rate limiting
// and allow any origin.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// Server is the markstash HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	store      Pinger
	metrics    *metrics
	limiter    *keyedLimiter
}

// New creates a Server listening on addr. Every registrar's routes are
// mounted next to the health, metrics and swagger endpoints.
func New(addr string, store Pinger, logger *zap.Logger, opts Options, registrars ...RouteRegistrar) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:  logger,
		mux:     mux,
		store:   store,
		metrics: newMetrics(),
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = newKeyedLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}

	s.registerCoreRoutes()
	for _, r := range registrars {
		r.RegisterRoutes(mux)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader, VersionHeader},
		MaxAge:         300,
	})

	// Outermost first.
	handler := chain(mux,
		s.recoverer,
		s.requestID,
		s.accessLog,
		s.metrics.middleware,
		s.rateLimit,
		corsHandler,
	)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	s.mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// HealthResponse is the body of GET /api/health.
// @Description Service liveness and build information.
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Message string            `json:"message" example:"markstash is running"`
	Service string            `json:"service" example:"markstash"`
	Version map[string]string `json:"version"`
}

// handleHealth returns the server health status.
//
//	@Summary		Health check
//	@Description	Report liveness, including a store ping, and build version.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	Problem	"Store unreachable"
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(VersionHeader, version.Short())

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Error("health check: store ping failed", zap.Error(err))
			Unavailable(w, "database unreachable", r.URL.Path)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Message: version.Service + " is running",
		Service: version.Service,
		Version: version.Map(),
	})
}
