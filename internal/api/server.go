// Package api exposes candidate generation, pattern lookup and verification
// status over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/leadmail/internal/model"
	"github.com/sells-group/leadmail/internal/patterns"
	"github.com/sells-group/leadmail/internal/verify"
)

// AdminTokenHeader carries the token for privileged routes.
const AdminTokenHeader = "X-Admin-Token"

// Generator produces candidate emails.
type Generator interface {
	Generate(ctx context.Context, fullName, companyName string) (patterns.Generation, error)
}

// PatternCache reads and deletes learned patterns.
type PatternCache interface {
	Get(ctx context.Context, companyName string) (*model.CompanyPattern, patterns.Source, error)
	Delete(ctx context.Context, companyName string) (bool, error)
}

// Rebuilder recomputes the pattern cache.
type Rebuilder interface {
	Rebuild(ctx context.Context) (patterns.RebuildResult, error)
}

// StatusLookup answers verification status queries.
type StatusLookup interface {
	Status(ctx context.Context, email string) (*verify.Status, error)
}

// Config wires the server's collaborators.
type Config struct {
	Generator Generator
	Patterns  PatternCache
	Rebuilder Rebuilder
	Status    StatusLookup
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// AdminToken guards privileged routes. Empty disables them.
	AdminToken     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server handles API requests.
type Server struct {
	cfg Config
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{cfg: cfg}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", AdminTokenHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Post("/emails/generate", s.handleGenerate)
		r.Get("/patterns/{company}", s.handleGetPattern)
		r.Get("/verification", s.handleVerificationStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Delete("/patterns/{company}", s.handleDeletePattern)
			r.Post("/patterns/rebuild", s.handleRebuild)
		})
	})
	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			writeError(w, http.StatusForbidden, "admin routes are disabled")
			return
		}
		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
