// Package http exposes the course-management REST API. Handlers compose
// the auth resolver, authorization policy, schema validation, conflict
// checks and pagination; every failure funnels through the error
// classifier before a response is written.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/auth"
	"github.com/onichmath/Tarpaulin/internal/config"
	"github.com/onichmath/Tarpaulin/internal/repository"
)

type Server struct {
	cfg      config.Config
	store    repository.Store
	resolver *auth.Resolver
	logger   *slog.Logger
	limiter  *rateLimiter
}

func NewServer(cfg config.Config, store repository.Store, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		resolver: auth.NewResolver(cfg.JWTSecret, cfg.JWTIssuer, store),
		logger:   logger,
		limiter:  newRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(s.requestLogger)
	r.Use(s.limiter.middleware)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	r.Use(s.withActor)
	r.Use(instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateUser)
		r.Post("/login", s.handleLogin)
		r.Get("/{userId}", s.handleGetUser)
	})

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", s.handleListCourses)
		r.Post("/", s.handleCreateCourse)
		r.Get("/{courseId}", s.handleGetCourse)
		r.Patch("/{courseId}", s.handlePatchCourse)
		r.Delete("/{courseId}", s.handleDeleteCourse)
		r.Get("/{courseId}/students", s.handleGetCourseStudents)
		r.Post("/{courseId}/students", s.handleUpdateEnrollment)
		r.Get("/{courseId}/roster", s.handleGetRoster)
		r.Get("/{courseId}/assignments", s.handleGetCourseAssignments)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Post("/", s.handleCreateAssignment)
		r.Get("/{assignmentId}", s.handleGetAssignment)
		r.Patch("/{assignmentId}", s.handlePatchAssignment)
		r.Delete("/{assignmentId}", s.handleDeleteAssignment)
		r.Get("/{assignmentId}/submissions", s.handleListSubmissions)
		r.Post("/{assignmentId}/submissions", s.handleCreateSubmission)
	})

	return r
}

// withActor resolves the caller's identity for every request. Resolution
// never rejects; unauthenticated requests proceed as the anonymous actor
// and the per-endpoint policy decides what they may do.
func (s *Server) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := s.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type actorKey struct{}

func (s *Server) actor(r *http.Request) auth.Actor {
	if actor, ok := r.Context().Value(actorKey{}).(auth.Actor); ok {
		return actor
	}
	return auth.Anonymous
}

// fail is the single exit for handler errors: classify, log, respond.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status, classified := apperr.Classify(s.logger, err)
	writeJSON(w, status, map[string]string{"error": classified.Message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeBody(r *http.Request) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		return nil, apperr.Validation("The request body was either not present or did not contain all the required fields.")
	}
	return body, nil
}

func stringField(body map[string]interface{}, key string) string {
	val, _ := body[key].(string)
	return val
}

func stringSlice(body map[string]interface{}, key string) []string {
	raw, _ := body[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
