// Package chi exposes the HTTP and WebSocket API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	healthuc "github.com/nutriplate/nutriplate/internal/usecase/health"
	"github.com/nutriplate/nutriplate/internal/version"
)

const defaultMaxUpload = 10 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the chat, recipe and tracking endpoints.
type Server struct {
	assistant     Assistant
	generator     RecipeGenerator
	catalog       Catalog
	health        HealthReporter
	records       []RecordRoutes
	maxUpload     int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// Deps groups the services behind the API. Nil services leave their routes unmounted.
type Deps struct {
	Assistant Assistant
	Generator RecipeGenerator
	Catalog   Catalog
	Health    HealthReporter
	Records   []RecordRoutes
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		assistant: deps.Assistant,
		generator: deps.Generator,
		catalog:   deps.Catalog,
		health:    deps.Health,
		records:   deps.Records,
		maxUpload: defaultMaxUpload,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		upstreamHandler,
		messageHandler(domain.ErrInputMissing, http.StatusBadRequest),
		messageHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		messageHandler(domain.ErrDimensionMismatch, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict),
		sentinelHandler(domain.ErrTransport, http.StatusBadGateway),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway),
	}
	return s
}

// WithMaxUpload limits the size of uploaded images.
func (s *Server) WithMaxUpload(n int64) *Server {
	if n > 0 {
		s.maxUpload = n
	}
	return s
}

// Mount registers all routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Use(chiMiddleware.StripSlashes)

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	if s.assistant != nil {
		r.Get("/ws/chat", s.ChatSocket)
		r.Post("/api/chat", s.Chat)
		r.Post("/api/knowledge", s.AddKnowledge)
		r.Get("/api/knowledge/search", s.SearchKnowledge)
		r.Get("/api/knowledge/{id}", s.GetKnowledge)
	}
	if s.generator != nil {
		r.Post("/api/generate_recipe_from_image", s.GenerateRecipeFromImage)
		r.Post("/api/generate_recipe", s.GenerateRecipe)
	}
	if s.catalog != nil {
		r.Route("/api/recipes", func(r chi.Router) {
			r.Get("/", s.ListRecipes)
			r.Post("/", s.CreateRecipe)
			r.Get("/{id}", s.GetRecipe)
			r.Put("/{id}", s.UpdateRecipe)
			r.Delete("/{id}", s.DeleteRecipe)
		})
	}
	for _, rr := range s.records {
		r.Route(rr.pattern(), func(r chi.Router) { rr.mount(r, s) })
	}
}

// Handler returns a router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Mount(r)
	return r
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy), Version: version.String()})
		return
	}
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Version: version.String(),
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrTransport,
		domain.ErrGenerationFailed,
		domain.ErrModelUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler maps a sentinel to a status with the sentinel's own message.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, safeDomainMessage(err))
		return true
	}
}

// messageHandler maps a sentinel to a status and echoes the full message.
// Only used for errors describing the client's own input.
func messageHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, err.Error())
		return true
	}
}

// upstreamHandler echoes the status and body of a rejected model call.
func upstreamHandler(w http.ResponseWriter, err error) bool {
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	writeError(w, http.StatusBadGateway, ue.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
