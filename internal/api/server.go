// Package api exposes the planner to the web and mobile front-ends as a JSON
// HTTP API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"nutrision/internal/app"
	"nutrision/internal/metrics"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// DataDir is reported in the health payload.
	DataDir string
	// Gatherer serves /metrics.
	Gatherer prometheus.Gatherer
}

// Server holds the HTTP handlers.
type Server struct {
	app    *app.App
	auth   *Authenticator
	opts   Options
	logger *zap.Logger
}

// NewServer creates a Server.
func NewServer(a *app.App, auth *Authenticator, opts Options, logger *zap.Logger) *Server {
	return &Server{app: a, auth: auth, opts: opts, logger: logger}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/plan", s.handleGetPlan)
		r.Post("/plan", s.handleNewPlan)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}", s.handleGetPlanByID)
		r.Get("/shopping", s.handleShoppingList)
		// {key} is a path-escaped shopping.ItemKey.
		r.Post("/shopping/items/{key}/toggle", s.handleToggleItem)
		r.Get("/session", s.handleGetSession)
		r.Delete("/session", s.handleResetSession)
		r.Post("/recipes/clip", s.handleClipRecipe)
		r.Route("/recipes/{day}/{meal}/{diet}", func(r chi.Router) {
			r.Get("/", s.handleGetRecipe)
			r.Put("/image", s.handleSetImage)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"aiEnabled": s.app.AIEnabled(),
		"system":    metrics.GetSysHealth(s.opts.DataDir),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
