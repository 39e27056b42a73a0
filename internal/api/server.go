// Package api provides the HTTP server exposing the streak and XP callable
// entry points (§6) plus REST reads over the sqlite-backed repositories.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loopstate/core/internal/app/engagement"
	"github.com/loopstate/core/internal/health"
	"github.com/loopstate/core/internal/infra/metrics"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// Server is the loopstate HTTP API server.
type Server struct {
	db             *sqlite.DB
	health         *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server bound to db.
func NewServer(db *sqlite.DB, checker *health.Checker) *Server {
	return &Server{db: db, health: checker}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/streak/calculate", s.handleCalculateStreak)
		r.Get("/streak/{userID}/{streakKey}", s.handleGetStreak)
		r.Get("/streak/{userID}/{streakKey}/state", s.handleGetStreakState)

		r.Post("/xp/calculate", s.handleCalculateXP)
		r.Get("/xp/{userID}/{experienceKey}", s.handleGetXP)

		r.Get("/progress/{userID}", s.handleListProgress)
		r.Put("/progress/{userID}/{itemID}", s.handleUpsertProgress)
		r.Delete("/progress/{userID}/{itemID}", s.handleDeleteProgress)

		r.Get("/achievements/{userID}", s.handleListAchievements)
		r.Get("/quests/{userID}", s.handleListQuests)
		r.Get("/notifications/{userID}", s.handleListNotifications)
		r.Post("/notifications/{userID}/{id}/shown", s.handleMarkNotificationShown)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.health.Statuses()
	status := http.StatusOK
	if !s.health.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": s.health.IsHealthy(),
		"checks":  statuses,
	})
}

// engagementServices bundles per-user engagement services for a request,
// constructed on demand — they are cheap value wrappers around db.
type engagementServices struct {
	achievements *engagement.AchievementService
	quests       *engagement.QuestService
	notifications *engagement.NotificationService
}

func (s *Server) engagementFor(userID string) engagementServices {
	return engagementServices{
		achievements:  engagement.NewAchievementService(s.db, userID),
		quests:        engagement.NewQuestService(s.db, userID),
		notifications: engagement.NewNotificationService(s.db, userID),
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response shaped around the §7 fault
// taxonomy.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	})
}

// metricsMiddleware records request duration labeled by matched route
// pattern and response status, after the route has been resolved.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.APIRequestLatency.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// corsMiddleware adds permissive CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
