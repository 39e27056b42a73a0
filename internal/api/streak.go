package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopstate/core/internal/app/streakorch"
	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/metrics"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// calculateStreakRequest mirrors the calculateStreak callable entry point
// (§6) over HTTP.
type calculateStreakRequest struct {
	UserID               string `json:"user_id"`
	StreakKey            string `json:"streak_key"`
	EventsRequiredPerDay int    `json:"events_required_per_day"`
	LeewayHours          int    `json:"leeway_hours"`
	FreezeBehavior       string `json:"freeze_behavior"`
	Zone                 string `json:"zone"`
}

func (s *Server) handleCalculateStreak(w http.ResponseWriter, r *http.Request) {
	var req calculateStreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidArgument), "malformed request body")
		return
	}

	cfg := domain.StreakConfig{
		StreakKey:            req.StreakKey,
		EventsRequiredPerDay: req.EventsRequiredPerDay,
		LeewayHours:          req.LeewayHours,
		FreezeBehavior:       domain.FreezeBehavior(req.FreezeBehavior),
	}
	repo := sqlite.NewStreakStore(s.db, req.UserID, req.StreakKey)

	before, beforeErr := repo.GetSummary(r.Context())
	if beforeErr != nil {
		log.Printf("[api] read prior streak summary: %v", beforeErr)
	}

	start := time.Now()
	summary, err := streakorch.Run(r.Context(), repo, streakorch.Params{
		UserID: req.UserID,
		Config: cfg,
		Zone:   req.Zone,
	}, time.Now)
	metrics.StreakCalculationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OrchestratorRuns.WithLabelValues("streak", "error").Inc()
		writeFault(w, err)
		return
	}
	metrics.OrchestratorRuns.WithLabelValues("streak", "ok").Inc()

	if beforeErr == nil {
		s.applyStreakEngagement(r.Context(), req.UserID, before, summary, time.Now())
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	streakKey := chi.URLParam(r, "streakKey")
	repo := sqlite.NewStreakStore(s.db, userID, streakKey)

	summary, err := repo.GetSummary(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, string(domain.CodeInvalidArgument), "no summary for user/streak_key")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetStreakState(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	streakKey := chi.URLParam(r, "streakKey")
	repo := sqlite.NewStreakStore(s.db, userID, streakKey)

	summary, err := repo.GetSummary(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, string(domain.CodeInvalidArgument), "no summary for user/streak_key")
		return
	}

	todayQualifies := summary.TodayEventCount >= summary.EventsRequiredPerDay
	writeJSON(w, http.StatusOK, map[string]any{
		"state":            summary.State(todayQualifies),
		"current_streak":   summary.CurrentStreak,
		"today_qualifies":  todayQualifies,
		"today_event_count": summary.TodayEventCount,
	})
}
