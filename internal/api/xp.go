package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopstate/core/internal/app/xporch"
	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/metrics"
	"github.com/loopstate/core/internal/infra/sqlite"
)

// calculateXPRequest mirrors the calculateExperiencePoints callable entry
// point (§6) over HTTP.
type calculateXPRequest struct {
	UserID        string `json:"user_id"`
	ExperienceKey string `json:"experience_key"`
	Zone          string `json:"zone"`
}

func (s *Server) handleCalculateXP(w http.ResponseWriter, r *http.Request) {
	var req calculateXPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidArgument), "malformed request body")
		return
	}

	cfg := domain.XPConfig{ExperienceKey: req.ExperienceKey}
	repo := sqlite.NewXPStore(s.db, req.UserID, req.ExperienceKey)

	before, beforeErr := repo.GetSummary(r.Context())
	if beforeErr != nil {
		log.Printf("[api] read prior xp summary: %v", beforeErr)
	}

	start := time.Now()
	summary, err := xporch.Run(r.Context(), repo, xporch.Params{
		UserID: req.UserID,
		Config: cfg,
		Zone:   req.Zone,
	}, time.Now)
	metrics.XPCalculationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OrchestratorRuns.WithLabelValues("xp", "error").Inc()
		writeFault(w, err)
		return
	}
	metrics.OrchestratorRuns.WithLabelValues("xp", "ok").Inc()

	if beforeErr == nil {
		s.applyXPEngagement(r.Context(), req.UserID, before, summary, time.Now())
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetXP(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	experienceKey := chi.URLParam(r, "experienceKey")
	repo := sqlite.NewXPStore(s.db, userID, experienceKey)

	summary, err := repo.GetSummary(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, string(domain.CodeInvalidArgument), "no summary for user/experience_key")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
