package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopstate/core/internal/domain"
)

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	svc := s.engagementFor(userID).achievements

	unlocked, err := svc.ListUnlocked(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unlocked":       unlocked,
		"unlocked_count": len(unlocked),
		"total_count":    svc.TotalCount(),
		"catalog":        svc.Definitions(),
	})
}

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	svc := s.engagementFor(userID).quests

	quests, err := svc.GenerateWeeklyQuests(r.Context(), time.Now())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	svc := s.engagementFor(userID).notifications

	notifs, err := svc.Pending(r.Context(), 20)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleMarkNotificationShown(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidArgument), "id must be numeric")
		return
	}

	svc := s.engagementFor(userID).notifications
	if err := svc.MarkShown(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
