package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopstate/core/internal/domain"
	"github.com/loopstate/core/internal/infra/sqlite"
)

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	store := sqlite.NewProgressStore(s.db, userID)

	items, err := store.ListItems(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpsertProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	itemID := chi.URLParam(r, "itemID")
	store := sqlite.NewProgressStore(s.db, userID)

	var item domain.ProgressItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.CodeInvalidArgument), "malformed request body")
		return
	}
	item.ID = itemID

	if err := store.UpsertItem(r.Context(), item); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	itemID := chi.URLParam(r, "itemID")
	store := sqlite.NewProgressStore(s.db, userID)

	if err := store.DeleteItem(r.Context(), itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, string(domain.CodeInvalidArgument), "progress item not found")
			return
		}
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
