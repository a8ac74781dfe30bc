package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/service"
)

type WatchlistHandler struct {
	watchlist *service.WatchlistService
	logger    *slog.Logger
}

func NewWatchlistHandler(watchlist *service.WatchlistService, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, logger: logger}
}

// Watch is a pointer so a missing field fails validation instead of
// silently meaning false.
type watchRequest struct {
	Watch *bool `json:"watch" validate:"required"`
}

// HandleToggle sets the caller's watch flag on a listing.
//
// HTTP: PUT /api/listings/{id}/watchlist {"watch": true|false}
func (h *WatchlistHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req watchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.watchlist.ToggleWatchlist(r.Context(), userID, chi.URLParam(r, "id"), *req.Watch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleList returns the caller's watched listings. HTTP: GET /api/watchlist
func (h *WatchlistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	listings, err := h.watchlist.ListWatched(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
