// Package api provides HTTP handlers for the Newsreel API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/newsreel/newsreel/internal/middleware"
	"github.com/newsreel/newsreel/internal/trending"
)

// TrendingHandlers holds dependencies for trending HTTP handlers.
type TrendingHandlers struct {
	store trending.SnapshotStore
}

// NewTrendingHandlers creates a new TrendingHandlers instance.
func NewTrendingHandlers(store trending.SnapshotStore) *TrendingHandlers {
	return &TrendingHandlers{store: store}
}

// GetTrending handles GET /trending - returns the latest trending snapshot.
// A missing snapshot (before the first refresh) returns an empty topic list
// rather than an error.
func (h *TrendingHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	snap, err := h.store.Latest(r.Context())
	if err != nil {
		if errors.Is(err, trending.ErrNoSnapshot) {
			snap = &trending.Snapshot{}
		} else {
			slog.ErrorContext(r.Context(), "failed to load trending snapshot", "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load trending topics")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode trending response", "error", err)
	}
}
