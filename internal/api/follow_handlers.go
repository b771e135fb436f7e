// Package api provides HTTP handlers for the Newsreel API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/newsreel/newsreel/internal/follow"
	"github.com/newsreel/newsreel/internal/middleware"
)

// FollowRequest represents the request body for follow/unfollow operations.
type FollowRequest struct {
	FolloweeID string `json:"followee_id"`
}

// FollowHandlers holds dependencies for follow graph HTTP handlers.
type FollowHandlers struct {
	graph follow.Graph
}

// NewFollowHandlers creates a new FollowHandlers instance.
func NewFollowHandlers(graph follow.Graph) *FollowHandlers {
	return &FollowHandlers{graph: graph}
}

// Follows dispatches /follows by method: POST follows, DELETE unfollows,
// GET lists the followed set.
func (h *FollowHandlers) Follows(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, userID)
	case http.MethodPost:
		h.mutate(w, r, userID, h.graph.Follow)
	case http.MethodDelete:
		h.mutate(w, r, userID, h.graph.Unfollow)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

func (h *FollowHandlers) list(w http.ResponseWriter, r *http.Request, userID string) {
	following, err := h.graph.Following(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list follows", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list follows")
		return
	}

	ids := make([]string, 0, len(following))
	for id := range following {
		ids = append(ids, id)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string][]string{"following": ids}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode follows response", "error", err)
	}
}

// followOp is a follow-graph mutation: Follow or Unfollow.
type followOp func(ctx context.Context, followerID, followeeID string) error

func (h *FollowHandlers) mutate(w http.ResponseWriter, r *http.Request, userID string, op followOp) {
	var req FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.FolloweeID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "followee_id is required")
		return
	}

	if err := op(r.Context(), userID, req.FolloweeID); err != nil {
		slog.ErrorContext(r.Context(), "failed to update follow graph", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update follow graph")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
