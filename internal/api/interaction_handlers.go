// Package api provides HTTP handlers for the Newsreel API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/interaction"
	"github.com/newsreel/newsreel/internal/interest"
	"github.com/newsreel/newsreel/internal/middleware"
)

// RecordInteractionRequest represents the request body for recording an interaction.
type RecordInteractionRequest struct {
	ArticleID        string   `json:"article_id"`
	Type             string   `json:"type"`
	ReadingProgress  *float64 `json:"reading_progress,omitempty"`
	TimeSpentSeconds *float64 `json:"time_spent_seconds,omitempty"`
}

// InteractionHandlers holds dependencies for interaction HTTP handlers.
type InteractionHandlers struct {
	accumulator *interest.Accumulator
}

// NewInteractionHandlers creates a new InteractionHandlers instance.
func NewInteractionHandlers(accumulator *interest.Accumulator) *InteractionHandlers {
	return &InteractionHandlers{accumulator: accumulator}
}

// RecordInteraction handles POST /interactions - records one user action on
// an article and updates the user's interest profile.
func (h *InteractionHandlers) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := requestUserID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	var req RecordInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	record := &interaction.Interaction{
		ID:               uuid.New().String(),
		UserID:           userID,
		ArticleID:        req.ArticleID,
		Type:             interaction.Type(req.Type),
		Timestamp:        time.Now(),
		ReadingProgress:  req.ReadingProgress,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}

	if err := h.accumulator.RecordInteraction(r.Context(), record); err != nil {
		switch {
		case errors.Is(err, interaction.ErrMissingUserID),
			errors.Is(err, interaction.ErrMissingArticleID),
			errors.Is(err, interaction.ErrInvalidReadingProgress),
			errors.Is(err, interaction.ErrInvalidTimeSpent):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidInteraction)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidInteraction, err.Error())
			return
		case errors.Is(err, article.ErrArticleNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeArticleNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeArticleNotFound, "Article not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to record interaction",
			"error", err, "user_id", userID, "article_id", req.ArticleID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record interaction")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode interaction response", "error", err)
	}
}
