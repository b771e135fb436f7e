// Package api provides HTTP handlers for the Newsreel API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newsreel/newsreel/internal/feed"
	"github.com/newsreel/newsreel/internal/middleware"
	"github.com/newsreel/newsreel/internal/ranking"
)

// FeedHandlers holds dependencies for the feed HTTP handlers.
type FeedHandlers struct {
	assembler *feed.Assembler
	configs   feed.ConfigStore
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(assembler *feed.Assembler, configs feed.ConfigStore) *FeedHandlers {
	return &FeedHandlers{
		assembler: assembler,
		configs:   configs,
	}
}

// requestUserID resolves the user the request acts for. Authenticated
// requests carry the ID in context; the user_id query parameter is the
// unauthenticated fallback.
func requestUserID(r *http.Request) string {
	if id := middleware.GetUserID(r.Context()); id != "" {
		return id
	}
	return r.URL.Query().Get("user_id")
}

// parseFeedRequest builds a feed.Request from query parameters.
// Numeric and date parse failures are reported as errors; the deeper
// semantic validation happens in Request.Normalize.
func parseFeedRequest(r *http.Request) (feed.Request, error) {
	q := r.URL.Query()
	var req feed.Request

	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("page_size must be an integer")
		}
		req.PageSize = n
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("page must be an integer")
		}
		req.PageNumber = n
	}

	req.Algorithm = q.Get("algorithm")

	if v := q.Get("categories"); v != "" {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				req.Categories = append(req.Categories, c)
			}
		}
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New("from must be an RFC 3339 timestamp")
		}
		req.FromDate = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New("to must be an RFC 3339 timestamp")
		}
		req.ToDate = t
	}

	req.Sort = feed.SortOptions{
		SortBy:          q.Get("sort_by"),
		Order:           q.Get("order"),
		TimeFilter:      q.Get("time_filter"),
		Category:        q.Get("category"),
		Source:          q.Get("source"),
		FollowedOnly:    q.Get("followed_only") == "true",
		IncludeTrending: q.Get("include_trending") == "true",
	}
	return req, nil
}

// feedErrorCode maps assembler errors to API error codes.
func feedErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, feed.ErrUnknownAlgorithm):
		return ErrCodeInvalidAlgorithm, http.StatusBadRequest
	case errors.Is(err, feed.ErrInvalidPageSize), errors.Is(err, feed.ErrInvalidPageNumber):
		return ErrCodeInvalidPagination, http.StatusBadRequest
	case errors.Is(err, feed.ErrInvalidDateRange):
		return ErrCodeInvalidDateRange, http.StatusBadRequest
	case errors.Is(err, feed.ErrInvalidSortBy), errors.Is(err, feed.ErrInvalidSortOrder),
		errors.Is(err, feed.ErrInvalidTimeFilter):
		return ErrCodeValidation, http.StatusBadRequest
	}
	return ErrCodeInternal, http.StatusInternalServerError
}

// GetFeed handles GET /feed - returns an ordered feed page for the user.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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

	req, err := parseFeedRequest(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	resp, err := h.assembler.GetFeed(r.Context(), userID, req)
	if err != nil {
		code, status := feedErrorCode(err)
		if status >= 500 {
			slog.ErrorContext(r.Context(), "failed to assemble feed", "error", err, "user_id", userID)
		}
		ctx := middleware.SetErrorCode(r.Context(), code)
		WriteError(w, ctx, status, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode feed response", "error", err)
	}
}

// GetConfig handles GET /feed/config - returns the user's feed configuration,
// creating the default on first use.
func (h *FeedHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	cfg, err := h.configs.Get(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load feed configuration", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load feed configuration")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode configuration", "error", err)
	}
}

// UpdateConfig handles PUT /feed/config - replaces the user's feed configuration.
func (h *FeedHandlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "user_id is required")
		return
	}

	var cfg feed.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	cfg.UserID = userID

	if err := h.configs.Update(r.Context(), &cfg); err != nil {
		if errors.Is(err, feed.ErrUnknownAlgorithm) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidAlgorithm)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidAlgorithm, err.Error())
			return
		}
		if errors.Is(err, ranking.ErrInvalidWeight) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to update feed configuration", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update feed configuration")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(&cfg); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode configuration", "error", err)
	}
}

// Config dispatches /feed/config by method.
func (h *FeedHandlers) Config(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetConfig(w, r)
	case http.MethodPut:
		h.UpdateConfig(w, r)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}
