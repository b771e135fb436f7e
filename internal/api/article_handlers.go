// Package api provides HTTP handlers for the Newsreel API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/middleware"
)

// Article validation constraints.
const (
	MaxTitleLength = 500
)

// CreateArticleRequest represents the request body for creating an article.
type CreateArticleRequest struct {
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	AuthorID    string    `json:"author_id,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// SetLabelsRequest represents the request body for replacing moderation labels.
type SetLabelsRequest struct {
	Labels []string `json:"labels"`
}

// ArticleHandlers holds dependencies for article HTTP handlers.
type ArticleHandlers struct {
	catalog article.Catalog
}

// NewArticleHandlers creates a new ArticleHandlers instance.
func NewArticleHandlers(catalog article.Catalog) *ArticleHandlers {
	return &ArticleHandlers{catalog: catalog}
}

// validateArticle validates a create request.
// Returns error message if validation fails, empty string if valid.
func validateArticle(req *CreateArticleRequest) string {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "article title is required"
	}
	if len(title) > MaxTitleLength {
		return "article title must not exceed 500 characters"
	}
	if strings.TrimSpace(req.Source) == "" {
		return "article source is required"
	}
	if strings.TrimSpace(req.Category) == "" {
		return "article category is required"
	}
	return ""
}

// extractArticleID extracts the article ID from the URL path.
// Accepts /articles/{id} and /articles/{id}/labels.
func extractArticleID(r *http.Request) (string, error) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/articles/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		return "", fmt.Errorf("article ID is required")
	}
	return pathParts[0], nil
}

// CreateArticle handles POST /articles - creates a new article.
func (h *ArticleHandlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if errMsg := validateArticle(&req); errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	authorID := req.AuthorID
	if authorID == "" {
		authorID = requestUserID(r)
	}

	newArticle := &article.Article{
		Title:       html.EscapeString(strings.TrimSpace(req.Title)),
		URL:         strings.TrimSpace(req.URL),
		Category:    strings.TrimSpace(req.Category),
		Source:      strings.TrimSpace(req.Source),
		AuthorID:    authorID,
		PublishedAt: req.PublishedAt,
	}

	if err := h.catalog.Create(r.Context(), newArticle); err != nil {
		slog.ErrorContext(r.Context(), "failed to create article", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create article")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(newArticle); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// GetArticle handles GET /articles/{id} - retrieves a single article.
func (h *ArticleHandlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := extractArticleID(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Article ID is required")
		return
	}

	a, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, article.ErrArticleNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeArticleNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeArticleNotFound, "Article not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to retrieve article", "error", err, "article_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve article")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(a); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// SetLabels handles PUT /articles/{id}/labels - replaces moderation labels.
func (h *ArticleHandlers) SetLabels(w http.ResponseWriter, r *http.Request) {
	id, err := extractArticleID(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Article ID is required")
		return
	}

	var req SetLabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if err := h.catalog.SetLabels(r.Context(), id, req.Labels); err != nil {
		switch {
		case errors.Is(err, article.ErrInvalidLabel):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidLabel)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidLabel, "Invalid moderation label")
			return
		case errors.Is(err, article.ErrArticleNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeArticleNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeArticleNotFound, "Article not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to set labels", "error", err, "article_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to set labels")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteArticle handles DELETE /articles/{id} - soft-deletes an article.
func (h *ArticleHandlers) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := extractArticleID(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Article ID is required")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, article.ErrArticleNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeArticleNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeArticleNotFound, "Article not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete article", "error", err, "article_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete article")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Articles dispatches /articles by method.
func (h *ArticleHandlers) Articles(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.CreateArticle(w, r)
		return
	}
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}

// ArticleByID dispatches /articles/{id} and /articles/{id}/labels by method
// and sub-path.
func (h *ArticleHandlers) ArticleByID(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/labels") {
		if r.Method == http.MethodPut {
			h.SetLabels(w, r)
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.GetArticle(w, r)
	case http.MethodDelete:
		h.DeleteArticle(w, r)
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}
