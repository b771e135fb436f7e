package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/article"
)

func TestCreateArticle(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)

	body := `{"title":"Markets rally","category":"finance","source":"newswire","author_id":"author-9"}`
	req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Articles(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("created article should carry a generated ID")
	}
	if created.Title != "Markets rally" {
		t.Errorf("Title = %q", created.Title)
	}
	if created.AuthorID != "author-9" {
		t.Errorf("AuthorID = %q, want author-9", created.AuthorID)
	}
}

func TestCreateArticleEscapesHTML(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)

	body := `{"title":"<script>alert(1)</script>","category":"technology","source":"blog"}`
	req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Articles(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if strings.Contains(created.Title, "<script>") {
		t.Errorf("Title was not escaped: %q", created.Title)
	}
	if !strings.Contains(created.Title, "&lt;script&gt;") {
		t.Errorf("Title = %q, want HTML-escaped form", created.Title)
	}
}

func TestCreateArticleValidation(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)

	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"","category":"technology","source":"blog"}`},
		{"whitespace title", `{"title":"   ","category":"technology","source":"blog"}`},
		{"oversized title", `{"title":"` + strings.Repeat("a", 501) + `","category":"technology","source":"blog"}`},
		{"missing source", `{"title":"ok","category":"technology"}`},
		{"missing category", `{"title":"ok","source":"blog"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Articles(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			errResp := decodeErrorResponse(t, rec)
			if errResp.Error.Code != ErrCodeValidation {
				t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeValidation)
			}
		})
	}
}

func TestGetArticleByID(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)
	a := f.seedArticle(t, "politics", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/articles/"+a.ID, nil)
	rec := httptest.NewRecorder()
	h.ArticleByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got article.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("ID = %q, want %q", got.ID, a.ID)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)

	req := httptest.NewRequest(http.MethodGet, "/articles/no-such-id", nil)
	rec := httptest.NewRecorder()
	h.ArticleByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	errResp := decodeErrorResponse(t, rec)
	if errResp.Error.Code != ErrCodeArticleNotFound {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeArticleNotFound)
	}
}

func TestSetLabels(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)
	a := f.seedArticle(t, "politics", time.Hour)

	body := `{"labels":["flagged"]}`
	req := httptest.NewRequest(http.MethodPut, "/articles/"+a.ID+"/labels", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ArticleByID(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	stored, err := f.catalog.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("failed to reload article: %v", err)
	}
	if !stored.HasLabel("flagged") {
		t.Errorf("labels = %v, want flagged present", stored.Labels)
	}
}

func TestSetLabelsInvalid(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)
	a := f.seedArticle(t, "politics", time.Hour)

	body := `{"labels":["not-a-real-label"]}`
	req := httptest.NewRequest(http.MethodPut, "/articles/"+a.ID+"/labels", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ArticleByID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	errResp := decodeErrorResponse(t, rec)
	if errResp.Error.Code != ErrCodeInvalidLabel {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeInvalidLabel)
	}
}

func TestDeleteArticle(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)
	a := f.seedArticle(t, "politics", time.Hour)

	req := httptest.NewRequest(http.MethodDelete, "/articles/"+a.ID, nil)
	rec := httptest.NewRecorder()
	h.ArticleByID(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Deleting again reports not found.
	rec = httptest.NewRecorder()
	h.ArticleByID(rec, httptest.NewRequest(http.MethodDelete, "/articles/"+a.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestArticleDispatchMethodNotAllowed(t *testing.T) {
	f := newAPIFixture()
	h := NewArticleHandlers(f.catalog)
	a := f.seedArticle(t, "politics", time.Hour)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"get on collection", http.MethodGet, "/articles"},
		{"patch on article", http.MethodPatch, "/articles/" + a.ID},
		{"post on labels", http.MethodPost, "/articles/" + a.ID + "/labels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			if tt.path == "/articles" {
				h.Articles(rec, req)
			} else {
				h.ArticleByID(rec, req)
			}
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rec.Code)
			}
		})
	}
}
