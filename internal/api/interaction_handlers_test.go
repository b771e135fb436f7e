package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/interaction"
	"github.com/newsreel/newsreel/internal/interest"
)

// interestScore finds the score for one dimension/label pair in a profile.
func interestScore(rows []*interest.UserInterest, dim interest.Dimension, label string) float64 {
	for _, row := range rows {
		if row.Dimension == dim && row.Label == label {
			return row.Score
		}
	}
	return 0
}

func newInteractionFixture() (*apiFixture, *InteractionHandlers) {
	f := newAPIFixture()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	acc := interest.NewAccumulator(f.catalog, f.interactions, f.interests, nil, logger)
	return f, NewInteractionHandlers(acc)
}

func TestRecordInteractionCreated(t *testing.T) {
	f, h := newInteractionFixture()
	a := f.seedArticle(t, "technology", time.Hour)

	body := `{"article_id":"` + a.ID + `","type":"like"}`
	req := httptest.NewRequest(http.MethodPost, "/interactions?user_id=u1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecordInteraction(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created interaction.Interaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("response should carry a generated interaction ID")
	}
	if created.Type != interaction.TypeLike {
		t.Errorf("Type = %q, want like", created.Type)
	}

	// The like must land in the interest profile and the article counters.
	profile, err := f.interests.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("failed to load profile: %v", err)
	}
	if got := interestScore(profile, interest.DimensionCategory, "technology"); got != 0.10 {
		t.Errorf("category score = %f, want 0.10", got)
	}

	stored, err := f.catalog.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("failed to reload article: %v", err)
	}
	if stored.Metrics.Likes != a.Metrics.Likes+1 {
		t.Errorf("Likes = %d, want %d", stored.Metrics.Likes, a.Metrics.Likes+1)
	}
}

func TestRecordInteractionErrors(t *testing.T) {
	f, h := newInteractionFixture()
	a := f.seedArticle(t, "sports", time.Hour)

	tests := []struct {
		name       string
		query      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing user",
			query:      "",
			body:       `{"article_id":"` + a.ID + `","type":"view"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "malformed body",
			query:      "?user_id=u1",
			body:       `{"article_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "missing article id",
			query:      "?user_id=u1",
			body:       `{"type":"view"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidInteraction,
		},
		{
			name:       "reading progress out of range",
			query:      "?user_id=u1",
			body:       `{"article_id":"` + a.ID + `","type":"full_read","reading_progress":1.5}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidInteraction,
		},
		{
			name:       "unknown article",
			query:      "?user_id=u1",
			body:       `{"article_id":"no-such-article","type":"view"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeArticleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/interactions"+tt.query, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.RecordInteraction(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			errResp := decodeErrorResponse(t, rec)
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", errResp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestRecordInteractionMethodNotAllowed(t *testing.T) {
	_, h := newInteractionFixture()

	req := httptest.NewRequest(http.MethodGet, "/interactions?user_id=u1", nil)
	rec := httptest.NewRecorder()
	h.RecordInteraction(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRecordInteractionScalesByProgress(t *testing.T) {
	f, h := newInteractionFixture()
	a := f.seedArticle(t, "science", time.Hour)

	// full_read delta 0.15 scaled by progress 0.5 accumulates 0.075.
	body := `{"article_id":"` + a.ID + `","type":"full_read","reading_progress":0.5}`
	req := httptest.NewRequest(http.MethodPost, "/interactions?user_id=u1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecordInteraction(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	profile, err := f.interests.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("failed to load profile: %v", err)
	}
	if got := interestScore(profile, interest.DimensionCategory, "science"); got != 0.075 {
		t.Errorf("category score = %f, want 0.075", got)
	}
}
