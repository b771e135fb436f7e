package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))

		if captured == "" {
			t.Error("request id not injected into context")
		}
		if rec.Header().Get(RequestIDHeader) != captured {
			t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), captured)
		}
	})

	t.Run("preserves incoming id", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/feed", nil)
		r.Header.Set(RequestIDHeader, "req-abc")
		handler.ServeHTTP(httptest.NewRecorder(), r)

		if captured != "req-abc" {
			t.Errorf("request id = %q, want req-abc", captured)
		}
	})

	t.Run("replaces oversized incoming id", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		oversized := strings.Repeat("x", maxRequestIDLength+1)
		r := httptest.NewRequest(http.MethodGet, "/feed", nil)
		r.Header.Set(RequestIDHeader, oversized)
		handler.ServeHTTP(httptest.NewRecorder(), r)

		if captured == oversized || captured == "" {
			t.Errorf("oversized client id should be replaced, got %q", captured)
		}
	})
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}
}

func TestUserIDContext(t *testing.T) {
	ctx := SetUserID(context.Background(), "u1")
	if got := GetUserID(ctx); got != "u1" {
		t.Errorf("GetUserID = %q, want u1", got)
	}
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("GetUserID on empty context = %q, want empty", got)
	}
}

func jsonLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/interactions", nil))

	lines := jsonLogLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1", len(lines))
	}
	entry := lines[0]
	if entry["method"] != "POST" || entry["path"] != "/interactions" {
		t.Errorf("method/path = %v/%v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["size"] != float64(2) {
		t.Errorf("size = %v, want 2", entry["size"])
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Error("log entry missing request_id")
	}
}

func TestLoggingMiddlewareErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	// The handler sets an error code on a derived context and pushes it
	// back through the response writer.
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetErrorCode(r.Context(), "validation_error")
		UpdateResponseContext(w, ctx)
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

	lines := jsonLogLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1", len(lines))
	}
	entry := lines[0]
	if entry["error_code"] != "validation_error" {
		t.Errorf("error_code = %v, want validation_error", entry["error_code"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 4xx", entry["level"])
	}
}

func TestResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want first write 404", rw.statusCode)
	}
}
