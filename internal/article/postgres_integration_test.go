//go:build integration

package article_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/db"
	"github.com/newsreel/newsreel/internal/testdb"
)

func newCatalog(t *testing.T) (*article.PostgresCatalog, context.Context) {
	t.Helper()
	ctx := context.Background()

	container := testdb.NewWithCleanup(ctx, t)
	conn, err := db.Open(ctx, container.ConnString)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return article.NewPostgresCatalog(conn, logger), ctx
}

func TestPostgresCatalogCreateAndGet(t *testing.T) {
	catalog, ctx := newCatalog(t)

	a := &article.Article{
		Title:       "Launch day",
		Category:    "technology",
		Source:      "newswire",
		AuthorID:    "author-1",
		Labels:      []string{},
		PublishedAt: time.Now().Add(-time.Hour),
	}
	if err := catalog.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := catalog.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != a.Title || got.Category != a.Category {
		t.Errorf("got %+v, want title/category of %+v", got, a)
	}
}

func TestPostgresCatalogUpsertByExternalID(t *testing.T) {
	catalog, ctx := newCatalog(t)

	a := &article.Article{
		Title:       "First version",
		Category:    "politics",
		Source:      "provider",
		ExternalID:  "prov-42",
		PublishedAt: time.Now().Add(-time.Hour),
	}
	res, err := catalog.Upsert(ctx, a)
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if !res.Inserted {
		t.Error("first Upsert should report an insert")
	}

	updated := &article.Article{
		Title:       "Second version",
		Category:    "politics",
		Source:      "provider",
		ExternalID:  "prov-42",
		PublishedAt: time.Now(),
	}
	res2, err := catalog.Upsert(ctx, updated)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if res2.Inserted {
		t.Error("second Upsert should report an update")
	}
	if res2.ID != res.ID {
		t.Errorf("update returned id %s, want %s", res2.ID, res.ID)
	}

	got, err := catalog.GetByExternalID(ctx, "prov-42")
	if err != nil {
		t.Fatalf("GetByExternalID failed: %v", err)
	}
	if got.Title != "Second version" {
		t.Errorf("Title = %q, want updated title", got.Title)
	}
}

func TestPostgresCatalogCountersAndDelete(t *testing.T) {
	catalog, ctx := newCatalog(t)

	a := &article.Article{
		Title:       "Countable",
		Category:    "sports",
		Source:      "newswire",
		PublishedAt: time.Now().Add(-time.Hour),
	}
	if err := catalog.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := catalog.BumpCounter(ctx, a.ID, article.CounterLikes); err != nil {
		t.Fatalf("BumpCounter failed: %v", err)
	}
	if err := catalog.BumpCounter(ctx, a.ID, article.CounterViews); err != nil {
		t.Fatalf("BumpCounter failed: %v", err)
	}

	got, err := catalog.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Metrics.Likes != 1 || got.Metrics.Views != 1 {
		t.Errorf("metrics = %+v, want one like and one view", got.Metrics)
	}

	if err := catalog.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := catalog.GetByID(ctx, a.ID); err == nil {
		t.Error("GetByID after delete should fail")
	}

	// Candidate listing must not surface the deleted row.
	candidates, err := catalog.ListCandidates(ctx, time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ListCandidates failed: %v", err)
	}
	for _, c := range candidates {
		if c.ID == a.ID {
			t.Error("deleted article returned as candidate")
		}
	}
}
