package interest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/interaction"
)

func seedArticle(t *testing.T, catalog article.Catalog) *article.Article {
	t.Helper()
	a := &article.Article{
		Title:       "Chip shortage easing",
		Category:    "technology",
		Source:      "newswire",
		AuthorID:    "author-1",
		PublishedAt: time.Now(),
	}
	if err := catalog.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to seed article: %v", err)
	}
	return a
}

func TestAccumulatorRecordInteraction(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interactions := interaction.NewInMemoryStore()
	interests := NewInMemoryStore()
	acc := NewAccumulator(catalog, interactions, interests, nil, nil)

	a := seedArticle(t, catalog)

	err := acc.RecordInteraction(ctx, &interaction.Interaction{
		ID:        "i1",
		UserID:    "u1",
		ArticleID: a.ID,
		Type:      interaction.TypeLike,
	})
	if err != nil {
		t.Fatalf("RecordInteraction failed: %v", err)
	}

	// The interaction is appended.
	events, _ := interactions.ListByUser(ctx, "u1", time.Time{})
	if len(events) != 1 {
		t.Fatalf("stored interactions = %d, want 1", len(events))
	}

	// The like counter is bumped.
	got, _ := catalog.GetByID(ctx, a.ID)
	if got.Metrics.Likes != 1 {
		t.Errorf("likes = %d, want 1", got.Metrics.Likes)
	}

	// Category, source and author interests all move by the like delta.
	rows, _ := interests.GetProfile(ctx, "u1")
	if len(rows) != 3 {
		t.Fatalf("interest rows = %d, want 3 (category, source, author)", len(rows))
	}
	for _, row := range rows {
		if math.Abs(row.Score-0.10) > 1e-9 {
			t.Errorf("%s/%s score = %v, want 0.10", row.Dimension, row.Label, row.Score)
		}
	}
}

func TestAccumulatorRepeatedLikesClampToOne(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interests := NewInMemoryStore()
	acc := NewAccumulator(catalog, interaction.NewInMemoryStore(), interests, nil, nil)

	a := seedArticle(t, catalog)

	for i := 0; i < 15; i++ {
		err := acc.RecordInteraction(ctx, &interaction.Interaction{
			UserID:    "u1",
			ArticleID: a.ID,
			Type:      interaction.TypeLike,
		})
		if err != nil {
			t.Fatalf("RecordInteraction failed: %v", err)
		}
	}

	rows, _ := interests.TopByDimension(ctx, "u1", DimensionCategory, 1)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Score != 1.0 {
		t.Errorf("score = %v, want clamped 1.0", rows[0].Score)
	}
}

func TestAccumulatorQuickExitDecays(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interests := NewInMemoryStore()
	acc := NewAccumulator(catalog, interaction.NewInMemoryStore(), interests, nil, nil)

	a := seedArticle(t, catalog)

	acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: a.ID, Type: interaction.TypeShare,
	})
	acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: a.ID, Type: interaction.TypeQuickExit,
	})

	rows, _ := interests.TopByDimension(ctx, "u1", DimensionCategory, 1)
	// 0.15 share - 0.10 quick exit = 0.05
	if math.Abs(rows[0].Score-0.05) > 1e-9 {
		t.Errorf("score = %v, want 0.05", rows[0].Score)
	}
}

func TestAccumulatorRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	acc := NewAccumulator(catalog, interaction.NewInMemoryStore(), NewInMemoryStore(), nil, nil)

	a := seedArticle(t, catalog)
	badProgress := 1.5

	tests := []struct {
		name    string
		in      interaction.Interaction
		wantErr error
	}{
		{
			name:    "missing user id",
			in:      interaction.Interaction{ArticleID: a.ID, Type: interaction.TypeView},
			wantErr: interaction.ErrMissingUserID,
		},
		{
			name:    "missing article id",
			in:      interaction.Interaction{UserID: "u1", Type: interaction.TypeView},
			wantErr: interaction.ErrMissingArticleID,
		},
		{
			name: "reading progress out of range",
			in: interaction.Interaction{
				UserID: "u1", ArticleID: a.ID,
				Type: interaction.TypeView, ReadingProgress: &badProgress,
			},
			wantErr: interaction.ErrInvalidReadingProgress,
		},
		{
			name:    "unknown article",
			in:      interaction.Interaction{UserID: "u1", ArticleID: "no-such", Type: interaction.TypeView},
			wantErr: article.ErrArticleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := acc.RecordInteraction(ctx, &tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordInteraction error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccumulatorUnknownTypeStillRecorded(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interactions := interaction.NewInMemoryStore()
	interests := NewInMemoryStore()
	acc := NewAccumulator(catalog, interactions, interests, nil, nil)

	a := seedArticle(t, catalog)

	err := acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: a.ID, Type: "hover",
	})
	if err != nil {
		t.Fatalf("unknown type should be recorded losslessly: %v", err)
	}

	events, _ := interactions.ListByUser(ctx, "u1", time.Time{})
	if len(events) != 1 {
		t.Errorf("stored interactions = %d, want 1", len(events))
	}
	rows, _ := interests.GetProfile(ctx, "u1")
	if len(rows) != 0 {
		t.Errorf("unknown type must not create interest rows, got %d", len(rows))
	}
}

// recordingTxRunner wraps writes like a transaction runner would, tracking
// whether the function ran and whether it reported failure (a rollback).
type recordingTxRunner struct {
	calls      int
	rolledBack bool
}

func (r *recordingTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if err := fn(ctx); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

// failingInterestStore errors on every Apply.
type failingInterestStore struct {
	Store
}

func (f *failingInterestStore) Apply(ctx context.Context, userID string, dim Dimension, label string, delta float64) error {
	return errors.New("apply failed")
}

func TestAccumulatorWritesRunInOneTransaction(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interactions := interaction.NewInMemoryStore()
	interests := NewInMemoryStore()
	runner := &recordingTxRunner{}
	acc := NewAccumulator(catalog, interactions, interests, nil, nil).WithTxRunner(runner)

	a := seedArticle(t, catalog)

	err := acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: a.ID, Type: interaction.TypeLike,
	})
	if err != nil {
		t.Fatalf("RecordInteraction failed: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want all writes in one transaction", runner.calls)
	}
	if runner.rolledBack {
		t.Error("successful record must not roll back")
	}

	// Validation failures never reach the transaction.
	err = acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: "missing", Type: interaction.TypeLike,
	})
	if err == nil {
		t.Fatal("unknown article should fail")
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, validation failure must not open a transaction", runner.calls)
	}
}

func TestAccumulatorInterestFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	catalog := article.NewInMemoryCatalog()
	interactions := interaction.NewInMemoryStore()
	interests := &failingInterestStore{Store: NewInMemoryStore()}
	runner := &recordingTxRunner{}
	acc := NewAccumulator(catalog, interactions, interests, nil, nil).WithTxRunner(runner)

	a := seedArticle(t, catalog)

	err := acc.RecordInteraction(ctx, &interaction.Interaction{
		UserID: "u1", ArticleID: a.ID, Type: interaction.TypeLike,
	})
	if err == nil {
		t.Fatal("failing interest apply should surface an error")
	}
	if !runner.rolledBack {
		t.Error("interest failure after the append must roll the transaction back")
	}
}
