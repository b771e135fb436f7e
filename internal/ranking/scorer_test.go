package ranking

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/interest"
)

func testProfile() *Profile {
	return &Profile{
		Interests: map[interest.Dimension]map[string]float64{
			interest.DimensionCategory: {
				"technology": 0.9,
				"sports":     0.1,
			},
			interest.DimensionSource: {
				"newswire": 0.4,
			},
		},
		TopCategoryScores: []float64{0.9, 0.1},
	}
}

func TestScorerPrefersInterestMatch(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(72*time.Hour, 0.5)
	profile := testProfile()
	weights := DefaultWeights()

	tech := &article.Article{
		ID:          "a-tech",
		Category:    "technology",
		PublishedAt: now.Add(-1 * time.Hour),
	}
	sports := &article.Article{
		ID:          "a-sports",
		Category:    "sports",
		PublishedAt: now.Add(-1 * time.Hour),
	}

	techScore := scorer.Score(tech, profile, weights, false, now)
	sportsScore := scorer.Score(sports, profile, weights, false, now)

	if techScore.Total <= sportsScore.Total {
		t.Errorf("technology article should outrank sports: %v <= %v",
			techScore.Total, sportsScore.Total)
	}
	if techScore.Sub.Personalization != 0.9 {
		t.Errorf("tech personalization = %v, want 0.9", techScore.Sub.Personalization)
	}
	if sportsScore.Sub.Personalization != 0.1 {
		t.Errorf("sports personalization = %v, want 0.1", sportsScore.Sub.Personalization)
	}
}

func TestScorerCompositeValue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(72*time.Hour, 0.5)
	profile := testProfile()
	weights := DefaultWeights()

	a := &article.Article{
		ID:          "a1",
		Category:    "technology",
		Source:      "newswire",
		PublishedAt: now.Add(-36 * time.Hour),
		Metrics:     article.Metrics{Views: 100, Likes: 10, Shares: 5, Comments: 5},
	}

	got := scorer.Score(a, profile, weights, false, now)

	// personalization = max(0.9 category, 0.4 source) = 0.9
	// freshness = 1 - 36/72 = 0.5
	// popularity = ((10 + 2*5 + 5) / 100) / 0.5 = 0.5
	// serendipity disabled: weights renormalize to 0.6/0.3/0.1
	want := 0.9*0.6 + 0.5*0.3 + 0.5*0.1
	if math.Abs(got.Total-want) > tolerance {
		t.Errorf("Total = %v, want %v", got.Total, want)
	}
	if got.Sub.Serendipity != 0 {
		t.Errorf("serendipity disabled but sub-score = %v", got.Sub.Serendipity)
	}
}

func TestScorerSerendipityEnabled(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(72*time.Hour, 0.5)
	profile := testProfile()
	weights := DefaultWeights()

	a := &article.Article{
		ID:          "a1",
		Category:    "travel", // no affinity
		PublishedAt: now,
	}

	got := scorer.Score(a, profile, weights, true, now)

	// serendipity = 1 - mean(0.9, 0.1) = 0.5
	if math.Abs(got.Sub.Serendipity-0.5) > tolerance {
		t.Errorf("serendipity = %v, want 0.5", got.Sub.Serendipity)
	}
	// personalization = 0 for unknown category
	if got.Sub.Personalization != 0 {
		t.Errorf("personalization = %v, want 0", got.Sub.Personalization)
	}
}

func TestScorerNilWeightsAndEmptyProfile(t *testing.T) {
	now := time.Now()
	scorer := NewScorer(0, 0)

	a := &article.Article{ID: "a1", Category: "technology", PublishedAt: now}

	got := scorer.Score(a, &Profile{}, nil, true, now)
	if got.Total < 0 || got.Total > 1 {
		t.Errorf("Total = %v, want within [0, 1]", got.Total)
	}
	// only freshness contributes for a brand-new article with no profile
	if got.Sub.Freshness != 1.0 {
		t.Errorf("freshness = %v, want 1.0", got.Sub.Freshness)
	}
	if got.Sub.Personalization != 0 || got.Sub.Serendipity != 0 {
		t.Errorf("empty profile should zero personalization and serendipity: %+v", got.Sub)
	}
}

func TestContributingFactorsAndReason(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(72*time.Hour, 0.5)
	weights := DefaultWeights()

	tests := []struct {
		name        string
		article     *article.Article
		profile     *Profile
		wantFactors []string
		wantReason  string
	}{
		{
			name: "interest match leads",
			article: &article.Article{
				ID: "a1", Category: "technology",
				PublishedAt: now.Add(-1 * time.Hour),
			},
			profile:     testProfile(),
			wantFactors: []string{FactorInterestMatch, FactorFresh},
			wantReason:  "Matches your interests",
		},
		{
			name: "fresh only",
			article: &article.Article{
				ID: "a2", Category: "travel",
				PublishedAt: now.Add(-1 * time.Hour),
			},
			profile:     &Profile{},
			wantFactors: []string{FactorFresh},
			wantReason:  "Just published",
		},
		{
			name: "popular with category",
			article: &article.Article{
				ID: "a3", Category: "sports",
				PublishedAt: now.Add(-200 * time.Hour),
				Metrics:     article.Metrics{Views: 100, Likes: 50},
			},
			profile:     &Profile{},
			wantFactors: []string{FactorPopular},
			wantReason:  "Trending in Sports",
		},
		{
			name: "nothing above threshold",
			article: &article.Article{
				ID: "a4", Category: "travel",
				PublishedAt: now.Add(-200 * time.Hour),
			},
			profile:    &Profile{},
			wantReason: "Recommended for you",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.article, tt.profile, weights, false, now)
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if len(got.Factors) != len(tt.wantFactors) {
				t.Fatalf("Factors = %v, want %v", got.Factors, tt.wantFactors)
			}
			for i, f := range tt.wantFactors {
				if got.Factors[i] != f {
					t.Errorf("Factors[%d] = %q, want %q", i, got.Factors[i], f)
				}
			}
		})
	}
}

func BenchmarkScorerScore(b *testing.B) {
	now := time.Now()
	scorer := NewScorer(72*time.Hour, 0.5)
	profile := testProfile()
	weights := DefaultWeights()

	articles := make([]*article.Article, 100)
	for i := range articles {
		articles[i] = &article.Article{
			ID:          fmt.Sprintf("a-%d", i),
			Category:    "technology",
			Source:      "newswire",
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			Metrics:     article.Metrics{Views: int64(i * 10), Likes: int64(i)},
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a := articles[i%len(articles)]
		_ = scorer.Score(a, profile, weights, true, now)
	}
}
