package ranking

import (
	"math"
	"testing"
	"time"
)

const tolerance = 1e-9

func TestEffectiveWeights(t *testing.T) {
	tests := []struct {
		name        string
		weights     Weights
		serendipity bool
		want        Weights
	}{
		{
			name:        "defaults normalize to sum 1",
			weights:     *DefaultWeights(),
			serendipity: true,
			// sum = 0.6 + 0.3 + 0.1 + 0.1 = 1.1
			want: Weights{
				Personalization: 0.6 / 1.1,
				Freshness:       0.3 / 1.1,
				Popularity:      0.1 / 1.1,
				Serendipity:     0.1 / 1.1,
			},
		},
		{
			name:        "serendipity disabled redistributes proportionally",
			weights:     *DefaultWeights(),
			serendipity: false,
			// sum without serendipity = 1.0
			want: Weights{
				Personalization: 0.6,
				Freshness:       0.3,
				Popularity:      0.1,
				Serendipity:     0,
			},
		},
		{
			name:        "all zero falls back to equal weighting",
			weights:     Weights{},
			serendipity: true,
			want:        Weights{Personalization: 0.25, Freshness: 0.25, Popularity: 0.25, Serendipity: 0.25},
		},
		{
			name:        "all zero without serendipity splits three ways",
			weights:     Weights{},
			serendipity: false,
			want:        Weights{Personalization: 1.0 / 3, Freshness: 1.0 / 3, Popularity: 1.0 / 3},
		},
		{
			name:        "only serendipity configured and disabled falls back",
			weights:     Weights{Serendipity: 1.0},
			serendipity: false,
			want:        Weights{Personalization: 1.0 / 3, Freshness: 1.0 / 3, Popularity: 1.0 / 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.weights.Effective(tt.serendipity)
			checkWeight(t, "personalization", got.Personalization, tt.want.Personalization)
			checkWeight(t, "freshness", got.Freshness, tt.want.Freshness)
			checkWeight(t, "popularity", got.Popularity, tt.want.Popularity)
			checkWeight(t, "serendipity", got.Serendipity, tt.want.Serendipity)

			sum := got.Personalization + got.Freshness + got.Popularity + got.Serendipity
			if math.Abs(sum-1.0) > tolerance {
				t.Errorf("effective weights sum = %v, want 1.0", sum)
			}
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", *DefaultWeights(), false},
		{"all zero", Weights{}, false},
		{"boundary values", Weights{Personalization: 1, Freshness: 0, Popularity: 1, Serendipity: 0}, false},
		// A negative weight flips signs under normalization:
		// {-0.5, 0.25, 0, 0} would normalize to {2, -1, 0, 0} and let
		// a composite score reach 2.0.
		{"negative personalization", Weights{Personalization: -0.5, Freshness: 0.25}, true},
		{"above one", Weights{Personalization: 1.5}, true},
		{"NaN", Weights{Freshness: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want ErrInvalidWeight")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func checkWeight(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestFreshnessScore(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		age     time.Duration
		horizon time.Duration
		want    float64
	}{
		{"published now scores 1", 0, 72 * time.Hour, 1.0},
		{"future publish clamps to 1", -time.Hour, 72 * time.Hour, 1.0},
		{"half horizon scores half", 36 * time.Hour, 72 * time.Hour, 0.5},
		{"exactly horizon scores 0", 72 * time.Hour, 72 * time.Hour, 0.0},
		{"older than horizon scores 0", 100 * time.Hour, 72 * time.Hour, 0.0},
		{"zero horizon uses default", 36 * time.Hour, 0, 0.5},
		{"short horizon", 6 * time.Hour, 24 * time.Hour, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FreshnessScore(now.Add(-tt.age), now, tt.horizon)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("FreshnessScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPopularityScore(t *testing.T) {
	tests := []struct {
		name       string
		views      int64
		likes      int64
		shares     int64
		comments   int64
		saturation float64
		want       float64
	}{
		{
			name: "no engagement scores 0",
			want: 0.0,
		},
		{
			// (10 + 2*5 + 5) / 100 = 0.25; 0.25 / 0.5 = 0.5
			name:  "moderate engagement",
			views: 100, likes: 10, shares: 5, comments: 5,
			saturation: 0.5,
			want:       0.5,
		},
		{
			// rate 1.0 saturates to 1
			name:  "viral article saturates to 1",
			views: 100, likes: 50, shares: 25, comments: 0,
			saturation: 0.5,
			want:       1.0,
		},
		{
			// zero views: denominator clamps to 1, rate = 1 + 0 + 0 = 1
			name:       "zero views never divides by zero",
			likes:      1,
			saturation: 0.5,
			want:       1.0,
		},
		{
			// shares count double: (0 + 2*10 + 0) / 400 = 0.05; / 0.5 = 0.1
			name:       "shares weighted double",
			views:      400,
			shares:     10,
			saturation: 0.5,
			want:       0.1,
		},
		{
			// non-positive saturation falls back to default 0.5
			name:  "zero saturation uses default",
			views: 100, likes: 25,
			saturation: 0,
			want:       0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PopularityScore(tt.views, tt.likes, tt.shares, tt.comments, tt.saturation)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("PopularityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPersonalizationScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"no matches scores 0", nil, 0.0},
		{"single match", []float64{0.7}, 0.7},
		{"takes maximum across dimensions", []float64{0.3, 0.9, 0.5}, 0.9},
		{"clamps above 1", []float64{1.2}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonalizationScore(tt.scores...)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("PersonalizationScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSerendipityScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"no interest data scores 0", nil, 0.0},
		{"narrow strong interests score high", []float64{0.9, 0.8}, 1.0 - 0.85},
		{"weak interests score high diversity", []float64{0.1, 0.1}, 0.9},
		{"full affinity scores 0", []float64{1.0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerendipityScore(tt.scores)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("SerendipityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositeScoreBounds(t *testing.T) {
	eff := DefaultWeights().Effective(true)

	all := SubScores{Personalization: 1, Freshness: 1, Popularity: 1, Serendipity: 1}
	if got := CompositeScore(all, eff); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("all-1 sub-scores composite = %v, want 1.0", got)
	}

	none := SubScores{}
	if got := CompositeScore(none, eff); got != 0 {
		t.Errorf("all-0 sub-scores composite = %v, want 0", got)
	}
}

func TestMergeCalibration(t *testing.T) {
	tests := []struct {
		name     string
		base     *Weights
		override *Weights
		want     Weights
	}{
		{
			name:     "nil base uses defaults",
			base:     nil,
			override: &Weights{Personalization: 0.9},
			want:     *DefaultWeights(),
		},
		{
			name:     "nil override keeps base",
			base:     &Weights{Personalization: 0.5, Freshness: 0.5},
			override: nil,
			want:     Weights{Personalization: 0.5, Freshness: 0.5},
		},
		{
			name:     "partial override merges with base",
			base:     DefaultWeights(),
			override: &Weights{Freshness: 0.8},
			want:     Weights{Personalization: 0.6, Freshness: 0.8, Popularity: 0.1, Serendipity: 0.1},
		},
		{
			name:     "zero override fields are ignored",
			base:     DefaultWeights(),
			override: &Weights{},
			want:     *DefaultWeights(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCalibration(tt.base, tt.override)
			if *got != tt.want {
				t.Errorf("MergeCalibration = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
