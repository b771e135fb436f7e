// Package ranking provides the feed scoring components: per-article
// sub-scores, calibrated weight configuration, and the composite
// recommendation score.
package ranking

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidWeight is returned when a configured weight falls outside [0, 1].
var ErrInvalidWeight = errors.New("ranking weight must be between 0.0 and 1.0")

// Sub-score horizon and saturation defaults.
const (
	// DefaultFreshnessHorizon is the age beyond which an article's
	// freshness contribution is zero.
	DefaultFreshnessHorizon = 72 * time.Hour

	// DefaultSaturationConstant is the engagement rate at which the
	// popularity score saturates to 1. Keeps a handful of early
	// engagements from maxing the score.
	DefaultSaturationConstant = 0.5

	// FactorThreshold is the minimum sub-score for a component to be
	// listed as a contributing factor on the result.
	FactorThreshold = 0.3
)

// Weights defines the four ranking weights for feed scoring.
// Weights need not sum to 1; composite scoring normalizes by the sum of
// effective weights.
type Weights struct {
	Personalization float64 `json:"personalization"` // Weight for interest match (default: 0.6)
	Freshness       float64 `json:"freshness"`       // Weight for article recency (default: 0.3)
	Popularity      float64 `json:"popularity"`      // Weight for engagement rate (default: 0.1)
	Serendipity     float64 `json:"serendipity"`     // Weight for diversity injection (default: 0.1)
}

// DefaultWeights returns the default ranking weight configuration.
//
// Composite formula: score = (personalization*0.6 + freshness*0.3 +
// popularity*0.1 + serendipity*0.1) / sum(effective weights).
// Personalization dominates so returning users see their interests first;
// freshness keeps the feed current; popularity and serendipity are light
// correction terms.
func DefaultWeights() *Weights {
	return &Weights{
		Personalization: 0.6,
		Freshness:       0.3,
		Popularity:      0.1,
		Serendipity:     0.1,
	}
}

// Validate checks that every weight lies in [0, 1]. Negative weights would
// flip signs under normalization and push composite scores out of bounds.
func (w *Weights) Validate() error {
	for _, v := range []float64{w.Personalization, w.Freshness, w.Popularity, w.Serendipity} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return ErrInvalidWeight
		}
	}
	return nil
}

// Effective returns the weights actually used for the composite sum.
// When serendipity is disabled its weight is zeroed and the remaining
// weights are scaled proportionally so they sum to 1. A zero weight sum
// falls back to equal weighting to avoid division by zero.
func (w *Weights) Effective(serendipityEnabled bool) Weights {
	eff := *w
	if !serendipityEnabled {
		eff.Serendipity = 0
	}

	sum := eff.Personalization + eff.Freshness + eff.Popularity + eff.Serendipity
	if sum == 0 {
		if serendipityEnabled {
			return Weights{Personalization: 0.25, Freshness: 0.25, Popularity: 0.25, Serendipity: 0.25}
		}
		third := 1.0 / 3.0
		return Weights{Personalization: third, Freshness: third, Popularity: third}
	}

	eff.Personalization /= sum
	eff.Freshness /= sum
	eff.Popularity /= sum
	eff.Serendipity /= sum
	return eff
}

// FreshnessScore computes a linearly decaying recency score in [0, 1].
// An article published now scores 1; an article exactly horizon old
// scores 0, as does anything older.
func FreshnessScore(publishedAt, now time.Time, horizon time.Duration) float64 {
	if horizon <= 0 {
		horizon = DefaultFreshnessHorizon
	}

	age := now.Sub(publishedAt)
	if age <= 0 {
		return 1.0
	}

	score := 1.0 - float64(age)/float64(horizon)
	if score < 0 {
		return 0.0
	}
	return score
}

// PopularityScore computes a normalized engagement rate in [0, 1].
// Rate formula: (likes + 2*shares + comments) / max(views, 1), then
// saturated by the configured constant via min(1, rate/saturation).
// Zero views never divide by zero; the rate is then a function of the
// engagement counters alone.
func PopularityScore(views, likes, shares, comments int64, saturation float64) float64 {
	if saturation <= 0 {
		saturation = DefaultSaturationConstant
	}

	denominator := views
	if denominator < 1 {
		denominator = 1
	}

	engagement := float64(likes) + 2*float64(shares) + float64(comments)
	rate := engagement / float64(denominator)

	score := rate / saturation
	if score > 1 {
		return 1.0
	}
	return score
}

// PersonalizationScore computes the interest match between an article and a
// user profile as the maximum matching interest score across dimensions.
// Returns 0 when no dimension matches (missing interest data degrades the
// score, never fails the request).
func PersonalizationScore(interestScores ...float64) float64 {
	best := 0.0
	for _, s := range interestScores {
		if s > best {
			best = s
		}
	}
	if best > 1 {
		return 1.0
	}
	return best
}

// SerendipityScore rewards diversity: 1 minus the user's mean
// personalization score across their top categories. A user with strong,
// narrow interests gets a high serendipity score, pulling unfamiliar
// content up the feed. With no interest data the score is 0 (nothing to
// diversify from).
func SerendipityScore(topCategoryScores []float64) float64 {
	if len(topCategoryScores) == 0 {
		return 0.0
	}

	var sum float64
	for _, s := range topCategoryScores {
		sum += s
	}
	mean := sum / float64(len(topCategoryScores))

	score := 1.0 - mean
	if score < 0 {
		return 0.0
	}
	if score > 1 {
		return 1.0
	}
	return score
}

// SubScores holds the four component scores for one (user, article) pair.
// Every component lies in [0, 1].
type SubScores struct {
	Personalization float64 `json:"personalization"`
	Freshness       float64 `json:"freshness"`
	Popularity      float64 `json:"popularity"`
	Serendipity     float64 `json:"serendipity"`
}

// CompositeScore combines the sub-scores using the effective weights.
// The effective weights are expected to be normalized (see Weights.Effective),
// so the result lies in [0, 1] up to floating-point error.
func CompositeScore(sub SubScores, eff Weights) float64 {
	score := sub.Personalization*eff.Personalization +
		sub.Freshness*eff.Freshness +
		sub.Popularity*eff.Popularity +
		sub.Serendipity*eff.Serendipity

	// Guard against drift from repeated float operations.
	if score > 1 && score < 1+1e-9 {
		return 1.0
	}
	return score
}

// ApproxEqual reports whether two floats are equal within tolerance.
// Shared by tests and calibration override detection.
func ApproxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
