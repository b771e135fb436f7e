package ranking

import (
	"fmt"
	"strings"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/interest"
)

// Contributing factor labels attached to a score.
const (
	FactorInterestMatch = "interest_match"
	FactorFresh         = "fresh"
	FactorPopular       = "popular"
	FactorSerendipity   = "serendipity"
)

// Score is the computed recommendation output for one (user, article) pair.
// Computed on demand and never persisted long-term.
type Score struct {
	ArticleID string    `json:"article_id"`
	Total     float64   `json:"total"`
	Reason    string    `json:"reason"`
	Factors   []string  `json:"factors,omitempty"`
	Sub       SubScores `json:"sub_scores"`
}

// Profile is the slice of a user's interest data the scorer consumes.
// A zero Profile is valid and degrades personalization to 0.
type Profile struct {
	// Interests maps dimension -> label -> score for the user.
	Interests map[interest.Dimension]map[string]float64

	// TopCategoryScores are the user's strongest category affinities,
	// used for the serendipity baseline.
	TopCategoryScores []float64
}

// InterestScore returns the user's score for one (dimension, label) pair,
// or 0 when no matching interest exists.
func (p *Profile) InterestScore(dim interest.Dimension, label string) float64 {
	if p == nil || p.Interests == nil || label == "" {
		return 0
	}
	byLabel, ok := p.Interests[dim]
	if !ok {
		return 0
	}
	return byLabel[label]
}

// Scorer produces recommendation scores from article metrics and user
// interest profiles. Safe for concurrent use: all fields are read-only
// after construction.
type Scorer struct {
	horizon    time.Duration
	saturation float64
}

// NewScorer creates a scorer with the given freshness horizon and
// popularity saturation constant. Non-positive values fall back to the
// package defaults.
func NewScorer(horizon time.Duration, saturation float64) *Scorer {
	if horizon <= 0 {
		horizon = DefaultFreshnessHorizon
	}
	if saturation <= 0 {
		saturation = DefaultSaturationConstant
	}
	return &Scorer{horizon: horizon, saturation: saturation}
}

// Horizon returns the configured freshness horizon.
func (s *Scorer) Horizon() time.Duration { return s.horizon }

// Score computes the recommendation score for one (user, article) pair.
// The serendipityEnabled flag comes from the user's feed configuration;
// when false the serendipity component is forced to 0 and its weight is
// redistributed across the other three.
func (s *Scorer) Score(a *article.Article, profile *Profile, weights *Weights, serendipityEnabled bool, now time.Time) Score {
	if weights == nil {
		weights = DefaultWeights()
	}

	sub := SubScores{
		Personalization: PersonalizationScore(
			profile.InterestScore(interest.DimensionCategory, a.Category),
			profile.InterestScore(interest.DimensionSource, a.Source),
			profile.InterestScore(interest.DimensionAuthor, a.AuthorID),
		),
		Freshness: FreshnessScore(a.PublishedAt, now, s.horizon),
		Popularity: PopularityScore(
			a.Metrics.Views, a.Metrics.Likes, a.Metrics.Shares, a.Metrics.Comments,
			s.saturation),
	}
	if serendipityEnabled && profile != nil {
		sub.Serendipity = SerendipityScore(profile.TopCategoryScores)
	}

	eff := weights.Effective(serendipityEnabled)
	total := CompositeScore(sub, eff)

	factors := contributingFactors(sub, serendipityEnabled)
	return Score{
		ArticleID: a.ID,
		Total:     total,
		Reason:    reasonFor(factors, a),
		Factors:   factors,
		Sub:       sub,
	}
}

// contributingFactors lists the components scoring at or above the factor
// threshold, strongest convention first (personalization, freshness,
// popularity, serendipity).
func contributingFactors(sub SubScores, serendipityEnabled bool) []string {
	var factors []string
	if sub.Personalization >= FactorThreshold {
		factors = append(factors, FactorInterestMatch)
	}
	if sub.Freshness >= FactorThreshold {
		factors = append(factors, FactorFresh)
	}
	if sub.Popularity >= FactorThreshold {
		factors = append(factors, FactorPopular)
	}
	if serendipityEnabled && sub.Serendipity >= FactorThreshold {
		factors = append(factors, FactorSerendipity)
	}
	return factors
}

// reasonFor builds the human-readable reason string from the strongest
// contributing factor.
func reasonFor(factors []string, a *article.Article) string {
	if len(factors) == 0 {
		return "Recommended for you"
	}

	switch factors[0] {
	case FactorInterestMatch:
		return "Matches your interests"
	case FactorFresh:
		return "Just published"
	case FactorPopular:
		if a.Category != "" {
			return fmt.Sprintf("Trending in %s", titleCase(a.Category))
		}
		return "Trending now"
	case FactorSerendipity:
		return "Something different"
	}
	return "Recommended for you"
}

// titleCase capitalizes the first letter of a category label for display.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
