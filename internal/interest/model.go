// Package interest maintains per-user interest profiles learned from the
// interaction stream. Each profile row is a bounded affinity score between
// a user and a content dimension such as a category or source.
package interest

import (
	"errors"
	"time"
)

// Dimension identifies the kind of content attribute an interest refers to.
type Dimension string

// Interest dimensions derivable from an article.
const (
	DimensionCategory Dimension = "category"
	DimensionSource   Dimension = "source"
	DimensionAuthor   Dimension = "author"
	DimensionKeyword  Dimension = "keyword"
	DimensionGeo      Dimension = "geo"
)

// Validation errors for interest rows.
var (
	ErrInvalidScore = errors.New("interest score must be between 0.0 and 1.0")
	ErrMissingLabel = errors.New("interest requires a non-empty label")
)

// UserInterest is a learned affinity between a user and one labeled
// dimension. Scores are monotonically nudged toward 1 by positive
// interactions and toward 0 by negative ones, always clamped to [0, 1].
type UserInterest struct {
	UserID           string    `json:"user_id"`
	Dimension        Dimension `json:"dimension"`
	Label            string    `json:"label"`
	Score            float64   `json:"score"`
	InteractionCount int64     `json:"interaction_count"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Validate checks the bounded fields of an interest row.
func (u *UserInterest) Validate() error {
	if u.Label == "" {
		return ErrMissingLabel
	}
	if u.Score < 0 || u.Score > 1 {
		return ErrInvalidScore
	}
	return nil
}

// clamp bounds a score to [0, 1].
func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
