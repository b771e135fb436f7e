// Package interaction provides the append-only store of user interactions
// with articles. Interactions are immutable once written; corrections are
// made by appending a new record.
package interaction

import (
	"errors"
	"time"
)

// Type identifies the kind of user action against an article.
type Type string

// Known interaction types. Unknown types are still recorded (ingestion is
// lossless) but contribute no interest score delta.
const (
	TypeView      Type = "view"
	TypeLike      Type = "like"
	TypeShare     Type = "share"
	TypeSave      Type = "save"
	TypeComment   Type = "comment"
	TypeClick     Type = "click"
	TypeFullRead  Type = "full_read"
	TypeQuickExit Type = "quick_exit"
)

// Known reports whether t is one of the recognized interaction types.
func (t Type) Known() bool {
	switch t {
	case TypeView, TypeLike, TypeShare, TypeSave, TypeComment,
		TypeClick, TypeFullRead, TypeQuickExit:
		return true
	}
	return false
}

// Validation errors for interaction records.
var (
	ErrMissingUserID          = errors.New("interaction requires a user id")
	ErrMissingArticleID       = errors.New("interaction requires an article id")
	ErrInvalidReadingProgress = errors.New("reading progress must be between 0.0 and 1.0")
	ErrInvalidTimeSpent       = errors.New("time spent must be non-negative")
)

// Interaction represents one user action on one article.
type Interaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// ReadingProgress is how far through the article the user got, in [0, 1].
	// Nil when not reported.
	ReadingProgress *float64 `json:"reading_progress,omitempty"`

	// TimeSpentSeconds is how long the user spent on the article.
	// Nil when not reported.
	TimeSpentSeconds *float64 `json:"time_spent_seconds,omitempty"`
}

// Validate checks the required and bounded fields of an interaction.
// Unknown types are deliberately not rejected.
func (i *Interaction) Validate() error {
	if i.UserID == "" {
		return ErrMissingUserID
	}
	if i.ArticleID == "" {
		return ErrMissingArticleID
	}
	if i.ReadingProgress != nil && (*i.ReadingProgress < 0 || *i.ReadingProgress > 1) {
		return ErrInvalidReadingProgress
	}
	if i.TimeSpentSeconds != nil && *i.TimeSpentSeconds < 0 {
		return ErrInvalidTimeSpent
	}
	return nil
}
