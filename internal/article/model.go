// Package article provides the article catalog: models and repositories for
// content eligible for feed ranking.
package article

import (
	"errors"
	"time"
)

// Common errors for article operations.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrArticleDeleted  = errors.New("article has been deleted")
)

// Moderation label constants control article visibility in feeds.
const (
	// LabelHidden marks articles excluded from all feeds.
	LabelHidden = "hidden"

	// LabelFlagged marks articles flagged for moderator review.
	// Flagged articles are excluded from ranked feeds.
	LabelFlagged = "flagged"

	// LabelSpam marks articles identified as spam.
	LabelSpam = "spam"
)

// AllowedLabels is the exhaustive list of valid moderation labels.
var AllowedLabels = []string{LabelHidden, LabelFlagged, LabelSpam}

// ErrInvalidLabel is returned when an unknown moderation label is applied.
var ErrInvalidLabel = errors.New("invalid moderation label")

// Metrics holds the aggregate interaction counters for an article.
// Counters are mutated on interaction; article content is immutable.
type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// Article represents a piece of content eligible for recommendation.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	AuthorID    string    `json:"author_id"`
	Labels      []string  `json:"labels,omitempty"`
	Metrics     Metrics   `json:"metrics"`
	PublishedAt time.Time `json:"published_at"`

	// ExternalID tracks the upstream identifier for articles ingested from
	// an external news source. Used for idempotent upsert.
	ExternalID string `json:"external_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// HasLabel reports whether the article carries the given moderation label.
func (a *Article) HasLabel(label string) bool {
	for _, l := range a.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Moderated reports whether the article is excluded from ranked feeds
// by any moderation label.
func (a *Article) Moderated() bool {
	return a.HasLabel(LabelHidden) || a.HasLabel(LabelFlagged) || a.HasLabel(LabelSpam)
}

// ValidateLabels checks that all provided labels are in the allowed list.
func ValidateLabels(labels []string) error {
	for _, label := range labels {
		valid := false
		for _, allowed := range AllowedLabels {
			if label == allowed {
				valid = true
				break
			}
		}
		if !valid {
			return ErrInvalidLabel
		}
	}
	return nil
}

// UpsertResult tracks statistics for upsert operations.
type UpsertResult struct {
	Inserted bool   // True if a new record was inserted
	ID       string // The UUID of the upserted record
}

// Counter identifies a single aggregate metric on an article.
type Counter string

// Counters that can be bumped on interaction.
const (
	CounterViews    Counter = "views"
	CounterLikes    Counter = "likes"
	CounterShares   Counter = "shares"
	CounterComments Counter = "comments"
)
