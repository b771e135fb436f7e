package feed

import (
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/ranking"
)

// ScoredArticle pairs an article with its computed recommendation score.
type ScoredArticle struct {
	Article *article.Article `json:"article"`
	Score   ranking.Score    `json:"score"`
}

// Response is the final ranked page returned to a caller.
// Constructed per request, never cached.
type Response struct {
	Articles []ScoredArticle `json:"articles"`

	// TotalCount is the pre-pagination candidate count after filtering.
	TotalCount int `json:"total_count"`

	PageNumber int  `json:"page_number"`
	PageSize   int  `json:"page_size"`
	HasMore    bool `json:"has_more"`

	// Algorithm echoes the variant that produced the ordering.
	Algorithm string `json:"algorithm"`

	GeneratedAt time.Time `json:"generated_at"`

	// TrendingTopics is a snapshot of current trending topic labels,
	// present when requested or when the trending variant ran.
	TrendingTopics []string `json:"trending_topics,omitempty"`

	// AppliedFilters lists the filters that constrained the candidate set.
	AppliedFilters []string `json:"applied_filters,omitempty"`
}
