// Package trending computes and stores trending topic snapshots from
// recent interaction velocity.
package trending

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/interaction"
)

// Defaults for the trending computation.
const (
	// DefaultWindow is how far back interactions count toward trending.
	DefaultWindow = 6 * time.Hour

	// DefaultTopicLimit caps the number of topics in a snapshot.
	DefaultTopicLimit = 10
)

// Topic is one trending topic with its interaction velocity.
type Topic struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`

	// ArticleIDs are the articles driving the topic, most engaged first.
	ArticleIDs []string `json:"article_ids,omitempty"`
}

// Snapshot is the trending state at one point in time.
type Snapshot struct {
	Topics     []Topic       `json:"topics"`
	Window     time.Duration `json:"window"`
	ComputedAt time.Time     `json:"computed_at"`
}

// TrendingArticles returns the set of article ids present in the snapshot.
func (s *Snapshot) TrendingArticles() map[string]bool {
	out := make(map[string]bool)
	for _, t := range s.Topics {
		for _, id := range t.ArticleIDs {
			out[id] = true
		}
	}
	return out
}

// Categories returns the topic category labels in rank order.
func (s *Snapshot) Categories() []string {
	out := make([]string, len(s.Topics))
	for i, t := range s.Topics {
		out[i] = t.Category
	}
	return out
}

// Tracker computes trending snapshots from the interaction store and
// article catalog.
type Tracker struct {
	interactions interaction.Store
	catalog      article.Catalog
	window       time.Duration
	topicLimit   int
	logger       *slog.Logger
}

// NewTracker creates a trending tracker. Non-positive window or limit fall
// back to the package defaults.
func NewTracker(interactions interaction.Store, catalog article.Catalog, window time.Duration, topicLimit int, logger *slog.Logger) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if topicLimit <= 0 {
		topicLimit = DefaultTopicLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		interactions: interactions,
		catalog:      catalog,
		window:       window,
		topicLimit:   topicLimit,
		logger:       logger,
	}
}

// Compute builds a fresh trending snapshot. Engagement interactions
// (likes, shares, comments) within the window are grouped by article
// category; categories rank by total count, articles within a category by
// their own counts.
func (t *Tracker) Compute(ctx context.Context) (*Snapshot, error) {
	since := time.Now().Add(-t.window)
	counts, err := t.interactions.CountSince(ctx, since,
		interaction.TypeLike, interaction.TypeShare, interaction.TypeComment)
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	type articleCount struct {
		id    string
		count int64
	}
	byCategory := make(map[string][]articleCount)
	totals := make(map[string]int64)

	for articleID, n := range counts {
		a, err := t.catalog.GetByID(ctx, articleID)
		if err != nil {
			// Deleted or moderated articles simply drop out of trending.
			continue
		}
		if a.Category == "" {
			continue
		}
		byCategory[a.Category] = append(byCategory[a.Category], articleCount{id: articleID, count: n})
		totals[a.Category] += n
	}

	topics := make([]Topic, 0, len(totals))
	for category, total := range totals {
		articles := byCategory[category]
		sort.Slice(articles, func(i, j int) bool {
			if articles[i].count != articles[j].count {
				return articles[i].count > articles[j].count
			}
			return articles[i].id < articles[j].id
		})

		ids := make([]string, len(articles))
		for i, ac := range articles {
			ids[i] = ac.id
		}
		topics = append(topics, Topic{Category: category, Count: total, ArticleIDs: ids})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Category < topics[j].Category
	})
	if len(topics) > t.topicLimit {
		topics = topics[:t.topicLimit]
	}

	return &Snapshot{
		Topics:     topics,
		Window:     t.window,
		ComputedAt: time.Now(),
	}, nil
}
