package feed

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/follow"
	"github.com/newsreel/newsreel/internal/interest"
	"github.com/newsreel/newsreel/internal/ranking"
	"github.com/newsreel/newsreel/internal/tracing"
	"github.com/newsreel/newsreel/internal/trending"
)

// topCategoryLimit is how many of the user's strongest category affinities
// feed the serendipity baseline.
const topCategoryLimit = 5

// Assembler converts a user's interaction history and the candidate catalog
// into ordered, scored feed pages. It is a pure per-request transformation:
// all state lives in the injected stores.
type Assembler struct {
	catalog   article.Catalog
	interests interest.Store
	follows   follow.Graph
	trends    trending.SnapshotStore
	configs   ConfigStore
	scorer    *ranking.Scorer
	metrics   *Metrics
	logger    *slog.Logger

	// parallelism bounds the scoring worker pool per request.
	parallelism int
}

// NewAssembler creates a feed assembler. A nil scorer gets the package
// defaults; parallelism defaults to the number of CPUs.
func NewAssembler(
	catalog article.Catalog,
	interests interest.Store,
	follows follow.Graph,
	trends trending.SnapshotStore,
	configs ConfigStore,
	scorer *ranking.Scorer,
	metrics *Metrics,
	logger *slog.Logger,
) *Assembler {
	if scorer == nil {
		scorer = ranking.NewScorer(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		catalog:     catalog,
		interests:   interests,
		follows:     follows,
		trends:      trends,
		configs:     configs,
		scorer:      scorer,
		metrics:     metrics,
		logger:      logger,
		parallelism: runtime.GOMAXPROCS(0),
	}
}

// GetFeed produces an ordered feed page for the user.
//
// Validation errors are rejected up front with no partial response.
// Collaborator failures propagate as-is; the caller owns retry policy.
// Missing interest data never fails the request, it only lowers scores.
func (a *Assembler) GetFeed(ctx context.Context, userID string, req Request) (resp *Response, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "assemble_feed")
	defer func() { endSpan(err) }()

	startTime := time.Now()
	algorithm, err := req.Normalize()
	if err != nil {
		if a.metrics != nil {
			a.metrics.IncRequests("invalid", StatusInvalid)
		}
		return nil, err
	}

	cfg, err := a.configs.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("feed configuration: %w", err)
	}
	if req.Algorithm == "" && cfg.Algorithm != "" {
		algorithm = cfg.Algorithm
	}

	tracing.SetAttributes(ctx,
		attribute.String("feed.user_id", userID),
		attribute.String("feed.algorithm", string(algorithm)))

	now := time.Now()
	candidates, err := a.catalog.ListCandidates(ctx, req.effectiveFrom(now), req.ToDate)
	if err != nil {
		if a.metrics != nil {
			a.metrics.IncRequests(string(algorithm), StatusError)
		}
		return nil, fmt.Errorf("article catalog: %w", err)
	}

	snapshot := a.loadSnapshot(ctx, algorithm, req)
	candidates, applied, err := a.filter(ctx, userID, algorithm, req, cfg, snapshot, candidates)
	if err != nil {
		if a.metrics != nil {
			a.metrics.IncRequests(string(algorithm), StatusError)
		}
		return nil, err
	}

	profile, err := a.buildProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("interest store: %w", err)
	}

	weights := a.effectiveWeights(cfg, algorithm)
	scored := a.scoreAll(candidates, profile, weights, cfg.EnableSerendipity, now)

	sortScored(scored, algorithm, req.Sort)

	total := len(scored)
	page := paginate(scored, req.PageNumber, req.PageSize)

	resp = &Response{
		Articles:       page,
		TotalCount:     total,
		PageNumber:     req.PageNumber,
		PageSize:       req.PageSize,
		HasMore:        req.PageNumber*req.PageSize < total,
		Algorithm:      string(algorithm),
		GeneratedAt:    now,
		AppliedFilters: applied,
	}
	if snapshot != nil {
		resp.TrendingTopics = snapshot.Categories()
	}

	if a.metrics != nil {
		a.metrics.IncRequests(string(algorithm), StatusOK)
		a.metrics.ObserveDuration(string(algorithm), time.Since(startTime).Seconds())
		a.metrics.ObserveCandidates(float64(total))
	}

	a.logger.Debug("feed assembled",
		"user_id", userID,
		"algorithm", string(algorithm),
		"candidates", total,
		"page", req.PageNumber,
		"duration_ms", time.Since(startTime).Milliseconds())
	return resp, nil
}

// loadSnapshot fetches the trending snapshot when the variant or request
// needs it. A missing snapshot degrades gracefully to nil.
func (a *Assembler) loadSnapshot(ctx context.Context, algorithm Algorithm, req Request) *trending.Snapshot {
	if a.trends == nil {
		return nil
	}
	if algorithm != AlgorithmTrending && !req.Sort.IncludeTrending {
		return nil
	}

	snapshot, err := a.trends.Latest(ctx)
	if err != nil {
		if err != trending.ErrNoSnapshot {
			a.logger.Warn("failed to load trending snapshot", "error", err)
		}
		return nil
	}
	return snapshot
}

// filter drops candidates excluded by the user's policy, the request's
// filters, and the algorithm variant. Returns the surviving candidates and
// the list of applied filter labels.
func (a *Assembler) filter(
	ctx context.Context,
	userID string,
	algorithm Algorithm,
	req Request,
	cfg *Configuration,
	snapshot *trending.Snapshot,
	candidates []*article.Article,
) ([]*article.Article, []string, error) {
	var applied []string

	blockedSources := toSet(cfg.BlockedSources)
	blockedUsers := toSet(cfg.BlockedUsers)
	excluded := toSet(cfg.ExcludedCategories)
	if len(blockedSources) > 0 {
		applied = append(applied, "blocked_sources")
	}
	if len(blockedUsers) > 0 {
		applied = append(applied, "blocked_users")
	}
	if len(excluded) > 0 {
		applied = append(applied, "excluded_categories")
	}

	// Request categories narrow the set for any variant.
	requested := toSet(req.Categories)
	if req.Sort.Category != "" {
		requested[req.Sort.Category] = true
	}
	if len(requested) > 0 {
		applied = append(applied, "categories")
	}

	// Preferred categories restrict only the variants built around the
	// user's own profile; elsewhere they act through personalization.
	preferred := map[string]bool{}
	if algorithm == AlgorithmPersonalized || algorithm == AlgorithmFollowing {
		preferred = toSet(cfg.PreferredCategories)
		if len(preferred) > 0 {
			applied = append(applied, "preferred_categories")
		}
	}

	var followedAuthors map[string]bool
	if algorithm == AlgorithmFollowing || req.Sort.FollowedOnly {
		if a.follows == nil {
			followedAuthors = map[string]bool{}
		} else {
			var err error
			followedAuthors, err = a.follows.Following(ctx, userID)
			if err != nil {
				return nil, nil, fmt.Errorf("follow graph: %w", err)
			}
		}
		applied = append(applied, "followed_only")
	}

	var trendingSet map[string]bool
	if algorithm == AlgorithmTrending {
		if snapshot != nil {
			trendingSet = snapshot.TrendingArticles()
			applied = append(applied, "trending")
		} else {
			// No snapshot yet: an empty trending feed helps nobody, so
			// the restriction is skipped until the first refresh lands.
			a.logger.Warn("trending variant requested with no snapshot available")
		}
	}

	out := make([]*article.Article, 0, len(candidates))
	for _, c := range candidates {
		if blockedSources[c.Source] || blockedUsers[c.AuthorID] || excluded[c.Category] {
			continue
		}
		if len(requested) > 0 && !requested[c.Category] {
			continue
		}
		if req.Sort.Source != "" && c.Source != req.Sort.Source {
			continue
		}
		if len(preferred) > 0 && !preferred[c.Category] {
			continue
		}
		if followedAuthors != nil && !followedAuthors[c.AuthorID] {
			continue
		}
		if trendingSet != nil && !trendingSet[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out, applied, nil
}

// buildProfile loads the user's interest rows into the scorer's view.
// An empty profile is valid: personalization degrades to 0.
func (a *Assembler) buildProfile(ctx context.Context, userID string) (*ranking.Profile, error) {
	rows, err := a.interests.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &ranking.Profile{
		Interests: make(map[interest.Dimension]map[string]float64),
	}
	for _, row := range rows {
		byLabel, ok := profile.Interests[row.Dimension]
		if !ok {
			byLabel = make(map[string]float64)
			profile.Interests[row.Dimension] = byLabel
		}
		byLabel[row.Label] = row.Score
	}

	top, err := a.interests.TopByDimension(ctx, userID, interest.DimensionCategory, topCategoryLimit)
	if err != nil {
		return nil, err
	}
	for _, row := range top {
		profile.TopCategoryScores = append(profile.TopCategoryScores, row.Score)
	}
	return profile, nil
}

// effectiveWeights adjusts the configured weights for the algorithm variant.
func (a *Assembler) effectiveWeights(cfg *Configuration, algorithm Algorithm) *ranking.Weights {
	weights := cfg.Weights
	if algorithm == AlgorithmPersonalized {
		weights.Personalization *= 2
	}
	return &weights
}

// scoreAll scores every candidate. Candidates are independent, so scoring
// fans out across a bounded worker pool; results land at their candidate's
// index so the later stable sort stays deterministic.
func (a *Assembler) scoreAll(candidates []*article.Article, profile *ranking.Profile, weights *ranking.Weights, serendipity bool, now time.Time) []ScoredArticle {
	scored := make([]ScoredArticle, len(candidates))

	workers := a.parallelism
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers <= 1 {
		for i, c := range candidates {
			scored[i] = ScoredArticle{Article: c, Score: a.scorer.Score(c, profile, weights, serendipity, now)}
		}
		return scored
	}

	var wg sync.WaitGroup
	indexes := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				c := candidates[i]
				scored[i] = ScoredArticle{Article: c, Score: a.scorer.Score(c, profile, weights, serendipity, now)}
			}
		}()
	}
	for i := range candidates {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return scored
}

// sortScored orders scored candidates for the algorithm and sort options.
// The sort is stable: equal scores keep their publish-time ordering, and
// fully equal keys keep input order, which makes pagination reproducible
// for freshly-ingested batches with identical scores.
func sortScored(scored []ScoredArticle, algorithm Algorithm, opts SortOptions) {
	key := func(s ScoredArticle) float64 {
		switch {
		case opts.SortBy == SortByPublished || algorithm == AlgorithmChronological:
			return float64(s.Article.PublishedAt.UnixNano())
		case algorithm == AlgorithmPopular:
			return s.Score.Sub.Popularity
		}
		return s.Score.Total
	}

	asc := opts.Order == OrderAsc
	sort.SliceStable(scored, func(i, j int) bool {
		ki, kj := key(scored[i]), key(scored[j])
		if ki != kj {
			if asc {
				return ki < kj
			}
			return ki > kj
		}
		// Tie-break on publish time, most recent first.
		return scored[i].Article.PublishedAt.After(scored[j].Article.PublishedAt)
	})
}

// paginate applies skip/take to the ordered results.
func paginate(scored []ScoredArticle, pageNumber, pageSize int) []ScoredArticle {
	skip := (pageNumber - 1) * pageSize
	if skip >= len(scored) {
		return []ScoredArticle{}
	}

	end := skip + pageSize
	if end > len(scored) {
		end = len(scored)
	}

	page := make([]ScoredArticle, end-skip)
	copy(page, scored[skip:end])
	return page
}

// toSet converts a string slice to a membership set.
func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
