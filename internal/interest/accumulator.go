package interest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/db"
	"github.com/newsreel/newsreel/internal/interaction"
)

// Accumulator maintains user interest profiles from the interaction stream.
// Each recorded interaction is appended to the interaction store, bumps the
// article's aggregate counter, and nudges the matching interest rows.
type Accumulator struct {
	catalog      article.Catalog
	interactions interaction.Store
	interests    Store
	tx           db.TxRunner
	metrics      *Metrics
	logger       *slog.Logger
}

// NewAccumulator creates a new interest accumulator.
func NewAccumulator(catalog article.Catalog, interactions interaction.Store, interests Store, metrics *Metrics, logger *slog.Logger) *Accumulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{
		catalog:      catalog,
		interactions: interactions,
		interests:    interests,
		metrics:      metrics,
		logger:       logger,
	}
}

// WithTxRunner makes RecordInteraction execute its writes inside a single
// transaction. Wire this alongside the Postgres-backed stores; the
// in-memory stores never fail after validation and do not need it.
func (a *Accumulator) WithTxRunner(tx db.TxRunner) *Accumulator {
	a.tx = tx
	return a
}

// runWrites executes fn under the transaction runner when one is set.
func (a *Accumulator) runWrites(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.tx != nil {
		return a.tx.InTx(ctx, fn)
	}
	return fn(ctx)
}

// counterFor maps interaction types to the aggregate article counter they bump.
// Types without a counter return an empty Counter.
func counterFor(t interaction.Type) article.Counter {
	switch t {
	case interaction.TypeView:
		return article.CounterViews
	case interaction.TypeLike:
		return article.CounterLikes
	case interaction.TypeShare:
		return article.CounterShares
	case interaction.TypeComment:
		return article.CounterComments
	}
	return ""
}

// RecordInteraction records one interaction: the event is appended, the
// article counter bumped, and every interest dimension derivable from the
// article (category, source, author) adjusted by the type's delta.
//
// Interaction ids are assumed unique upstream; each call represents a
// genuinely new event, so replay protection belongs to the caller.
func (a *Accumulator) RecordInteraction(ctx context.Context, i *interaction.Interaction) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}

	art, err := a.catalog.GetByID(ctx, i.ArticleID)
	if err != nil {
		return fmt.Errorf("failed to resolve article %s: %w", i.ArticleID, err)
	}

	// The append, counter bump, and interest applies commit or roll back
	// together; a failure partway through leaves no partial state behind.
	delta := Delta(i)
	err = a.runWrites(ctx, func(ctx context.Context) error {
		if err := a.interactions.Append(ctx, i); err != nil {
			return fmt.Errorf("failed to append interaction: %w", err)
		}

		if counter := counterFor(i.Type); counter != "" {
			if err := a.catalog.BumpCounter(ctx, i.ArticleID, counter); err != nil {
				return fmt.Errorf("failed to bump article counter: %w", err)
			}
		}

		if delta != 0 {
			for dim, label := range dimensionsOf(art) {
				if err := a.interests.Apply(ctx, i.UserID, dim, label, delta); err != nil {
					return fmt.Errorf("failed to apply %s interest: %w", dim, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if a.metrics != nil {
		a.metrics.IncInteractions(string(i.Type))
	}

	a.logger.Debug("interaction recorded",
		"user_id", i.UserID,
		"article_id", i.ArticleID,
		"type", string(i.Type),
		"delta", delta)
	return nil
}

// dimensionsOf returns the interest dimensions derivable from an article.
// Empty attributes are skipped.
func dimensionsOf(a *article.Article) map[Dimension]string {
	dims := make(map[Dimension]string, 3)
	if a.Category != "" {
		dims[DimensionCategory] = a.Category
	}
	if a.Source != "" {
		dims[DimensionSource] = a.Source
	}
	if a.AuthorID != "" {
		dims[DimensionAuthor] = a.AuthorID
	}
	return dims
}
