package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/newsreel/newsreel/internal/article"
	"github.com/newsreel/newsreel/internal/tracing"
)

// processTimeout bounds catalog operations for a single event.
const processTimeout = 10 * time.Second

// Processor consumes decoded firehose events and applies them to the
// article catalog. Ingested articles are attributed to the system account.
type Processor struct {
	catalog article.Catalog
	metrics *Metrics
	logger  *slog.Logger
}

// NewProcessor creates a processor writing into the given catalog.
// metrics may be nil when recording is not wanted.
func NewProcessor(catalog article.Catalog, metrics *Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleMessage implements MessageHandler. Malformed events are logged and
// counted but never abort the stream; only catalog failures propagate so
// the client reconnects rather than silently dropping writes.
func (p *Processor) HandleMessage(messageType int, payload []byte) error {
	start := time.Now()

	evt, err := DecodeEvent(payload)
	if err != nil {
		p.logger.Warn("dropping undecodable firehose event",
			slog.String("error", err.Error()))
		p.countError()
		return nil
	}
	if err := evt.Validate(); err != nil {
		p.logger.Warn("dropping invalid firehose event",
			slog.String("kind", evt.Kind),
			slog.String("error", err.Error()))
		p.countError()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if err := p.Process(ctx, evt); err != nil {
		p.countError()
		return err
	}

	if p.metrics != nil {
		p.metrics.IncEventsProcessed()
		p.metrics.ObserveIngestLatency(time.Since(start).Seconds())
	}
	return nil
}

// Process applies a single validated event to the catalog.
func (p *Processor) Process(ctx context.Context, evt *Event) (err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "ingest_event")
	defer func() { endSpan(err) }()
	tracing.SetAttributes(ctx, attribute.String("event.kind", evt.Kind))

	switch evt.Kind {
	case KindPing:
		return nil
	case KindArticle:
		return p.upsert(ctx, evt.Article)
	case KindDelete:
		return p.retract(ctx, evt.ExternalID)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, evt.Kind)
	}
}

func (p *Processor) upsert(ctx context.Context, ae *ArticleEvent) error {
	a := &article.Article{
		Title:       ae.Title,
		URL:         ae.URL,
		Category:    ae.Category,
		Source:      ae.Source,
		AuthorID:    authorID(ae),
		ExternalID:  ae.ExternalID,
		PublishedAt: ae.PublishedAt,
	}

	result, err := p.catalog.Upsert(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to upsert ingested article: %w", err)
	}

	outcome := "updated"
	if result.Inserted {
		outcome = "created"
	}
	if p.metrics != nil {
		p.metrics.IncUpserts(outcome)
	}
	p.logger.Debug("ingested article",
		slog.String("id", result.ID),
		slog.String("external_id", ae.ExternalID),
		slog.String("outcome", outcome))
	return nil
}

func (p *Processor) retract(ctx context.Context, externalID string) error {
	a, err := p.catalog.GetByExternalID(ctx, externalID)
	if errors.Is(err, article.ErrArticleNotFound) {
		// Retractions for articles we never saw are expected.
		p.logger.Debug("retraction for unknown article",
			slog.String("external_id", externalID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve retracted article: %w", err)
	}

	if err := p.catalog.Delete(ctx, a.ID); err != nil && !errors.Is(err, article.ErrArticleNotFound) {
		return fmt.Errorf("failed to retract article: %w", err)
	}

	if p.metrics != nil {
		p.metrics.IncDeletes()
	}
	p.logger.Info("retracted article",
		slog.String("id", a.ID),
		slog.String("external_id", externalID))
	return nil
}

func (p *Processor) countError() {
	if p.metrics != nil {
		p.metrics.IncEventsError()
	}
}

// authorID attributes the article to its named author when present,
// otherwise to the system account.
func authorID(ae *ArticleEvent) string {
	if ae.Author != "" {
		return ae.Author
	}
	return SystemUserID
}
