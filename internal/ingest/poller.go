package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/newsreel/newsreel/internal/jobs"
)

// PollerConfig configures the periodic article poll job. The poll transport
// backstops the firehose: providers without streaming support are fetched on
// an interval instead.
type PollerConfig struct {
	// URL is the provider endpoint returning a JSON array of articles.
	URL string
	// Interval is the duration between poll cycles.
	Interval time.Duration
	// Timeout for each poll cycle.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics jobs.Recorder
}

// Poller periodically fetches articles over HTTP and applies them through
// the same processor as the firehose.
type Poller struct {
	config    PollerConfig
	processor *Processor
	client    *http.Client

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPoller creates a new article poll job.
func NewPoller(config PollerConfig, processor *Processor) (*Poller, error) {
	if config.URL == "" {
		return nil, ErrEmptyURL
	}
	if config.Interval == 0 {
		config.Interval = DefaultPollInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultPollTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Poller{
		config:    config,
		processor: processor,
		client:    &http.Client{Timeout: config.Timeout},
	}, nil
}

// Start begins the periodic poll job.
// Returns immediately; the job runs in a background goroutine.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.run(ctx)
	return nil
}

// Stop signals the poll job to stop and waits for it to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stopCh := p.stopCh
	doneCh := p.doneCh
	p.mu.Unlock()

	close(stopCh)
	<-doneCh

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// run is the main loop for the poll job.
func (p *Poller) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Poll once up front so the catalog fills without waiting a full interval.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.config.Logger.Info("article poll job stopping due to context cancellation")
			return
		case <-p.stopCh:
			p.config.Logger.Info("article poll job stopping due to stop signal")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll fetches and ingests one batch, bounded by the cycle timeout.
func (p *Poller) poll(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, p.config.Timeout)
	defer cancel()

	startTime := time.Now()

	ingested, err := p.fetchBatch(ctx)

	duration := time.Since(startTime).Seconds()
	if p.config.JobMetrics != nil {
		p.config.JobMetrics.ObserveJobDuration(jobs.JobTypeArticleIngest, duration)
	}

	if err != nil {
		p.config.Logger.Error("article poll failed", "error", err)
		if p.config.JobMetrics != nil {
			p.config.JobMetrics.IncJobsTotal(jobs.JobTypeArticleIngest, jobs.StatusFailure)
			p.config.JobMetrics.IncJobErrors(jobs.JobTypeArticleIngest, "fetch_error")
		}
		return
	}

	p.config.Logger.Info("article poll completed",
		"ingested", ingested,
		"duration_ms", time.Since(startTime).Milliseconds())
	if p.config.JobMetrics != nil {
		p.config.JobMetrics.IncJobsTotal(jobs.JobTypeArticleIngest, jobs.StatusSuccess)
	}
}

// fetchBatch downloads one batch of articles and processes each through the
// shared processor. Invalid entries are skipped; the count of ingested
// articles is returned.
func (p *Poller) fetchBatch(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build poll request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.config.Logger.Warn("failed to close poll response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected poll status: %d", resp.StatusCode)
	}

	var batch []ArticleEvent
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return 0, fmt.Errorf("failed to decode poll response: %w", err)
	}

	ingested := 0
	for i := range batch {
		evt := &Event{Kind: KindArticle, Article: &batch[i]}
		if err := evt.Validate(); err != nil {
			p.config.Logger.Warn("skipping invalid polled article",
				slog.String("external_id", batch[i].ExternalID),
				slog.String("error", err.Error()))
			continue
		}
		if err := p.processor.Process(ctx, evt); err != nil {
			return ingested, err
		}
		ingested++
	}
	return ingested, nil
}
