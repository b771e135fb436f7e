package trending

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/newsreel/newsreel/internal/jobs"
)

// RefreshJobConfig configures the periodic trending refresh job.
type RefreshJobConfig struct {
	// Interval is the duration between refresh cycles.
	Interval time.Duration
	// Timeout for each refresh cycle.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics jobs.Recorder
}

// DefaultRefreshInterval is the default interval between refresh cycles.
const DefaultRefreshInterval = 5 * time.Minute

// DefaultRefreshTimeout is the default timeout for a single refresh cycle.
const DefaultRefreshTimeout = 30 * time.Second

// RefreshJob periodically recomputes the trending snapshot and stores it.
type RefreshJob struct {
	config  RefreshJobConfig
	tracker *Tracker
	store   SnapshotStore

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshJob creates a new trending refresh job.
func NewRefreshJob(config RefreshJobConfig, tracker *Tracker, store SnapshotStore) *RefreshJob {
	if config.Interval == 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RefreshJob{config: config, tracker: tracker, store: store}
}

// Start begins the periodic refresh job.
// Returns immediately; the job runs in a background goroutine.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the refresh job to stop and waits for it to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RefreshJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the refresh job.
func (j *RefreshJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	// Refresh once up front so the first feed request sees a snapshot.
	j.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("trending refresh job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("trending refresh job stopping due to stop signal")
			return
		case <-ticker.C:
			j.refresh(ctx)
		}
	}
}

// refresh recomputes the trending snapshot once, bounded by the cycle timeout.
func (j *RefreshJob) refresh(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()

	snap, err := j.tracker.Compute(ctx)
	if err == nil {
		err = j.store.Save(ctx, snap)
	}

	duration := time.Since(startTime).Seconds()
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.ObserveJobDuration(jobs.JobTypeTrendingRefresh, duration)
	}

	if err != nil {
		j.config.Logger.Error("trending refresh failed", "error", err)
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobsTotal(jobs.JobTypeTrendingRefresh, jobs.StatusFailure)
			j.config.JobMetrics.IncJobErrors(jobs.JobTypeTrendingRefresh, "compute_error")
		}
		return
	}

	j.config.Logger.Info("trending snapshot refreshed",
		"topics", len(snap.Topics),
		"duration_ms", time.Since(startTime).Milliseconds())
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobs.JobTypeTrendingRefresh, jobs.StatusSuccess)
	}
}
