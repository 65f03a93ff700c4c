package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
	"github.com/couchcryptid/observed-deaths-etl/internal/observability"
	"github.com/couchcryptid/observed-deaths-etl/internal/source"
)

// Fetcher retrieves the raw dataset.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Evicter is implemented by fetchers that cache downloads. A body that fails
// to decode is evicted so the next run downloads it again.
type Evicter interface {
	Evict(rawURL string) error
}

// Renderer draws a layout into a file under dir.
type Renderer interface {
	CanvasRadius() float64
	RenderFile(dir string, l geometry.Layout) (string, error)
}

// SummaryLoader publishes the per-region summaries of a run.
type SummaryLoader interface {
	LoadSummaries(ctx context.Context, summaries []domain.RegionSummary) error
}

// Options are the run settings that do not come with a collaborator.
type Options struct {
	SourceURL  string
	OutputDir  string
	Workers    int
	TrimWindow int
	Clock      clockwork.Clock
}

// Pipeline orchestrates the fetch-transform-report run.
type Pipeline struct {
	fetcher    Fetcher
	aggregator *domain.Aggregator
	engine     *geometry.Engine
	renderer   Renderer
	loader     SummaryLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options

	ready   atomic.Bool
	runs    atomic.Int64
	lastRun atomic.Pointer[domain.RunReport]
}

// New creates a Pipeline. loader may be nil to skip publishing summaries.
func New(f Fetcher, a *domain.Aggregator, e *geometry.Engine, r Renderer, l SummaryLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.TrimWindow < 1 {
		opts.TrimWindow = domain.DefaultTrimWindow
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		fetcher:    f,
		aggregator: a,
		engine:     e,
		renderer:   r,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the report of the latest successful run.
func (p *Pipeline) LastRun() (domain.RunReport, bool) {
	r := p.lastRun.Load()
	if r == nil {
		return domain.RunReport{}, false
	}
	return *r, true
}

const (
	initialBackoff = time.Second
	maxBackoff     = 5 * time.Minute
)

// Run executes a single run when interval is zero and returns its error.
// Otherwise it repeats the run every interval until the context is cancelled,
// retrying failed runs with exponential backoff.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "interval", interval, "workers", p.opts.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if interval <= 0 {
		_, err := p.RunOnce(ctx)
		return err
	}

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("run failed", "error", err, "retry_in", backoff)
			if !sharedretry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = sharedretry.NextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		if !sharedretry.SleepWithContext(ctx, interval) {
			return nil
		}
	}
}

// RunOnce fetches the dataset and produces every plot, report and summary.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.RunReport, error) {
	start := p.opts.Clock.Now()
	report := domain.RunReport{
		RunID:     fmt.Sprintf("%s-%d", start.UTC().Format("20060102T150405Z"), p.runs.Add(1)),
		StartedAt: start,
		Skipped:   map[string]string{},
	}
	log := p.logger.With("run_id", report.RunID)

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	regions, rows, err := p.extract(ctx)
	if err != nil {
		return report, err
	}
	report.Rows = rows
	report.Regions = len(regions)
	log.Info("dataset decoded", "rows", rows, "regions", len(regions))

	trimmed, merged, results, err := p.processRegions(ctx, regions)
	if err != nil {
		return report, err
	}

	summaries := make([]domain.RegionSummary, 0, len(results))
	for _, r := range results {
		if r.summary.SkipReason != "" {
			report.Skipped[r.summary.Region] = r.summary.SkipReason
		} else {
			report.Rendered++
		}
		r.summary.RunID = report.RunID
		summaries = append(summaries, r.summary)
	}

	if err := p.aggregate(ctx, log, trimmed, merged, &report); err != nil {
		return report, err
	}

	if p.loader != nil {
		if err := p.loader.LoadSummaries(ctx, summaries); err != nil {
			return report, fmt.Errorf("publish summaries: %w", err)
		}
		p.metrics.SummariesProduced.Add(float64(len(summaries)))
	}

	report.FinishedAt = p.opts.Clock.Now()
	p.metrics.RunDuration.Observe(report.FinishedAt.Sub(start).Seconds())
	p.lastRun.Store(&report)
	p.ready.Store(true)
	log.Info("run complete",
		"rendered", report.Rendered,
		"skipped", len(report.Skipped),
		"reports", len(report.Reports),
		"duration", report.FinishedAt.Sub(start),
	)
	return report, nil
}

// extract fetches and decodes the dataset and groups it by region.
func (p *Pipeline) extract(ctx context.Context) (map[string]domain.Series, int, error) {
	body, err := p.fetcher.Fetch(ctx, p.opts.SourceURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch dataset: %w", err)
	}
	records, err := source.DecodeObservations(body)
	if err != nil {
		if ev, ok := p.fetcher.(Evicter); ok {
			if evErr := ev.Evict(p.opts.SourceURL); evErr != nil {
				p.logger.Warn("cache eviction failed", "error", evErr)
			}
		}
		return nil, 0, err
	}
	p.metrics.RowsDecoded.Add(float64(len(records)))

	regions := domain.BuildSeries(records)
	kept := 0
	for _, s := range regions {
		kept += len(s.Points)
	}
	p.metrics.RecordsKept.Add(float64(kept))
	return regions, len(records), nil
}
