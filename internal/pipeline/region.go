package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/geometry"
)

// Skip reasons recorded on summaries and the regions_skipped metric.
const (
	SkipTooFewPoints = "too_few_points"
	SkipZeroMaxCount = "zero_max_count"
)

type regionResult struct {
	summary domain.RegionSummary
}

// processRegions sorts and trims every series and merges the aliased regions,
// then lays out, renders and summarises each region on a bounded worker pool.
// It returns the trimmed and merged series keyed by region and one result per
// region, ordered by region name.
func (p *Pipeline) processRegions(ctx context.Context, regions map[string]domain.Series) (trimmed, merged map[string]domain.Series, results []regionResult, err error) {
	names := slices.Sorted(maps.Keys(regions))
	trimmed = make(map[string]domain.Series, len(regions))
	removed := make(map[string]int, len(regions))
	for _, name := range names {
		s := regions[name].Sorted()
		kept := domain.TrimReportingLag(s.Points, p.opts.TrimWindow)
		removed[name] = len(s.Points) - len(kept)
		p.metrics.PointsTrimmed.Add(float64(removed[name]))
		trimmed[name] = domain.Series{Region: name, Points: kept}
	}

	merged, err = p.aggregator.MergeAliasedRegions(trimmed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("aggregate: %w", err)
	}

	results = make([]regionResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := p.processRegion(trimmed[name], merged, removed[name])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return trimmed, merged, results, nil
}

// processRegion produces the plot and statistics of one region. Series that
// cannot be drawn are reported as skipped rather than failing the run.
func (p *Pipeline) processRegion(s domain.Series, merged map[string]domain.Series, removed int) (regionResult, error) {
	summary := domain.RegionSummary{
		Region:      s.Region,
		Statistics:  p.aggregator.Statistics(s, merged),
		Trimmed:     removed,
		GeneratedAt: p.opts.Clock.Now().UTC(),
	}

	layout, err := p.engine.Layout(s, p.renderer.CanvasRadius())
	switch {
	case errors.Is(err, geometry.ErrTooFewPoints):
		summary.SkipReason = SkipTooFewPoints
	case errors.Is(err, geometry.ErrZeroMaxCount):
		summary.SkipReason = SkipZeroMaxCount
	case err != nil:
		return regionResult{}, err
	}
	if summary.SkipReason != "" {
		p.logger.Warn("region skipped", "region", s.Region, "reason", summary.SkipReason, "points", len(s.Points))
		p.metrics.RegionsSkipped.WithLabelValues(summary.SkipReason).Inc()
		return regionResult{summary: summary}, nil
	}

	path, err := p.renderer.RenderFile(p.opts.OutputDir, layout)
	if err != nil {
		return regionResult{}, fmt.Errorf("render %s: %w", s.Region, err)
	}
	summary.Image = path
	p.metrics.RegionsProcessed.Inc()
	p.logger.Debug("region rendered",
		"region", s.Region,
		"points", len(s.Points),
		"trimmed", removed,
		"max_count", layout.MaxCount,
		"ring_step", layout.RingStep,
		"path", path,
	)
	return regionResult{summary: summary}, nil
}
