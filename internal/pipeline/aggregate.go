package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
	"github.com/couchcryptid/observed-deaths-etl/internal/report"
)

// aggregate computes the cross-region rankings and writes the report tables
// as CSV files plus one workbook. Excess deaths are ranked per source region;
// the per-capita tables use the alias-merged regions so they line up with
// the census.
func (p *Pipeline) aggregate(ctx context.Context, log *slog.Logger, trimmed, merged map[string]domain.Series, run *domain.RunReport) error {
	tables := []report.Table{
		report.RateMatrixTable(p.aggregator.RateMatrix(merged)),
		report.RateTriplesTable(p.aggregator.RateTriples(merged)),
	}

	snapshot, err := p.aggregator.PerCapitaSnapshot(merged)
	switch {
	case errors.Is(err, domain.ErrNoCommonDate):
		log.Warn("per-capita snapshot skipped", "error", err)
	case err != nil:
		return fmt.Errorf("aggregate: %w", err)
	default:
		run.LastGoodDate = snapshot.Date
		tables = append(tables, report.PerCapitaSnapshotTable(snapshot))
		logRanking(log, "per-capita snapshot", snapshot)
	}

	excess := p.aggregator.ExcessDeaths(trimmed)
	run.Total = excess.Total
	tables = append(tables, report.ExcessTable(excess))
	logRanking(log, "excess deaths", excess)

	excessPerCapita := p.aggregator.CumulativeExcessPerCapita(merged)
	tables = append(tables, report.ExcessPerCapitaTable(excessPerCapita))
	logRanking(log, "excess deaths per capita", excessPerCapita)

	tables = append(tables, report.DeathsByYearTable(p.aggregator.DeathsByYearTable(trimmed)))

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := report.WriteCSVFile(p.opts.OutputDir, t)
		if err != nil {
			return fmt.Errorf("write report %s: %w", t.Name, err)
		}
		run.Reports = append(run.Reports, path)
		p.metrics.ReportsWritten.Inc()
	}

	workbook := filepath.Join(p.opts.OutputDir, report.WorkbookName)
	if err := report.WriteWorkbook(workbook, tables); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	run.Reports = append(run.Reports, workbook)
	p.metrics.ReportsWritten.Inc()
	return nil
}

func logRanking(log *slog.Logger, name string, r domain.Ranking) {
	attrs := []any{"ranking", name, "regions", len(r.Entries)}
	if len(r.Entries) > 0 {
		attrs = append(attrs, "top", r.Entries[0].Region, "top_value", r.Entries[0].Value)
	}
	if r.Total != nil {
		attrs = append(attrs, "total_region", r.Total.Region, "total_value", r.Total.Value)
	}
	log.Info("ranking computed", attrs...)
}
