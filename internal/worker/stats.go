package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/hydro/internal/types"
)

// StatsSource reports global record counts.
type StatsSource interface {
	Stats(ctx context.Context) (*types.StoreStats, error)
}

// StatsSink receives the counts of each refresh.
type StatsSink interface {
	SetStoreTotals(systems, measurements int64)
}

// StatsReporter periodically publishes store totals.
type StatsReporter struct {
	source   StatsSource
	sink     StatsSink
	interval time.Duration
}

// NewStatsReporter creates a reporter refreshing every interval.
func NewStatsReporter(source StatsSource, sink StatsSink, interval time.Duration) *StatsReporter {
	return &StatsReporter{
		source:   source,
		sink:     sink,
		interval: interval,
	}
}

// Run refreshes immediately and then on every tick. Blocks until ctx is
// cancelled.
func (r *StatsReporter) Run(ctx context.Context) {
	slog.Info("stats reporter started",
		"component", "worker",
		"worker", "stats-reporter",
		"interval", r.interval.String(),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stats reporter stopped",
				"component", "worker",
				"worker", "stats-reporter",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh reads the totals once. Failures are logged and the previous
// values stay published.
func (r *StatsReporter) refresh(ctx context.Context) {
	stats, err := r.source.Stats(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("failed to read store stats",
			"component", "worker",
			"worker", "stats-reporter",
			"error", err,
		)
		return
	}

	r.sink.SetStoreTotals(stats.SystemCount, stats.MeasurementCount)
	slog.Debug("store stats refreshed",
		"component", "worker",
		"worker", "stats-reporter",
		"systems", stats.SystemCount,
		"measurements", stats.MeasurementCount,
	)
}
