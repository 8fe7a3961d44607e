// Package report renders forecast snapshots to a terminal.
package report

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/ingest"
	"github.com/vadiminshakov/forecast/internal/services/forecast"
)

// Document is everything printed by one report run.
type Document struct {
	Forecast  forecast.ForecastView
	Pipelines []forecast.PipelineView
	// Missing lists comparison periods that have no configured change set.
	Missing []domain.Comparison
}

// Collector loads the exports once and computes one pipeline view per comparison.
type Collector struct {
	source   ingest.Source
	settings forecast.Settings
	progress io.Writer
	l        *zap.Logger
}

// NewCollector creates a collector. Progress is drawn on progress; nil disables it.
func NewCollector(source ingest.Source, settings forecast.Settings, progress io.Writer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Collector{
		source:   source,
		settings: settings,
		progress: progress,
		l:        logger.With(zap.String("component", "report")),
	}
}

// Collect builds the document with the default filters and initial buckets.
func (c *Collector) Collect(ctx context.Context) (Document, error) {
	var (
		closedWon []domain.ClosedWonRecord
		deals     []domain.DealRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		closedWon, err = c.source.ClosedWon(gctx)
		return err
	})
	g.Go(func() (err error) {
		deals, err = c.source.Pipeline(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Document{}, errors.Wrap(err, "load exports")
	}

	in := forecast.Inputs{
		Status:         forecast.StatusReady,
		PipelineStatus: forecast.StatusReady,
		Filters:        domain.DefaultFilterState(),
		Sort:           forecast.DefaultSort(),
		ClosedWon:      closedWon,
		Deals:          deals,
	}

	comparisons := domain.Comparisons()
	bar := progressbar.NewOptions(len(comparisons),
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("building pipeline layouts"),
		progressbar.OptionClearOnFinish(),
	)

	var doc Document
	for _, comparison := range comparisons {
		changes, err := c.source.Changes(ctx, comparison)
		switch {
		case errors.Is(err, ingest.ErrNoChangeSet):
			c.l.Debug("no change set", zap.String("comparison", comparison.String()))
			doc.Missing = append(doc.Missing, comparison)
		case err != nil:
			return Document{}, errors.Wrapf(err, "load %s changes", comparison)
		default:
			in.Comparison = comparison
			in.Changes = changes
			snap := forecast.Compute(in, c.settings)
			if !snap.Pipeline.Waterfall.Consistent() {
				c.l.Warn("waterfall does not reach the ending anchor",
					zap.String("comparison", comparison.String()),
					zap.String("mismatch", snap.Pipeline.Waterfall.Mismatch.String()))
			}
			doc.Forecast = snap.Forecast
			doc.Pipelines = append(doc.Pipelines, snap.Pipeline)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if len(doc.Pipelines) == 0 {
		in.Comparison = domain.ComparisonStartOfQuarter
		doc.Forecast = forecast.Compute(in, c.settings).Forecast
	}
	return doc, nil
}
