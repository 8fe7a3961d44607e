package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/ingest"
	"github.com/vadiminshakov/forecast/internal/services/bridge"
	"github.com/vadiminshakov/forecast/internal/services/forecast"
	"github.com/vadiminshakov/forecast/internal/services/sankey"
)

type fakeSource struct {
	changes map[domain.Comparison][]domain.ChangeRecord
	err     error
}

func (f fakeSource) ClosedWon(context.Context) ([]domain.ClosedWonRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.ClosedWonRecord{
		{AccountName: "Initech", ARR: decimal.NewFromInt(700_000), DealType: domain.DealTypeNewBusiness},
	}, nil
}

func (f fakeSource) Pipeline(context.Context) ([]domain.DealRecord, error) {
	return []domain.DealRecord{
		{ID: 0, AccountName: "Acme", ARR: decimal.NewFromInt(150_000), Bucket: domain.BucketForecast},
		{ID: 1, AccountName: "Globex", ARR: decimal.NewFromInt(350_000), Bucket: domain.BucketBestCase},
	}, nil
}

func (f fakeSource) Changes(_ context.Context, c domain.Comparison) ([]domain.ChangeRecord, error) {
	changes, ok := f.changes[c]
	if !ok {
		return nil, ingest.ErrNoChangeSet
	}
	return changes, nil
}

func settings() forecast.Settings {
	return forecast.Settings{
		FiscalStart: time.February,
		References:  bridge.References{YoY: decimal.NewFromInt(1_000_000), Plan: decimal.NewFromInt(1_500_000)},
		Sankey:      sankey.DefaultOptions(),
	}
}

func TestCollect(t *testing.T) {
	source := fakeSource{changes: map[domain.Comparison][]domain.ChangeRecord{
		domain.ComparisonStartOfQuarter: {
			{AccountName: "Acme", ChangeType: domain.ChangeARRIncrease,
				SnapshotARR: decimal.NewFromInt(1_000_000), CurrentARR: decimal.NewFromInt(1_200_000)},
			{AccountName: "Globex", ChangeType: domain.ChangeClosedLost, SnapshotARR: decimal.NewFromInt(50_000)},
		},
	}}

	var progress bytes.Buffer
	doc, err := NewCollector(source, settings(), &progress, nil).Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, doc.Pipelines, 1)
	assert.Equal(t, domain.ComparisonStartOfQuarter, doc.Pipelines[0].Comparison)
	assert.Equal(t, []domain.Comparison{domain.ComparisonStartOfMonth, domain.ComparisonStartOfWeek}, doc.Missing)

	// 700k closed won + 150k in
	assert.True(t, decimal.NewFromInt(850_000).Equal(doc.Forecast.Bridge.All.ClosestToPin()))
	// 1.05M start, +200k increase, -50k lost
	assert.True(t, decimal.NewFromInt(1_200_000).Equal(doc.Pipelines[0].Waterfall.Chained))
	assert.True(t, doc.Pipelines[0].Waterfall.Consistent())
}

func TestCollect_NoChangeSets(t *testing.T) {
	doc, err := NewCollector(fakeSource{}, settings(), nil, nil).Collect(context.Background())
	require.NoError(t, err)

	assert.Empty(t, doc.Pipelines)
	assert.Len(t, doc.Missing, 3)
	assert.True(t, decimal.NewFromInt(1_200_000).Equal(doc.Forecast.Bridge.All.Upside()))
}

func TestCollect_LoadError(t *testing.T) {
	boom := errors.New("disk on fire")

	_, err := NewCollector(fakeSource{err: boom}, settings(), nil, nil).Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRender(t *testing.T) {
	source := fakeSource{changes: map[domain.Comparison][]domain.ChangeRecord{
		domain.ComparisonStartOfMonth: {
			{AccountName: "Acme", ChangeType: domain.ChangeNew, CurrentARR: decimal.NewFromInt(300_000)},
		},
	}}
	doc, err := NewCollector(source, settings(), nil, nil).Collect(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Render(&out, doc))
	text := out.String()

	for _, want := range []string{
		"FORECAST BRIDGE",
		"NEW BUSINESS",
		"Closest to Pin",
		"$850K",
		"$1.2M",
		"In — Committed",
		"Best Case — Upside",
		"Acme",
		"Globex",
		"PIPELINE VS START OF MONTH",
		"SOM Pipeline",
		"+$300K",
		"Current Pipeline",
		"no change set configured for Start of Quarter",
	} {
		assert.Contains(t, text, want)
	}
}

func TestCells(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     int
	}{
		{name: "zero", fraction: 0, want: 0},
		{name: "full", fraction: 1, want: barWidth},
		{name: "half", fraction: 0.5, want: barWidth / 2},
		{name: "negative clamps", fraction: -0.3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cells(tt.fraction))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Acme", truncate("Acme", 17))
	assert.Equal(t, "Massive Dynam…", truncate("Massive Dynamic Corp", 14))
}
