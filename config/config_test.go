package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/forecast/internal/domain"
)

const minimalYAML = `
closed_won_path: data/closed_won.csv
pipeline_path: data/pipeline.csv
changes:
  soq: data/soq.csv
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "data/closed_won.csv", cfg.ClosedWonPath)
	assert.Equal(t, "data/pipeline.csv", cfg.PipelinePath)
	assert.Equal(t, map[domain.Comparison]string{domain.ComparisonStartOfQuarter: "data/soq.csv"}, cfg.Changes)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(cfg.YoYCompare))
	assert.True(t, decimal.NewFromInt(1_500_000).Equal(cfg.Plan))
	assert.Equal(t, time.February, cfg.FiscalQuarterStart)
	assert.Equal(t, []string{"Commercial", "Enterprise", "Public Sector", "NorCal"}, cfg.Segments)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.InDelta(t, 8.0/272, cfg.NodeGap, 1e-12)
	assert.InDelta(t, 4.0/272, cfg.MinNodeHeight, 1e-12)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
}

func TestParse_Overrides(t *testing.T) {
	doc := minimalYAML + `
  SOM: data/som.csv
  sow: data/sow.csv
yy_compare: "2500000.50"
plan: "0"
fiscal_quarter_start_month: "1"
segments: [Mid-Market]
listen_addr: 127.0.0.1:9000
tls_domains: [forecast.example.com]
node_gap: "0.05"
min_node_height: "0"
log_level: debug
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Len(t, cfg.Changes, 3)
	assert.Equal(t, "data/som.csv", cfg.Changes[domain.ComparisonStartOfMonth])
	assert.True(t, decimal.RequireFromString("2500000.50").Equal(cfg.YoYCompare))
	assert.True(t, cfg.Plan.IsZero())
	assert.Equal(t, time.January, cfg.FiscalQuarterStart)
	assert.Equal(t, []string{"Mid-Market"}, cfg.Segments)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, []string{"forecast.example.com"}, cfg.TLSDomains)
	assert.InDelta(t, 0.05, cfg.NodeGap, 1e-12)
	assert.Zero(t, cfg.MinNodeHeight)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{name: "missing closed won", doc: "pipeline_path: p\nchanges: {soq: s}\n", key: "closed_won_path"},
		{name: "missing pipeline", doc: "closed_won_path: c\nchanges: {soq: s}\n", key: "pipeline_path"},
		{name: "missing soq", doc: "closed_won_path: c\npipeline_path: p\nchanges: {som: s}\n", key: "changes.soq"},
		{name: "empty soq", doc: "closed_won_path: c\npipeline_path: p\nchanges: {soq: \"\"}\n", key: "changes.soq"},
		{name: "unknown comparison", doc: minimalYAML + "  soy: x\n", key: "changes"},
		{name: "bad plan", doc: minimalYAML + "plan: lots\n", key: "plan"},
		{name: "bad yy compare", doc: minimalYAML + "yy_compare: x\n", key: "yy_compare"},
		{name: "month out of range", doc: minimalYAML + "fiscal_quarter_start_month: \"13\"\n", key: "fiscal_quarter_start_month"},
		{name: "gap not a fraction", doc: minimalYAML + "node_gap: \"1.5\"\n", key: "node_gap"},
		{name: "bad log level", doc: minimalYAML + "log_level: loud\n", key: "log_level"},
		{name: "not yaml", doc: "closed_won_path: [\n", key: "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := Get(path)
	require.NoError(t, err)
	assert.Equal(t, "data/pipeline.csv", cfg.PipelinePath)

	_, err = Get(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_TmpRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	data, err := yaml.Marshal(cfg.Tmp())
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Changes, again.Changes)
	assert.True(t, cfg.Plan.Equal(again.Plan))
	assert.Equal(t, cfg.FiscalQuarterStart, again.FiscalQuarterStart)
	assert.InDelta(t, cfg.NodeGap, again.NodeGap, 1e-12)
	assert.Equal(t, cfg.LogLevel, again.LogLevel)
}
