package setup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/forecast/config"
	"github.com/vadiminshakov/forecast/internal/domain"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantErr  bool
	}{
		{name: "csv path", validate: validateCSVPath, input: "data/pipeline.csv"},
		{name: "csv path upper ext", validate: validateCSVPath, input: "PIPELINE.CSV"},
		{name: "csv path empty", validate: validateCSVPath, input: "  ", wantErr: true},
		{name: "csv path wrong ext", validate: validateCSVPath, input: "pipeline.xlsx", wantErr: true},
		{name: "optional empty", validate: optional(validateCSVPath), input: ""},
		{name: "optional set", validate: optional(validateCSVPath), input: "x.txt", wantErr: true},
		{name: "reference", validate: validateReference, input: "1500000"},
		{name: "reference zero", validate: validateReference, input: "0"},
		{name: "reference negative", validate: validateReference, input: "-1", wantErr: true},
		{name: "reference text", validate: validateReference, input: "lots", wantErr: true},
		{name: "listen port only", validate: validateListenAddr, input: ":8080"},
		{name: "listen host", validate: validateListenAddr, input: "127.0.0.1:9000"},
		{name: "listen missing port", validate: validateListenAddr, input: "localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAnswersTmp(t *testing.T) {
	a := DefaultAnswers()
	a.SOWPath = " data/sow.csv "
	a.TLSDomains = "forecast.example.com, ,board.example.com"

	tmp := a.Tmp()

	assert.Equal(t, map[string]string{"soq": "data/changes_soq.csv", "sow": "data/sow.csv"}, tmp.Changes)
	assert.Equal(t, []string{"forecast.example.com", "board.example.com"}, tmp.TLSDomains)
	assert.Equal(t, "2", tmp.FiscalQuarterStartMonth)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.yaml")
	a := DefaultAnswers()
	a.Plan = "2000000"
	a.FiscalStart = "3"

	require.NoError(t, Write(path, a))

	cfg, err := config.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "data/pipeline.csv", cfg.PipelinePath)
	assert.Equal(t, "data/changes_soq.csv", cfg.Changes[domain.ComparisonStartOfQuarter])
	assert.True(t, decimal.NewFromInt(2_000_000).Equal(cfg.Plan))
	assert.Equal(t, time.March, cfg.FiscalQuarterStart)
	assert.Equal(t, config.Default().NodeGap, cfg.NodeGap)
}

func TestWrite_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.yaml")
	a := DefaultAnswers()
	a.SOQPath = ""

	require.Error(t, Write(path, a))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
