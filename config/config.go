package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// DefaultPath is where the CLI looks for the config file.
const DefaultPath = "forecast.yaml"

// drawable height of the reference Sankey column
const sankeyReferenceHeight = 272

// Config is the validated forecast configuration.
type Config struct {
	ClosedWonPath string
	PipelinePath  string
	Changes       map[domain.Comparison]string

	YoYCompare decimal.Decimal
	Plan       decimal.Decimal

	FiscalQuarterStart time.Month
	Segments           []string

	ListenAddr  string
	TLSDomains  []string
	TLSCacheDir string

	NodeGap       float64
	MinNodeHeight float64

	LogLevel zapcore.Level
}

// ConfigTmp mirrors the YAML document. Numbers are kept as strings so they can be
// parsed into decimals and reported by key.
type ConfigTmp struct {
	ClosedWonPath           string            `yaml:"closed_won_path"`
	PipelinePath            string            `yaml:"pipeline_path"`
	Changes                 map[string]string `yaml:"changes"`
	YoYCompareStr           string            `yaml:"yy_compare,omitempty"`
	PlanStr                 string            `yaml:"plan,omitempty"`
	FiscalQuarterStartMonth string            `yaml:"fiscal_quarter_start_month,omitempty"`
	Segments                []string          `yaml:"segments,omitempty"`
	ListenAddr              string            `yaml:"listen_addr,omitempty"`
	TLSDomains              []string          `yaml:"tls_domains,omitempty"`
	TLSCacheDir             string            `yaml:"tls_cache_dir,omitempty"`
	NodeGapStr              string            `yaml:"node_gap,omitempty"`
	MinNodeHeightStr        string            `yaml:"min_node_height,omitempty"`
	LogLevel                string            `yaml:"log_level,omitempty"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() Config {
	return Config{
		Changes:            map[domain.Comparison]string{},
		YoYCompare:         decimal.NewFromInt(1_000_000),
		Plan:               decimal.NewFromInt(1_500_000),
		FiscalQuarterStart: time.February,
		Segments:           []string{"Commercial", "Enterprise", "Public Sector", "NorCal"},
		ListenAddr:         ":8080",
		TLSCacheDir:        "./certs",
		NodeGap:            8.0 / sankeyReferenceHeight,
		MinNodeHeight:      4.0 / sankeyReferenceHeight,
		LogLevel:           zapcore.InfoLevel,
	}
}

// Get reads and validates the config file at path.
func Get(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates a YAML document and fills in defaults.
func Parse(data []byte) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, fmt.Errorf("parse yaml config: %w", err)
	}
	return tmp.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Default()

	if c.ClosedWonPath == "" {
		return Config{}, fmt.Errorf("'closed_won_path' is required in yaml config")
	}
	cfg.ClosedWonPath = c.ClosedWonPath

	if c.PipelinePath == "" {
		return Config{}, fmt.Errorf("'pipeline_path' is required in yaml config")
	}
	cfg.PipelinePath = c.PipelinePath

	for key, path := range c.Changes {
		comparison, err := domain.ParseComparison(strings.ToLower(key))
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'changes' key in yaml config (one of soq, som, sow): %w", err)
		}
		if path == "" {
			continue
		}
		cfg.Changes[comparison] = path
	}
	if cfg.Changes[domain.ComparisonStartOfQuarter] == "" {
		return Config{}, fmt.Errorf("'changes.soq' is required in yaml config")
	}

	if c.YoYCompareStr != "" {
		v, err := decimal.NewFromString(c.YoYCompareStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'yy_compare' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.YoYCompare = v
	}

	if c.PlanStr != "" {
		v, err := decimal.NewFromString(c.PlanStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'plan' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.Plan = v
	}

	if c.FiscalQuarterStartMonth != "" {
		month, err := strconv.Atoi(c.FiscalQuarterStartMonth)
		if err != nil || month < 1 || month > 12 {
			return Config{}, fmt.Errorf("incorrect 'fiscal_quarter_start_month' param in yaml config (must be 1-12): %q", c.FiscalQuarterStartMonth)
		}
		cfg.FiscalQuarterStart = time.Month(month)
	}

	if len(c.Segments) > 0 {
		cfg.Segments = c.Segments
	}
	if c.ListenAddr != "" {
		cfg.ListenAddr = c.ListenAddr
	}
	cfg.TLSDomains = c.TLSDomains
	if c.TLSCacheDir != "" {
		cfg.TLSCacheDir = c.TLSCacheDir
	}

	if c.NodeGapStr != "" {
		v, err := parseFraction(c.NodeGapStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'node_gap' param in yaml config: %w", err)
		}
		cfg.NodeGap = v
	}
	if c.MinNodeHeightStr != "" {
		v, err := parseFraction(c.MinNodeHeightStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'min_node_height' param in yaml config: %w", err)
		}
		cfg.MinNodeHeight = v
	}

	if c.LogLevel != "" {
		level, err := zapcore.ParseLevel(c.LogLevel)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'log_level' param in yaml config: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func parseFraction(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || v >= 1 {
		return 0, fmt.Errorf("must be a fraction in [0, 1): %s", s)
	}
	return v, nil
}

// Tmp converts the config back into its YAML form.
func (c Config) Tmp() ConfigTmp {
	changes := make(map[string]string, len(c.Changes))
	for comparison, path := range c.Changes {
		changes[comparison.String()] = path
	}
	return ConfigTmp{
		ClosedWonPath:           c.ClosedWonPath,
		PipelinePath:            c.PipelinePath,
		Changes:                 changes,
		YoYCompareStr:           c.YoYCompare.String(),
		PlanStr:                 c.Plan.String(),
		FiscalQuarterStartMonth: strconv.Itoa(int(c.FiscalQuarterStart)),
		Segments:                c.Segments,
		ListenAddr:              c.ListenAddr,
		TLSDomains:              c.TLSDomains,
		TLSCacheDir:             c.TLSCacheDir,
		NodeGapStr:              strconv.FormatFloat(c.NodeGap, 'f', -1, 64),
		MinNodeHeightStr:        strconv.FormatFloat(c.MinNodeHeight, 'f', -1, 64),
		LogLevel:                c.LogLevel.String(),
	}
}
