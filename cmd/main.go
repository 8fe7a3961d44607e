// Command forecast serves the interactive sales forecast board and prints
// forecast reports from CRM exports.
//
// Usage:
//
//	forecast setup  --config forecast.yaml
//	forecast serve  --config forecast.yaml
//	forecast report --config forecast.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/forecast/config"
	"github.com/vadiminshakov/forecast/internal/events"
	"github.com/vadiminshakov/forecast/internal/ingest"
	"github.com/vadiminshakov/forecast/internal/report"
	"github.com/vadiminshakov/forecast/internal/services/bridge"
	"github.com/vadiminshakov/forecast/internal/services/forecast"
	"github.com/vadiminshakov/forecast/internal/services/sankey"
	"github.com/vadiminshakov/forecast/internal/setup"
	"github.com/vadiminshakov/forecast/internal/web"
)

var args struct {
	config string
}

var rootCmd = &cobra.Command{
	Use:          "forecast",
	Long:         "Sales forecast board: bridges, pipeline waterfall and flow diagram built from CRM exports",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the exports and serve the board API with live updates",
	RunE:  runServe,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print both bridges and the pipeline waterfall of every comparison period",
	RunE:  runReport,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive wizard writing the config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setup.RunTUI(args.config)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&args.config, "config", "c", config.DefaultPath, "path to the YAML config")
	rootCmd.AddCommand(serveCmd, reportCmd, setupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcaster := events.NewBroadcaster(0)
	board := forecast.NewBoard(source(cfg, logger), settings(cfg), broadcaster, logger)
	if err := board.Load(ctx); err != nil {
		// the board reports the failure to clients, the server still starts
		logger.Error("initial load failed", zap.Error(err))
	}

	server := web.NewServer(cfg.ListenAddr, board, broadcaster, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			logger.Info("starting server with autocert", zap.Strings("domains", cfg.TLSDomains))
			return server.StartWithAutoTLS(gctx, cfg.TLSDomains, cfg.TLSCacheDir)
		}
		logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
		return server.Start(gctx)
	})
	g.Go(func() error {
		return reloadOnHangup(gctx, board, logger)
	})
	return g.Wait()
}

// reloadOnHangup re-reads the exports whenever the process receives SIGHUP.
func reloadOnHangup(ctx context.Context, board *forecast.Board, logger *zap.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info("reloading exports")
			if err := board.Load(ctx); err != nil {
				logger.Error("reload failed", zap.Error(err))
			}
		}
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	doc, err := report.NewCollector(source(cfg, logger), settings(cfg), os.Stderr, logger).Collect(cmd.Context())
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout(), doc)
}

func load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Get(args.config)
	if err != nil {
		return config.Config{}, nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func source(cfg config.Config, logger *zap.Logger) ingest.Source {
	files := ingest.NewFileSource(ingest.Paths{
		ClosedWon: cfg.ClosedWonPath,
		Pipeline:  cfg.PipelinePath,
		Changes:   cfg.Changes,
	}, logger)
	return ingest.NewRetryingSource(files, logger)
}

func settings(cfg config.Config) forecast.Settings {
	return forecast.Settings{
		FiscalStart: cfg.FiscalQuarterStart,
		References:  bridge.References{YoY: cfg.YoYCompare, Plan: cfg.Plan},
		Sankey:      sankey.Options{NodeGap: cfg.NodeGap, MinNodeHeight: cfg.MinNodeHeight},
		Segments:    cfg.Segments,
	}
}
