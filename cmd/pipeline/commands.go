package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/commodities/internal/config"
	"github.com/aristath/commodities/pkg/logger"
)

// --- Global flags ---
var (
	configPath string
	logLevel   string
	logPretty  bool
	outputDir  string

	positionsPath string
	quiet         bool

	cfg *config.Config
	log zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           "pipeline",
		Short:         "Commodity futures options screening and position review",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.LogLevel = logLevel
			}
			if cmd.Flags().Changed("pretty") {
				loaded.LogPretty = logPretty
			}
			if cmd.Flags().Changed("output-dir") {
				loaded.Pipeline.OutputDir = outputDir
			}
			cfg = loaded

			log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			logger.SetGlobalLogger(log)
			return nil
		},
	}

	discoverCmd = &cobra.Command{
		Use:   "discover",
		Short: "Screen the universe for movers and suggest option strategies",
		Args:  cobra.NoArgs,
		RunE:  runDiscover, // Defined in cmd_run.go
	}

	reviewCmd = &cobra.Command{
		Use:   "review",
		Short: "Score held option positions and recommend HOLD, ADJUST or CLOSE",
		Args:  cobra.NoArgs,
		RunE:  runReview, // Defined in cmd_run.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for runs, reports and metrics",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	scheduleCmd = &cobra.Command{
		Use:   "schedule",
		Short: "Run discovery on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE:  runSchedule, // Defined in cmd_serve.go
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	pf.BoolVar(&logPretty, "pretty", false, "human-readable console logs")
	pf.StringVar(&outputDir, "output-dir", "", "directory for JSON reports (overrides config)")

	reviewCmd.Flags().StringVarP(&positionsPath, "positions", "p", "", "JSON file with the positions to review (- for stdin)")
	_ = reviewCmd.MarkFlagRequired("positions")

	for _, c := range []*cobra.Command{discoverCmd, reviewCmd} {
		c.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the terminal summary")
	}

	rootCmd.AddCommand(discoverCmd, reviewCmd, serveCmd, scheduleCmd)
}
