package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/reports"
)

func runDiscover(cmd *cobra.Command, args []string) error {
	return runOnce(cmd, pipeline.Discovery{})
}

func runReview(cmd *cobra.Command, args []string) error {
	positions, err := loadPositions(positionsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	return runOnce(cmd, pipeline.Review{Positions: positions})
}

func runOnce(cmd *cobra.Command, mode pipeline.Mode) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := a.runs.Execute(ctx, mode)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("Report produced but not fully saved")
	}

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), reports.Render(result.Envelope))
	}
	if result.Path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", result.Path)
	}
	return nil
}

// loadPositions reads a JSON array of positions from a file, or from stdin when path is "-"
func loadPositions(path string, stdin io.Reader) ([]domain.Position, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open positions file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var positions []domain.Position
	if err := json.NewDecoder(r).Decode(&positions); err != nil {
		return nil, fmt.Errorf("failed to parse positions %s: %w", path, err)
	}
	return positions, nil
}
