package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/analytics"
	"github.com/aristath/commodities/internal/clients/skills"
	"github.com/aristath/commodities/internal/config"
	"github.com/aristath/commodities/internal/database"
	"github.com/aristath/commodities/internal/metrics"
	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/reports"
	"github.com/aristath/commodities/internal/services"
)

// app holds everything a command needs, wired from configuration
type app struct {
	db      *database.DB
	archive *reports.Archive
	metrics *metrics.Collector
	runs    *services.RunService
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	db, err := database.New(database.Config{Path: cfg.ArchivePath(), Profile: database.ProfileArchive, Name: "reports"})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	runner := skills.NewRunner(skills.Config{
		Dir:         cfg.Skills.Dir,
		Interpreter: cfg.Skills.Interpreter,
		Timeout:     cfg.Skills.Timeout,
	}, nil, log)
	futures := skills.NewFutures(runner)

	collab := pipeline.Collaborators{
		Catalog:  futures,
		History:  futures,
		Analyzer: analytics.NewTechnical(analytics.DefaultIndicatorParams(), log),
		Chains:   futures,
		Pricer:   analytics.NewPricer(),
		News:     skills.NewScraper(runner),
	}
	if cfg.Pipeline.AlertQuery != "" {
		collab.Alerts = skills.NewMailbox(runner, cfg.Pipeline.AlertQuery)
	}

	collector := metrics.New()
	orchestrator, err := pipeline.New(cfg.Pipeline, collab, log, pipeline.WithReporter(collector))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	archive := reports.NewArchive(db, log)

	return &app{
		db:      db,
		archive: archive,
		metrics: collector,
		runs:    services.NewRunService(orchestrator, archive, collector, cfg.Pipeline.OutputDir, log),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
