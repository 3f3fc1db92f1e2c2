package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/commodities/internal/scheduler"
	"github.com/aristath/commodities/internal/server"
)

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		Runs:        a.runs,
		Reports:     a.archive,
		Metrics:     a.metrics.Handler(),
		HealthCheck: a.db.HealthCheck,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Schedule, scheduler.NewDiscoveryJob(a.runs, log)); err != nil {
		return err
	}
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
