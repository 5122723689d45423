/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/skysched/internal/config"
	"github.com/friendsincode/skysched/internal/db"
	"github.com/friendsincode/skysched/internal/events"
	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/logging"
	"github.com/friendsincode/skysched/internal/models"
	"github.com/friendsincode/skysched/internal/server"
	"github.com/friendsincode/skysched/internal/sim"
	"github.com/friendsincode/skysched/internal/solver"
	"github.com/friendsincode/skysched/internal/store"
	"github.com/friendsincode/skysched/internal/telemetry"
	"github.com/friendsincode/skysched/internal/workload"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	workloadPath string
	saveRun      bool
)

var rootCmd = &cobra.Command{
	Use:   "skysched",
	Short: "SkySched - Two-site observation scheduling simulator",
	Long:  "SkySched simulates priority-driven observation scheduling across two sites, solving each timeslot as an exact binary program.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SkySched API server",
	Long:  "Start the HTTP API and metrics servers for launching and querying simulation runs",
	RunE:  runServe,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulation from a workload file",
	Long:  "Load a YAML workload definition, simulate every timeslot, and print the resulting timetable",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&workloadPath, "workload", "w", "", "path to YAML workload file (required)")
	simulateCmd.Flags().BoolVar(&saveRun, "save", false, "persist the run to the configured database")
	_ = simulateCmd.MarkFlagRequired("workload")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("SkySched starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "skysched",
		ServiceVersion: "0.0.1-alpha",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := srv.HTTPServer()
	metricsServer := srv.MetricsServer()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	go func() {
		logger.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := metricsServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("metrics shutdown failed")
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("SkySched stopped")
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	spec, err := workload.Load(workloadPath)
	if err != nil {
		return err
	}

	simCfg := spec.SimConfig()
	led := ledger.New(simCfg.Timeslots, logger)
	if err := spec.Populate(led); err != nil {
		return err
	}

	bus := events.NewBus()
	runner, err := sim.NewRunner(simCfg, led, solver.NewBranchBound(logger), bus, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	timetable, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	printTimetable(timetable)

	if saveRun {
		database, err := db.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() {
			if err := db.Close(database); err != nil {
				logger.Error().Err(err).Msg("close database failed")
			}
		}()

		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		st := store.New(database, logger)
		run, err := st.SaveRun(ctx, simCfg, models.RunSourceCLI, timetable)
		if err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		fmt.Printf("run saved: %s\n", run.ID)
	}

	return nil
}

func printTimetable(tt *sim.Timetable) {
	for _, slot := range tt.Slots {
		if slot.Infeasible {
			fmt.Printf("slot %d: infeasible, nothing scheduled\n", slot.Slot)
			continue
		}
		if len(slot.Assignments) == 0 {
			fmt.Printf("slot %d: idle\n", slot.Slot)
			continue
		}
		for _, a := range slot.Assignments {
			fmt.Printf("slot %d: job %d observes at %s\n", slot.Slot, a.JobID, a.Site)
		}
	}

	completed := 0
	for _, j := range tt.Jobs {
		if j.Done {
			completed++
		}
	}
	fmt.Printf("%d/%d jobs completed, %d infeasible slots, took %s\n",
		completed, len(tt.Jobs), tt.InfeasibleSlots, tt.Finished.Sub(tt.Started).Round(time.Millisecond))
}
