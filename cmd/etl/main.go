package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"etlcli/internal/app"
	"etlcli/internal/config"
	apperrors "etlcli/internal/errors"
	"etlcli/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("ETL run failed", apperrors.Describe(err).Attrs()...)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file (defaults to etl.yaml or configs/etl.yaml when present)")
	input := fs.String("in", "", "input workbook or CSV file, overrides input_file")
	output := fs.String("out", "", "processed workbook, overrides output_file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *input != "" {
		cfg.InputFile = *input
	}
	if *output != "" {
		cfg.OutputFile = *output
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Starting ETL run",
		slog.String("input_file", cfg.InputFile),
		slog.String("output_file", cfg.OutputFile),
		slog.Bool("sqlite", cfg.SQLite.Enabled()))

	report, err := a.RunETL(ctx)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "ETL run finished",
		slog.String("run_id", report.RunID),
		slog.Int("input_rows", report.InputRows),
		slog.Int("output_rows", report.OutputRows),
		slog.Int("alerts", len(report.Alerts)),
		slog.Any("outputs", report.Outputs))
	return nil
}
