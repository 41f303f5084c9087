package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"etlcli/internal/app"
	"etlcli/internal/config"
	apperrors "etlcli/internal/errors"
	"etlcli/internal/infrastructure"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("Report generation failed", apperrors.Describe(err).Attrs()...)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file for column names and KPI thresholds")
	in := fs.String("in", config.DefaultInputFile, "input workbook or CSV file")
	sheet := fs.String("sheet", config.DefaultSheetName, "sheet to read")
	out := fs.String("out", "data/report.xlsx", "report workbook")
	macro := fs.String("macro", "", "VBA module to write next to the report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
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
	defer a.Close()

	return a.Report(ctx, *in, *sheet, *out, *macro)
}
