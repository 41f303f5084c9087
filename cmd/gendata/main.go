package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"etlcli/internal/app"
	"etlcli/internal/config"
	apperrors "etlcli/internal/errors"
	"etlcli/internal/generator"
	"etlcli/internal/infrastructure"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("Data generation failed", apperrors.Describe(err).Attrs()...)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	defaults := generator.DefaultOptions()
	fs := flag.NewFlagSet("gendata", flag.ContinueOnError)
	rows := fs.Int("rows", defaults.Rows, "number of transactions")
	seed := fs.Uint64("seed", defaults.Seed, "random seed")
	days := fs.Int("days", defaults.Days, "span of dates in days before -end")
	end := fs.String("end", "", "latest date as YYYY-MM-DD (defaults to today)")
	out := fs.String("out", config.DefaultInputFile, "output workbook")
	level := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rows < 0 {
		return fmt.Errorf("rows must not be negative, got %d", *rows)
	}

	opts := generator.Options{Rows: *rows, Seed: *seed, Days: *days, End: defaults.End}
	if *end != "" {
		t, err := time.Parse("2006-01-02", *end)
		if err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
		opts.End = t
	}

	cfg := config.Default()
	cfg.Telemetry.Metrics = false
	logger := infrastructure.NewLogger(os.Stdout, *level)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Generate(ctx, opts, *out)
}
