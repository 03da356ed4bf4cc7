package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/dealsweep/internal/cli"
	"horse.fit/dealsweep/internal/dedup"
	"horse.fit/dealsweep/internal/logging"
)

func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	strategy := fs.String("strategy", string(dedup.WindowRecency), "Window strategy: recency or publication-date")
	days := fs.Int("days", 7, "Window size in days")
	date := fs.String("date", "", "Anchor date in YYYY-MM-DD for publication-date windows")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "preview does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	window, err := parseWindowFlags(*strategy, *days, *date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel, cfg, pool, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	orchestrator, store, err := buildOrchestrator(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build cleanup engine: %v\n", err)
		return 1
	}

	report, err := orchestrator.PreviewDuplicates(ctx, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preview failed: %v\n", err)
		return 1
	}

	if err := store.RecordRun(ctx, report); err != nil {
		logger.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to record run")
	}

	if err := printRunReport(report, outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		return 1
	}
	return 0
}
