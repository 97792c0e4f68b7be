package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisharvest/aisharvest/internal/checkpoint"
	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/inmate"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Resolve checkpointed AIS numbers into a CSV database",
		Long: `Process looks up every AIS number in the checkpoint file and flattens
the inmate detail pages into rows of a CSV database.

Each AIS number costs three portal round trips: load the search page,
post the AIS search, then follow the detail link postback. Lookups that
fail still produce a row whose Status column records what went wrong,
so one bad AIS number never aborts the run.

The output CSV doubles as the progress marker. AIS numbers that already
have a row are skipped, so an interrupted run picks up where it left
off when re-run with the same output file.

Examples:
  # Process the default checkpoint into the default CSV
  aisharvest process

  # Resume into an existing CSV with a smaller pool
  aisharvest process -o /data/inmates.csv --workers 10

  # Keep a JSON run report next to the data
  aisharvest process --json --report process.json`,
		Args: cobra.NoArgs,
		RunE: runProcessCmd,
	}

	// Input/output flags
	cmd.Flags().String("checkpoint", config.DefaultCheckpointFile,
		"Checkpoint file with the AIS numbers to process")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"CSV output file path")

	// Lookup behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultProcessWorkers,
		"Number of concurrent AIS lookups")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each portal request")
	cmd.Flags().String("search-url", config.DefaultSearchURL,
		"Inmate search page URL")
	cmd.Flags().String("details-url", config.DefaultDetailsURL,
		"Inmate details page URL")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .aisharvest.yaml in current or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run report (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write the run report to specified file path (creates directories if needed)")

	return cmd
}

// runProcessCmd executes the process command.
func runProcessCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildProcessConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runProcess(ctx, cfg, logger)
}

// buildProcessConfig creates a Config from process command flags.
func buildProcessConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	// Flags override file values, so they are applied after the file.
	if cmd.Flags().Changed("checkpoint") {
		cfg.CheckpointFile, err = cmd.Flags().GetString("checkpoint")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("output") {
		cfg.OutputFile, err = cmd.Flags().GetString("output")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("workers") {
		cfg.ProcessWorkers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("search-url") {
		cfg.SearchURL, err = cmd.Flags().GetString("search-url")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("details-url") {
		cfg.DetailsURL, err = cmd.Flags().GetString("details-url")
		if err != nil {
			return nil, err
		}
	}

	if err := buildReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	// Always save to the run ledger using the XDG data directory
	cfg.SaveToDB = true
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runProcess executes phase 2: resolve every checkpointed AIS number.
func runProcess(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ids, err := checkpoint.ReadList(cfg.CheckpointFile)
	if err != nil {
		if errors.Is(err, checkpoint.ErrListNotFound) {
			return fmt.Errorf("%w (run 'aisharvest collect' first)", err)
		}
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("checkpoint %s contains no AIS numbers", cfg.CheckpointFile)
	}

	// AIS numbers that already have a CSV row are done, including the ones
	// whose row records a failure.
	processed, resuming := checkpoint.LoadProcessed(cfg.OutputFile, model.ColumnAIS)
	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := processed[id]; !ok {
			remaining = append(remaining, id)
		}
	}

	logger.Info("starting processing",
		"checkpointed", len(ids),
		"remaining", len(remaining),
		"resuming", resuming,
		"concurrency", cfg.ProcessConcurrency(),
		"output", cfg.OutputFile,
	)

	if resuming {
		fmt.Printf("Resuming: %d of %d AIS numbers already in %s\n",
			len(ids)-len(remaining), len(ids), cfg.OutputFile)
	}
	if len(remaining) == 0 {
		fmt.Println("Nothing to do: every checkpointed AIS number is already processed.")
		return nil
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	writer, err := checkpoint.NewTableWriter(cfg.OutputFile, resuming)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	fetcher := inmate.NewFetcher(cfg, inmate.WithFetcherLogger(logger))

	fmt.Printf("Processing %d AIS numbers (concurrency: %d)...\n",
		len(remaining), cfg.ProcessConcurrency())

	startTime := time.Now()

	// Stops the worker pool as soon as the output file stops accepting
	// rows; losing the disk is not survivable the way a bad lookup is.
	writeCtx, cancelWrites := context.WithCancel(ctx)
	defer cancelWrites()

	// The collect callback runs on this goroutine, so plain variables are
	// safe to update without locking.
	var writeErr error
	failed := []string{}
	written := 0
	done := 0

	batch := pipeline.NewBatch[[]model.Record](
		pipeline.WithConcurrency(cfg.ProcessConcurrency()),
		pipeline.WithBatchLogger(logger),
	)
	batchErr := batch.Run(writeCtx, remaining,
		func(ctx context.Context, ais string) []model.Record {
			return fetcher.Process(ctx, ais)
		},
		func(ais string, records []model.Record) {
			done++
			if writeErr != nil {
				return
			}

			for _, record := range records {
				if record.IsError() {
					failed = append(failed, ais)
					break
				}
			}

			if err := writer.Append(records); err != nil {
				writeErr = err
				cancelWrites()
				return
			}
			written += len(records)

			printProcessProgress(done, len(remaining), startTime)
		})
	fmt.Println()

	closeErr := writer.Close()

	// The write error caused the cancellation, so it is reported instead
	// of the context error it triggered.
	if writeErr != nil {
		return fmt.Errorf("failed to write output: %w", writeErr)
	}
	if batchErr != nil {
		return fmt.Errorf("processing aborted: %w", batchErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to finalize output: %w", closeErr)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Processed %d AIS numbers (%d new rows) in %s\n\n",
		len(remaining), written, elapsed.Round(time.Millisecond))

	summary := &model.RunSummary{
		Phase:       model.PhaseProcess,
		StartedAt:   startTime,
		Duration:    elapsed,
		Units:       len(remaining),
		Succeeded:   len(remaining) - len(failed),
		Failed:      len(failed),
		FailedUnits: failed,
		Items:       written,
		OutputPath:  cfg.OutputFile,
		Resumed:     resuming,
	}

	if err := outputReport(cfg, summary); err != nil {
		logger.Error("report failed", "error", err)
	}
	if err := saveRunSummary(ctx, ledger, summary, logger); err != nil {
		logger.Error("failed to save run summary", "error", err)
	}

	return nil
}

// printProcessProgress rewrites the in-place progress line.
func printProcessProgress(done, total int, startTime time.Time) {
	elapsed := time.Since(startTime)
	if elapsed <= 0 {
		return
	}

	rate := float64(done) / elapsed.Seconds()
	eta := "unknown"
	if rate > 0 {
		left := time.Duration(float64(total-done) / rate * float64(time.Second))
		eta = left.Round(time.Second).String()
	}

	fmt.Printf("\rProcessed %d/%d (%.1f/sec, ETA %s)   ", done, total, rate, eta)
}
