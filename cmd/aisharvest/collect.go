package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisharvest/aisharvest/internal/checkpoint"
	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/crawler"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Enumerate AIS numbers into a checkpoint file",
		Long: `Collect walks the inmate search results for every seed term and records
each AIS number it finds.

One search is posted per term, and the results grid is paged with the
portal's own next button until it is exhausted. The deduplicated AIS
numbers from all terms are written to a checkpoint file, sorted so that
diffs between runs stay readable.

A term that stops yielding new AIS numbers while pages keep coming back
is cut off and reported as stalled. A term whose search fails outright
is reported as failed but does not stop the other terms.

Examples:
  # Sweep the default a-z terms
  aisharvest collect

  # Sweep specific surname prefixes with a bigger pool
  aisharvest collect --terms sm,jo,wi --workers 3

  # Write the checkpoint somewhere else and keep a Markdown report
  aisharvest collect -o /data/ais.txt --markdown --report collect.md`,
		Args: cobra.NoArgs,
		RunE: runCollectCmd,
	}

	// Search behavior flags
	cmd.Flags().StringSlice("terms", nil,
		"Comma-separated seed search terms (default: one term per letter, a-z)")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of concurrent term searches (default: one per term, capped at 26)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each portal request")
	cmd.Flags().String("search-url", config.DefaultSearchURL,
		"Inmate search page URL")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultCheckpointFile,
		"Checkpoint file path for the collected AIS numbers")

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

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCollectConfig(cmd)
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

	return runCollect(ctx, cfg, logger)
}

// buildCollectConfig creates a Config from collect command flags.
func buildCollectConfig(cmd *cobra.Command) (*config.Config, error) {
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
	terms, err := cmd.Flags().GetStringSlice("terms")
	if err != nil {
		return nil, err
	}
	if len(terms) > 0 {
		cfg.Terms = terms
	}

	if cmd.Flags().Changed("workers") {
		cfg.CollectWorkers, err = cmd.Flags().GetInt("workers")
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

	if cmd.Flags().Changed("output") {
		cfg.CheckpointFile, err = cmd.Flags().GetString("output")
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

// runCollect executes phase 1: enumerate AIS numbers for every term.
func runCollect(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Terms) == 0 {
		return config.ErrNoSearchTerms
	}

	logger.Info("starting collection",
		"terms", len(cfg.Terms),
		"concurrency", cfg.CollectConcurrency(),
		"checkpoint", cfg.CheckpointFile,
	)

	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	enumerator := crawler.NewEnumerator(cfg, crawler.WithEnumeratorLogger(logger))

	fmt.Printf("Collecting AIS numbers for %d search terms (concurrency: %d)...\n\n",
		len(cfg.Terms), cfg.CollectConcurrency())

	startTime := time.Now()

	// The collect callback runs on this goroutine, so plain variables are
	// safe to update without locking.
	found := make(map[string]struct{})
	failed := []string{}
	done := 0

	batch := pipeline.NewBatch[model.TermResult](
		pipeline.WithConcurrency(cfg.CollectConcurrency()),
		pipeline.WithBatchLogger(logger),
	)
	batchErr := batch.Run(ctx, cfg.Terms,
		func(ctx context.Context, term string) model.TermResult {
			return enumerator.CollectTerm(ctx, term)
		},
		func(term string, result model.TermResult) {
			done++
			for id := range result.Found {
				found[id] = struct{}{}
			}

			if result.Terminal == model.TerminalFailed {
				failed = append(failed, term)
				fmt.Fprintf(os.Stderr, "[%d/%d] term %q failed: %v\n",
					done, len(cfg.Terms), term, result.Err)
				return
			}

			fmt.Printf("[%d/%d] term %q: %d AIS numbers across %d pages (%s)\n",
				done, len(cfg.Terms), term, result.Count(), result.Pages, result.Terminal)
		})
	if batchErr != nil {
		// A canceled sweep covers an unknown part of the alphabet, so the
		// previous checkpoint is left untouched.
		return fmt.Errorf("collection aborted: %w", batchErr)
	}

	elapsed := time.Since(startTime)

	summary := &model.RunSummary{
		Phase:       model.PhaseCollect,
		StartedAt:   startTime,
		Duration:    elapsed,
		Units:       len(cfg.Terms),
		Succeeded:   len(cfg.Terms) - len(failed),
		Failed:      len(failed),
		FailedUnits: failed,
		Items:       len(found),
	}

	allFailed := len(cfg.Terms) > 0 && len(failed) == len(cfg.Terms)
	if !allFailed {
		ids := make([]string, 0, len(found))
		for id := range found {
			ids = append(ids, id)
		}
		if err := checkpoint.WriteList(cfg.CheckpointFile, ids); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
		summary.OutputPath = cfg.CheckpointFile

		fmt.Printf("\nCollected %d unique AIS numbers in %s\n\n",
			len(ids), elapsed.Round(time.Millisecond))
	}

	if err := outputReport(cfg, summary); err != nil {
		logger.Error("report failed", "error", err)
	}
	if err := saveRunSummary(ctx, ledger, summary, logger); err != nil {
		logger.Error("failed to save run summary", "error", err)
	}

	if allFailed {
		// Nothing was enumerated, so overwriting the checkpoint would only
		// destroy the last good run.
		return fmt.Errorf("all %d search terms failed; checkpoint not written", len(cfg.Terms))
	}
	return nil
}
