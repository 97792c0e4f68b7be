// Package main provides the entry point for the aisharvest CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/database"
	"github.com/aisharvest/aisharvest/internal/log"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/report"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for aisharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aisharvest",
		Short: "Harvester for the Alabama DOC inmate search portal",
		Long: `aisharvest harvests public inmate records from the Alabama Department
of Corrections inmate search portal into a flat CSV database.

The harvest runs in two phases:
  collect   Enumerate AIS numbers for each seed search term and write
            them to a checkpoint file.
  process   Look up every collected AIS number and flatten the detail
            pages into CSV rows.

Both phases are resumable: collect rewrites the checkpoint atomically,
and process skips AIS numbers that already have a row in the output CSV.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// Postback token blobs are elided so a debug trace stays readable.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// applyConfigFile merges an on-disk YAML configuration into cfg.
//
// If the user explicitly specified a config file path, error if not found.
// If no path was specified, silently continue when no file is found in the
// default locations.
func applyConfigFile(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicitConfigPath {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	if err := file.ApplyTo(cfg); err != nil {
		return fmt.Errorf("failed to apply config file %s: %w", configPath, err)
	}
	cfg.ConfigFilePath = configPath
	return nil
}

// buildReportFlags reads the report format and destination flags shared by
// the collect and process commands.
func buildReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return err
	}

	return nil
}

// outputReport renders the run summary in the requested format.
func outputReport(cfg *config.Config, summary *model.RunSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (machine-readable summary)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(summary)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(summary)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(summary)
	return err
}

// openLedger opens the run ledger when ledger recording is enabled.
// Returns nil when cfg.SaveToDB is false.
func openLedger(cfg *config.Config) (*database.RunLedger, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	ledger, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return ledger, nil
}

// saveRunSummary records the run summary in the ledger.
// If ledger is nil, this function is a no-op.
func saveRunSummary(ctx context.Context, ledger *database.RunLedger, summary *model.RunSummary, logger *slog.Logger) error {
	if ledger == nil {
		return nil
	}

	id, err := ledger.InsertRun(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	logger.Info("run recorded in ledger", "id", id, "phase", summary.Phase.String())
	return nil
}
