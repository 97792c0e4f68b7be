package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/database"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is how many runs the list shows without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command reads the run ledger written by collect and process.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded harvest runs",
		Long: `History lists the harvest runs recorded in the run ledger.

Every collect and process run is recorded with its phase, timing, unit
counts, and output path. The ledger lives in the XDG data directory, so
history works from any directory on the same machine.

Examples:
  # List the 20 most recent runs
  aisharvest history

  # List only process runs
  aisharvest history --phase process

  # Inspect the most recent collect run in detail
  aisharvest history --last --phase collect

  # Inspect a specific run as JSON
  aisharvest history --id 7 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	// Selection flags
	cmd.Flags().StringP("phase", "p", "",
		"Filter by phase (collect or process)")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().BoolP("last", "l", false,
		"Show the most recent run in detail")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the run with this ID in detail (use the list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Validate flags before opening the database.
	// This prevents database lock issues when validation fails.
	phaseStr, err := cmd.Flags().GetString("phase")
	if err != nil {
		return err
	}
	var phase model.Phase
	if phaseStr != "" {
		phase = model.ParsePhase(phaseStr)
		if phase == model.PhaseUnknown {
			return fmt.Errorf("invalid phase %q (valid values: collect, process)", phaseStr)
		}
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	last, err := cmd.Flags().GetBool("last")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}

	if last && runID > 0 {
		return errors.New("--last and --id are mutually exclusive")
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Use XDG data directory for the ledger
	ledger, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer ledger.Close()

	ctx := context.Background()

	switch {
	case runID > 0:
		return showRunByID(ctx, ledger, runID, jsonOutput, markdownOutput)
	case last:
		return showLatestRun(ctx, ledger, phase, jsonOutput, markdownOutput)
	}
	return listRunHistory(ctx, ledger, phase, limit, jsonOutput, markdownOutput)
}

// showRunByID renders a single run selected by ledger ID.
func showRunByID(ctx context.Context, ledger *database.RunLedger, id int64, jsonOutput, markdownOutput bool) error {
	run, err := ledger.GetRunByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", id, err)
	}
	if run == nil {
		return fmt.Errorf("run with ID %d not found (use 'aisharvest history' to see available IDs)", id)
	}
	return outputRunDetail(run, jsonOutput, markdownOutput)
}

// showLatestRun renders the most recent run, optionally per phase.
func showLatestRun(ctx context.Context, ledger *database.RunLedger, phase model.Phase, jsonOutput, markdownOutput bool) error {
	run, err := ledger.LatestRun(ctx, phase)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if run == nil {
		if phase != model.PhaseUnknown {
			return fmt.Errorf("no %s runs recorded yet", phase)
		}
		return errors.New("no runs recorded yet")
	}
	return outputRunDetail(run, jsonOutput, markdownOutput)
}

// outputRunDetail renders one ledger entry in the requested format.
func outputRunDetail(run *database.RunRecord, jsonOutput, markdownOutput bool) error {
	// JSON detail keeps the ledger ID alongside the summary fields.
	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(run)
	}

	if markdownOutput {
		writer := report.NewMarkdownWriter(os.Stdout)
		_, err := writer.Write(&run.RunSummary)
		return err
	}

	fmt.Printf("Run ID: %d\n", run.ID)
	writer := report.NewSimpleWriter(os.Stdout, report.WithShowEmpty(true))
	_, err := writer.Write(&run.RunSummary)
	return err
}

// listRunHistory renders the run list in the requested format.
func listRunHistory(ctx context.Context, ledger *database.RunLedger, phase model.Phase, limit int, jsonOutput, markdownOutput bool) error {
	runs, err := ledger.ListRuns(ctx, phase, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}
	if markdownOutput {
		return outputRunListMarkdown(runs)
	}
	return outputRunListText(runs)
}

// outputRunListText renders the run list as an aligned text table.
func outputRunListText(runs []database.RunRecord) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println("\nUse 'aisharvest collect' to start a harvest.")
		return nil
	}

	fmt.Printf("Recorded runs (%d):\n\n", len(runs))
	fmt.Printf("  %-4s  %-8s  %-19s  %-10s  %-11s  %-8s  %s\n",
		"ID", "Phase", "Started", "Duration", "OK/Failed", "Items", "Output")
	fmt.Println("  " + strings.Repeat("-", 78))

	for _, run := range runs {
		fmt.Printf("  %-4d  %-8s  %-19s  %-10s  %-11s  %-8d  %s\n",
			run.ID,
			run.Phase,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Duration.Round(time.Second),
			fmt.Sprintf("%d/%d", run.Succeeded, run.Failed),
			run.Items,
			run.OutputPath,
		)
	}

	fmt.Println("\nUse 'aisharvest history --id <id>' to inspect a run.")
	fmt.Println("Use 'aisharvest history --last' to inspect the most recent run.")

	return nil
}

// outputRunListMarkdown renders the run list as a Markdown table.
func outputRunListMarkdown(runs []database.RunRecord) error {
	fmt.Println("# Harvest Run History")
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Println("| ID | Phase | Started | Duration | Succeeded | Failed | Items | Output |")
	fmt.Println("|---:|-------|---------|---------:|----------:|-------:|------:|--------|")
	for _, run := range runs {
		output := "-"
		if run.OutputPath != "" {
			output = "`" + run.OutputPath + "`"
		}
		fmt.Printf("| %d | %s | %s | %s | %d | %d | %d | %s |\n",
			run.ID,
			run.Phase,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Duration.Round(time.Second),
			run.Succeeded,
			run.Failed,
			run.Items,
			output,
		)
	}

	return nil
}
