package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aisharvest/aisharvest/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeUnitSummary(&sb, summary)
	w.writeFailedUnits(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        AISHARVEST RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Phase:      %s\n", summary.Phase.String()))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", summary.Duration.Round(time.Millisecond)))

	if summary.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("Output:     %s\n", summary.OutputPath))
	}

	if summary.Resumed {
		sb.WriteString("Mode:       resumed (appended to previous output)\n")
	} else {
		sb.WriteString("Mode:       fresh run\n")
	}

	sb.WriteString("\n")
}

// writeUnitSummary writes the per-unit success and failure counts.
func (w *SimpleWriter) writeUnitSummary(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("UNIT SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	noun := unitNoun(summary.Phase)
	sb.WriteString(fmt.Sprintf("  TOTAL:      %d %s\n", summary.Units, noun))
	sb.WriteString(fmt.Sprintf("  SUCCEEDED:  %d\n", summary.Succeeded))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", summary.Failed))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  %s: %d\n", itemsLabel(summary.Phase), summary.Items))

	if w.verbose && summary.Units > 0 {
		average := summary.Duration / time.Duration(summary.Units)
		sb.WriteString(fmt.Sprintf("  Average:    %s per unit\n", average.Round(time.Millisecond)))
	}

	sb.WriteString("\n")
}

// writeFailedUnits lists the units that errored so they can be retried.
func (w *SimpleWriter) writeFailedUnits(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.FailedUnits) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED UNITS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.FailedUnits) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, unit := range summary.FailedUnits {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", unit))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by aisharvest\n")
	sb.WriteString("https://github.com/aisharvest/aisharvest\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// unitNoun names the unit of work for a phase.
func unitNoun(phase model.Phase) string {
	switch phase {
	case model.PhaseCollect:
		return "search terms"
	case model.PhaseProcess:
		return "identifiers"
	default:
		return "units"
	}
}

// itemsLabel names the items counter for a phase.
func itemsLabel(phase model.Phase) string {
	switch phase {
	case model.PhaseCollect:
		return "Identifiers collected"
	case model.PhaseProcess:
		return "Records written"
	default:
		return "Items"
	}
}
