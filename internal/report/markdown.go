package report

import (
	"io"
	"strconv"
	"time"

	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeUnitSummary(md, summary)
	w.writeFailedUnits(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("AIS Harvest Report")
	md.PlainText("")

	output := summary.OutputPath
	if output == "" {
		output = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Phase", summary.Phase.String()},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
			{"Output", "`" + output + "`"},
			{"Mode", w.getModeText(summary)},
		},
	})
	md.PlainText("")
}

// getModeText returns the run mode text based on the resumed flag.
func (w *MarkdownWriter) getModeText(summary *model.RunSummary) string {
	if summary.Resumed {
		return "🔁 Resumed (appended to previous output)"
	}
	return "✨ Fresh run"
}

// writeUnitSummary writes the per-unit success and failure counts.
func (w *MarkdownWriter) writeUnitSummary(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Unit Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total " + unitNoun(summary.Phase), strconv.Itoa(summary.Units)},
			{"🟢 Succeeded", strconv.Itoa(summary.Succeeded)},
			{"🔴 Failed", strconv.Itoa(summary.Failed)},
			{"**" + itemsLabel(summary.Phase) + "**", "**" + strconv.Itoa(summary.Items) + "**"},
		},
	})
	md.PlainText("")

	if summary.Units > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the unit outcome split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Unit Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Succeeded > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(summary.Succeeded))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the failure count.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Units > 0 && summary.Failed == summary.Units:
		md.Cautionf(
			"Every unit failed (%d of %d). Check connectivity to the search portal before retrying.",
			summary.Failed, summary.Units,
		)
	case summary.Failed > 0:
		md.Warningf(
			"%d of %d units failed. Re-running the phase retries only the missing work.",
			summary.Failed, summary.Units,
		)
	default:
		md.Tip("All units completed successfully.")
	}
	md.PlainText("")
}

// writeFailedUnits lists the units that errored so they can be retried.
func (w *MarkdownWriter) writeFailedUnits(md *markdown.Markdown, summary *model.RunSummary) {
	if len(summary.FailedUnits) == 0 {
		return
	}

	md.H2("Failed Units")
	md.PlainText("")
	md.BulletList(summary.FailedUnits...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [aisharvest](https://github.com/aisharvest/aisharvest)*")
}
