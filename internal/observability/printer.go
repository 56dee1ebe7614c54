// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/duartefn/wikiextract/internal/pipeline"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted output for run summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs a human-readable summary of a finished run.
func (p *Printer) PrintRunSummary(stats *pipeline.Stats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run ID:   %s\n", stats.RunID))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Pages seen:              %d\n", stats.PagesSeen))
	sb.WriteString(fmt.Sprintf("Pages kept:              %d\n", stats.PagesKept))
	sb.WriteString(fmt.Sprintf("Non-main skipped:        %d\n", stats.NonMainSkipped))
	sb.WriteString(fmt.Sprintf("Redirects skipped:       %d\n", stats.RedirectsSkipped))
	sb.WriteString(fmt.Sprintf("Disambiguation skipped:  %d\n", stats.DisambiguationSkipped))
	sb.WriteString(fmt.Sprintf("Empty texts skipped:     %d\n", stats.EmptySkipped))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Records written:         %d\n", stats.Records))
	sb.WriteString(fmt.Sprintf("Shards flushed:          %d", stats.Shards))

	p.printBox("Extraction Summary", sb.String())
}
