// Package report prints per-rule status lines and the end of run summary.
package report

import (
	"fmt"
	"io"

	"csvsync/internal/log"
	"csvsync/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes successes and skips to out and sends failures to the log.
// Colors are only emitted when out is a terminal.
type Printer struct {
	out     io.Writer
	success lipgloss.Style
	notice  lipgloss.Style
	summary lipgloss.Style
	counts  map[types.Outcome]int
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		success: r.NewStyle().Foreground(lipgloss.Color("114")),
		notice:  r.NewStyle().Foreground(lipgloss.Color("220")),
		summary: r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		counts:  make(map[types.Outcome]int),
	}
}

// Report prints one result.
func (p *Printer) Report(result types.CopyResult) {
	p.counts[result.Outcome]++

	switch result.Outcome {
	case types.Copied:
		p.line(p.success, label(result.DryRun, "Would copy", "Copied"), result.DestinationPath)
	case types.Overwritten:
		p.line(p.success, label(result.DryRun, "Would overwrite", "Overwritten"), result.DestinationPath)
	case types.SkippedOverwriteDenied:
		p.line(p.notice, "Skipped (overwrite denied)", result.DestinationPath)
	case types.SkippedSameFile:
		p.line(p.notice, "Skipped (same file)", result.DestinationPath)
	default:
		entry := log.LogWithFields(log.F("line", result.Rule.Line))
		if result.Error != nil {
			entry.Error(result.Error.Error())
		} else {
			entry.Errorf("Failed to sync file: %s", result.DestinationPath)
		}
	}
}

// Count returns how many reported results had outcome o.
func (p *Printer) Count(o types.Outcome) int {
	return p.counts[o]
}

// Summary prints totals for the run. dropped is the number of manifest rows
// that never became rules.
func (p *Printer) Summary(dropped int) {
	failed := p.counts[types.MissingSource] + p.counts[types.Failed]
	text := fmt.Sprintf("Summary: %d copied, %d overwritten, %d skipped, %d failed, %d rows dropped",
		p.counts[types.Copied], p.counts[types.Overwritten], p.counts[types.SkippedOverwriteDenied]+p.counts[types.SkippedSameFile], failed, dropped)
	fmt.Fprintln(p.out, p.summary.Render(text))
}

// Reset clears the counters between runs.
func (p *Printer) Reset() {
	p.counts = make(map[types.Outcome]int)
}

func (p *Printer) line(style lipgloss.Style, status, path string) {
	fmt.Fprintf(p.out, "%s %s\n", style.Render(status+":"), path)
}

func label(dryRun bool, dry, done string) string {
	if dryRun {
		return dry
	}
	return done
}
