package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/mergeguard/mergeguard/internal/policy"
	"github.com/mergeguard/mergeguard/internal/types"
)

// PrintOptions controls finding rendering.
type PrintOptions struct {
	NoColor  bool
	Duration time.Duration
	Filename string
}

// PrintFindings renders findings as a bordered table sorted by
// severity then line, with a summary footer.
func PrintFindings(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No violations found")
		printFooter(w, findings, opts)
		return
	}

	sorted := make([]types.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity.Rank() != sorted[j].Severity.Rank() {
			return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
		}
		return sorted[i].Line < sorted[j].Line
	})

	table := tablewriter.NewWriter(w)
	table.Header("SEVERITY", "LINE", "KIND", "SOURCE", "MESSAGE")
	for _, f := range sorted {
		sev := string(f.Severity)
		if !opts.NoColor {
			sev = colorSeverity(f.Severity)
		}
		line := "-"
		if f.Line > 0 {
			line = fmt.Sprintf("%d", f.Line)
		}
		table.Append([]string{sev, line, f.Kind, f.Source, truncate(f.Message, messageWidth())})
	}
	_ = table.Render()
	printFooter(w, findings, opts)
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	counts := policy.CountBySeverity(findings)
	fmt.Fprintf(w, "\nFindings: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d)\n",
		len(findings),
		counts[types.SevCritical], counts[types.SevHigh], counts[types.SevMedium],
		counts[types.SevLow], counts[types.SevInfo])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Analysis duration: %.2fs\n", opts.Duration.Seconds())
	}
}

// PrintDecision renders the gate decision summary.
func PrintDecision(w io.Writer, d policy.Decision, noColor bool) {
	status := strings.ToUpper(string(d.Status))
	if !noColor {
		switch d.Status {
		case policy.StatusFail:
			status = "\x1b[31m" + status + "\x1b[0m"
		case policy.StatusWarn:
			status = "\x1b[33m" + status + "\x1b[0m"
		default:
			status = "\x1b[32m" + status + "\x1b[0m"
		}
	}
	fmt.Fprintf(w, "Gate: %s\n", status)
	fmt.Fprint(w, d.Summary())
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "\x1b[35mcritical\x1b[0m" // magenta
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMedium:
		return "\x1b[33mmedium\x1b[0m" // yellow
	case types.SevLow:
		return "\x1b[36mlow\x1b[0m" // cyan
	default:
		return string(s)
	}
}

// messageWidth leaves room for the fixed columns on narrow terminals.
func messageWidth() int {
	width := 120
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 60 {
			width = w
		}
	}
	return width - 50
}

func truncate(s string, max int) string {
	if max < 10 {
		max = 10
	}
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
