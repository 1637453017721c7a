package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hermit-shells/hermit/internal/rules"
	"github.com/hermit-shells/hermit/internal/types"
	"github.com/olekukonko/tablewriter"
)

// PrintOptions controls colour and the statistics shown under the summary.
type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	SkippedLarge int
}

var (
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	medStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

const maxMatchWidth = 60

// PrintSummary renders findings as a table followed by a footer with
// per-severity counts and scan statistics. Findings keep scan order.
func PrintSummary(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No takeover patterns found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Severity", "Rule", "Location", "Match"})
		for _, f := range findings {
			row := []string{
				severityCell(f.Severity, opts.NoColor),
				f.RuleID,
				f.File + ":" + strconv.Itoa(f.Line),
				truncate(f.Match, maxMatchWidth),
			}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	high, med, low, other := 0, 0, 0, 0
	for _, f := range findings {
		switch types.Rank(f.Severity) {
		case 3:
			high++
		case 2:
			med++
		case 1:
			low++
		default:
			other++
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d", len(findings), high, med, low)
	if other > 0 {
		fmt.Fprintf(w, ", unranked: %d", other)
	}
	fmt.Fprintln(w, ")")
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.SkippedLarge > 0 {
		fmt.Fprintf(w, "Files skipped (too large): %d\n", opts.SkippedLarge)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	return nil
}

// PrintRules renders the active rule set in load order.
func PrintRules(w io.Writer, rs rules.RuleSet, noColor bool) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Severity", "Provider", "Description"})
	for _, r := range rs {
		if err := table.Append([]string{r.ID(), severityCell(r.Severity(), noColor), r.CloudProvider(), r.Description()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rules loaded\n", rs.Len())
	return nil
}

func severityCell(s types.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case types.SevHigh:
		return highStyle.Render(string(s))
	case types.SevMed:
		return medStyle.Render(string(s))
	case types.SevLow:
		return lowStyle.Render(string(s))
	default:
		return string(s)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
