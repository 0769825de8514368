package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/parser"
)

// Theme holds the colors of the terminal rendering.
type Theme struct {
	High    lipgloss.Color
	Medium  lipgloss.Color
	Low     lipgloss.Color
	Added   lipgloss.Color
	Deleted lipgloss.Color
	Header  lipgloss.Color
	Hint    lipgloss.Color
}

// DefaultTheme is used when no theme is given.
var DefaultTheme = Theme{
	High:    lipgloss.Color("#FF005F"), // red
	Medium:  lipgloss.Color("#FFAF00"), // amber
	Low:     lipgloss.Color("#00D787"), // green
	Added:   lipgloss.Color("#5FAFD7"), // light blue
	Deleted: lipgloss.Color("#AF87FF"), // violet
	Header:  lipgloss.Color("#FFFFFF"),
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

// TableOptions controls terminal rendering.
type TableOptions struct {
	// Color enables ANSI styling; without it the output is plain text.
	Color bool
	Theme *Theme
}

type painter struct {
	color bool
	theme Theme
}

func newPainter(opts TableOptions) painter {
	p := painter{color: opts.Color, theme: DefaultTheme}
	if opts.Theme != nil {
		p.theme = *opts.Theme
	}
	return p
}

func (p painter) style(c lipgloss.Color) lipgloss.Style {
	if !p.color {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}

func (p painter) severity(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityHigh:
		return p.style(p.theme.High).Bold(p.color)
	case models.SeverityMedium:
		return p.style(p.theme.Medium)
	case models.SeverityLow:
		return p.style(p.theme.Low)
	}
	return lipgloss.NewStyle()
}

func (p painter) status(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusAdded:
		return p.style(p.theme.Added)
	case models.StatusDeleted:
		return p.style(p.theme.Deleted)
	}
	return p.style(p.theme.Medium)
}

// highlight styles the numeric literals of raw that have a tiered field.
func (p painter) highlight(raw string, fields []models.FieldDiff) string {
	if !p.color || len(fields) == 0 {
		return raw
	}
	tiers := make(map[int]models.Severity, len(fields))
	for _, f := range fields {
		tiers[f.Index] = f.Severity
	}
	var b strings.Builder
	last := 0
	for i, sp := range parser.NumberSpans(raw) {
		s, ok := tiers[i]
		if !ok || s == models.SeverityNone {
			continue
		}
		b.WriteString(raw[last:sp.Start])
		b.WriteString(p.severity(s).Render(raw[sp.Start:sp.End]))
		last = sp.End
	}
	b.WriteString(raw[last:])
	return b.String()
}

// Table writes the report as a terminal table followed by its summary.
func Table(w io.Writer, report *diff.Report, opts TableOptions) error {
	p := newPainter(opts)
	header := valueHeader(report)
	if hasAxisColumns(report) {
		header = jointHeader(report)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.style(p.theme.Hint)).
		Headers(header...)

	for _, row := range report.Rows {
		if hasAxisColumns(report) {
			t.Row(p.jointCells(row)...)
		} else {
			t.Row(p.valueCells(row)...)
		}
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return base.Bold(p.color).Inherit(p.style(p.theme.Header))
		}
		return base
	})

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	return WriteSummary(w, report, opts)
}

func valueHeader(report *diff.Report) []string {
	return []string{"Status", itemLabel(report), "Variable", "New Value", "Old Value", "New Ln", "Old Ln"}
}

func jointHeader(report *diff.Report) []string {
	header := []string{"Status", itemLabel(report), "Variable"}
	for _, axis := range models.AxisNames {
		header = append(header, axis)
	}
	return append(header, "New Ln", "Old Ln")
}

func (p painter) valueCells(row models.ComparisonRow) []string {
	newValue := row.DisplayNewValue()
	oldValue := row.DisplayOldValue()
	if row.Status == models.StatusChanged {
		newValue = p.highlight(newValue, row.Highlights)
		oldValue = p.highlight(oldValue, row.Highlights)
	}
	return []string{
		p.status(row.Status).Render(string(row.Status)),
		row.ItemKey,
		row.VariableName,
		newValue,
		oldValue,
		row.DisplayNewLine(),
		row.DisplayOldLine(),
	}
}

// jointCells renders each axis as "new/old" for changes and as the single
// present literal for additions and deletions.
func (p painter) jointCells(row models.ComparisonRow) []string {
	cells := []string{
		p.status(row.Status).Render(string(row.Status)),
		row.ItemKey,
		row.VariableName,
	}
	for i := range models.AxisNames {
		if i >= len(row.FieldDiffs) {
			cells = append(cells, "")
			continue
		}
		f := row.FieldDiffs[i]
		var cell string
		switch row.Status {
		case models.StatusChanged:
			cell = f.NewLiteral + "/" + f.OldLiteral
		case models.StatusAdded:
			cell = f.NewLiteral
		default:
			cell = f.OldLiteral
		}
		cells = append(cells, p.severity(f.Severity).Render(cell))
	}
	return append(cells, row.DisplayNewLine(), row.DisplayOldLine())
}

// WriteSummary writes the run counts below a rendered table.
func WriteSummary(w io.Writer, report *diff.Report, opts TableOptions) error {
	p := newPainter(opts)
	s := report.Summary
	lines := []string{
		fmt.Sprintf("%d changed, %d added, %d deleted", s.Changed, s.Added, s.Deleted),
		fmt.Sprintf("fields: %s high, %s medium, %s low",
			p.severity(models.SeverityHigh).Render(fmt.Sprint(s.High)),
			p.severity(models.SeverityMedium).Render(fmt.Sprint(s.Medium)),
			p.severity(models.SeverityLow).Render(fmt.Sprint(s.Low))),
		p.style(p.theme.Hint).Render(fmt.Sprintf("%d matched, %d new only, %d old only (run %s)",
			s.MatchedItems, s.NewOnlyItems, s.OldOnlyItems, report.RunID)),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
