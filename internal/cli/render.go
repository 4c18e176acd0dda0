// Package cli renders analysis results as bordered terminal tables.
package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorBorder)
)

// Table is a bordered text table. The first column is left-aligned, the
// rest right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}
	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i := 0; i < numCols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style, header bool) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 || header {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle, true)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, valueStyle, false)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderReport renders a year's report as a title, an inputs table and a
// spending-group comparison table.
func RenderReport(r *analysis.Report) string {
	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("SPED Budget vs. Student Growth · %d", r.Year)))
	b.WriteString("\n")
	b.WriteString(RenderTable(Table{
		Title:   "Inputs",
		Headers: []string{"Dataset", "Rows", "Cols", "Kept"},
		Rows: [][]string{
			{r.Budget.Name, FormatNumber(int64(r.Budget.Rows)), FormatNumber(int64(r.Budget.Cols)), FormatNumber(int64(r.Schools)) + " schools"},
			{r.SQRP.Name, FormatNumber(int64(r.SQRP.Rows)), FormatNumber(int64(r.SQRP.Cols)), FormatNumber(int64(r.GrowthRows)) + " schools"},
			{"merged", FormatNumber(int64(len(r.Merged))), "6", ""},
		},
	}))
	if !r.Matched() {
		b.WriteString(warnStyle.Render("No matching schools found between budget and SQRP data."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(RenderTable(Table{
		Title:   fmt.Sprintf("Growth by SPED spending (threshold %s at q=%.2f)", FormatMoney(r.Threshold), r.Quantile),
		Headers: []string{"Group", "Schools", "Reading", "Math"},
		Rows: [][]string{
			{"High (>= threshold)", FormatNumber(int64(r.High.Schools)), analysis.FormatValue(r.High.Reading), analysis.FormatValue(r.High.Math)},
			{"Low (< threshold)", FormatNumber(int64(r.Low.Schools)), analysis.FormatValue(r.Low.Reading), analysis.FormatValue(r.Low.Math)},
			{"r vs. budget", "", analysis.FormatValue(r.Correlation.Reading), analysis.FormatValue(r.Correlation.Math)},
		},
	}))
	for _, w := range r.Warnings {
		b.WriteString(warnStyle.Render("⚠ " + w))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatNumber adds thousands separators: 1234567 -> "1,234,567".
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney formats a dollar amount, rounding to whole dollars at 1000+.
func FormatMoney(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.Abs(v) >= 1000 {
		return "$" + FormatNumber(int64(math.Round(v)))
	}
	return fmt.Sprintf("$%.2f", v)
}
