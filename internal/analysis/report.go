package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Shape describes a loaded table.
type Shape struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// Report is the outcome of one year's analysis.
type Report struct {
	RunID        string    `json:"run_id"`
	Year         int       `json:"year"`
	GeneratedAt  time.Time `json:"generated_at"`
	BudgetColumn string    `json:"budget_column"`
	Quantile     float64   `json:"quantile"`

	Budget Shape `json:"budget"`
	SQRP   Shape `json:"sqrp"`
	// SPEDLines is the number of budget rows kept by the keyword filter.
	SPEDLines int `json:"sped_lines"`
	// Schools is the number of per-school SPED totals with a usable key.
	Schools          int `json:"schools"`
	GrowthRows       int `json:"growth_rows"`
	GrowthIncomplete int `json:"growth_incomplete"`

	BudgetSample []string `json:"budget_sample"`
	SQRPSample   []string `json:"sqrp_sample"`

	Merged      []MergedRow  `json:"merged"`
	Threshold   float64      `json:"threshold"`
	High        GroupSummary `json:"high"`
	Low         GroupSummary `json:"low"`
	Correlation Correlations `json:"correlation"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// Matched reports whether any school joined.
func (r *Report) Matched() bool { return len(r.Merged) > 0 }

// Text renders the report as console text.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- Analyzing data for %d ---\n", r.Year)
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Using column '%s' for budget data\n", r.BudgetColumn)

	b.WriteString("\n[INPUTS]\n")
	fmt.Fprintf(&b, "- %s: (%d, %d); SPED line items %d; schools %d\n", r.Budget.Name, r.Budget.Rows, r.Budget.Cols, r.SPEDLines, r.Schools)
	fmt.Fprintf(&b, "- %s: (%d, %d)\n", r.SQRP.Name, r.SQRP.Rows, r.SQRP.Cols)
	fmt.Fprintf(&b, "\nSQRP data shape after cleaning: (%d, 4)\n", r.GrowthRows)
	if r.GrowthIncomplete > 0 {
		fmt.Fprintf(&b, "  (%d rows without both growth percentiles dropped)\n", r.GrowthIncomplete)
	}
	writeNames(&b, "Sample of SQRP school names:", r.SQRPSample)
	writeNames(&b, "Sample of Budget school names:", r.BudgetSample)

	fmt.Fprintf(&b, "\nMerged data shape: (%d, 6)\n", len(r.Merged))
	if !r.Matched() {
		b.WriteString("\nNo matching schools found between budget and SQRP data.\n")
		writeWarnings(&b, r.Warnings)
		return b.String()
	}

	b.WriteString("\nMerged data info:\n")
	b.WriteString(ProfileTable(MergedTable(r.Merged)).Text())

	b.WriteString("\n[SPENDING SPLIT]\n")
	fmt.Fprintf(&b, "Threshold (q=%.2f): %.2f\n", r.Quantile, r.Threshold)
	for _, g := range []GroupSummary{r.High, r.Low} {
		title := "High"
		if g.Label == "low" {
			title = "Low"
		}
		fmt.Fprintf(&b, "\nAverage Growth Percentiles - %s Spending Schools (n=%d):\n", title, g.Schools)
		fmt.Fprintf(&b, "  Reading  %s\n", FormatValue(g.Reading))
		fmt.Fprintf(&b, "  Math     %s\n", FormatValue(g.Math))
	}

	b.WriteString("\n[CORRELATIONS]\n")
	fmt.Fprintf(&b, "- SPED Budget ~ Reading Growth: r=%s\n", FormatValue(r.Correlation.Reading))
	fmt.Fprintf(&b, "- SPED Budget ~ Math Growth: r=%s\n", FormatValue(r.Correlation.Math))
	writeWarnings(&b, r.Warnings)
	return b.String()
}

// FormatValue prints NaN the way a dataframe would.
func FormatValue(v Value) string {
	if v.IsNaN() {
		return "NaN"
	}
	return fmt.Sprintf("%.3f", float64(v))
}

func writeNames(b *strings.Builder, title string, names []string) {
	fmt.Fprintf(b, "\n%s\n", title)
	if len(names) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for i, n := range names {
		fmt.Fprintf(b, "  %d  %s\n", i, n)
	}
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range warnings {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}
