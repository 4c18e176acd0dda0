// Package sped selects special-education line items from a budget table and
// totals them per school.
package sped

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

// DefaultKeywords identify special-education line items.
var DefaultKeywords = []string{"Special Education", "Diverse Learners", "IEP"}

// Filter keeps rows where any cell contains any keyword, case-insensitively.
type Filter struct {
	keywords []string
}

// NewFilter lowercases keywords once. Blank keywords are ignored so an empty
// entry in config cannot match every row.
func NewFilter(keywords []string) *Filter {
	f := &Filter{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

// Match reports whether row mentions a keyword.
func (f *Filter) Match(row []string) bool {
	for _, cell := range row {
		v := strings.ToLower(cell)
		for _, k := range f.keywords {
			if strings.Contains(v, k) {
				return true
			}
		}
	}
	return false
}

// Apply returns the matching rows of t.
func (f *Filter) Apply(t *table.Table) *table.Table {
	return t.Filter(f.Match)
}

// SchoolBudget is the SPED total for one raw school name.
type SchoolBudget struct {
	School string          `json:"school"`
	Key    string          `json:"key"`
	Budget decimal.Decimal `json:"budget"`
	Lines  int             `json:"lines"`
}

// Aggregation is the result of Aggregate.
type Aggregation struct {
	Schools []SchoolBudget
	// Unparsed counts budget cells that were not numeric and summed as zero.
	Unparsed int
	// Dropped lists raw names whose key could not be derived.
	Dropped []string
}

// Aggregate groups rows by the first column and sums budgetColumn. Groups are
// returned sorted by school name.
func Aggregate(t *table.Table, budgetColumn string, norm schoolname.Normalizer, log *zap.Logger) (*Aggregation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	idx, err := t.Index(budgetColumn)
	if err != nil {
		return nil, err
	}
	agg := &Aggregation{}
	sums := map[string]*SchoolBudget{}
	for i, row := range t.Rows {
		name := row[0]
		sb := sums[name]
		if sb == nil {
			sb = &SchoolBudget{School: name}
			sums[name] = sb
		}
		sb.Lines++
		clean, ok := table.CleanNumber(row[idx])
		if !ok {
			agg.Unparsed++
			log.Debug("non-numeric budget cell", zap.Int("row", i), zap.String("value", row[idx]))
			continue
		}
		amount, err := decimal.NewFromString(clean)
		if err != nil {
			agg.Unparsed++
			log.Debug("budget cell is not a decimal", zap.Int("row", i), zap.String("value", row[idx]), zap.Error(err))
			continue
		}
		sb.Budget = sb.Budget.Add(amount)
	}
	names := make([]string, 0, len(sums))
	for n := range sums {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		sb := sums[n]
		key, err := norm.Key(n)
		if err != nil {
			log.Warn("unable to clean school name, skipping", zap.String("school", n), zap.Error(err))
			agg.Dropped = append(agg.Dropped, n)
			continue
		}
		sb.Key = key
		agg.Schools = append(agg.Schools, *sb)
	}
	return agg, nil
}
