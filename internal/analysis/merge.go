package analysis

import (
	"fmt"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/spedgrowth-cli/internal/sped"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sqrp"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

// MergedRow is one school present in both datasets.
type MergedRow struct {
	Key        string          `json:"key"`
	BudgetName string          `json:"budget_name"`
	SQRPName   string          `json:"sqrp_name"`
	Budget     decimal.Decimal `json:"sped_budget"`
	Reading    float64         `json:"reading_growth"`
	Math       float64         `json:"math_growth"`
}

// BudgetFloat returns the SPED budget as a float for statistics.
func (m MergedRow) BudgetFloat() float64 { return m.Budget.InexactFloat64() }

const (
	colKey       = "key"
	colBudgetIdx = "budget_idx"
	colGrowthIdx = "growth_idx"
)

// Merge inner-joins budgets and growth on the normalized key. A key present
// n times on one side and m times on the other yields n*m rows. Output order
// follows budgets, then growth.
func Merge(budgets []sped.SchoolBudget, growth []sqrp.Growth) ([]MergedRow, error) {
	if len(budgets) == 0 || len(growth) == 0 {
		return nil, nil
	}
	left := make([][]string, 0, len(budgets)+1)
	left = append(left, []string{colKey, colBudgetIdx})
	for i, b := range budgets {
		left = append(left, []string{b.Key, strconv.Itoa(i)})
	}
	right := make([][]string, 0, len(growth)+1)
	right = append(right, []string{colKey, colGrowthIdx})
	for i, g := range growth {
		right = append(right, []string{g.Key, strconv.Itoa(i)})
	}

	// keep every column as string so keys like "123" are not re-typed
	lf := dataframe.LoadRecords(left, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	rf := dataframe.LoadRecords(right, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	joined := lf.InnerJoin(rf, colKey)
	if joined.Err != nil {
		return nil, fmt.Errorf("merge: %w", joined.Err)
	}
	if joined.Nrow() == 0 {
		return nil, nil
	}
	bi := joined.Col(colBudgetIdx).Records()
	gi := joined.Col(colGrowthIdx).Records()
	out := make([]MergedRow, 0, joined.Nrow())
	for r := range bi {
		i, err := strconv.Atoi(bi[r])
		if err != nil {
			return nil, fmt.Errorf("merge: budget index %q: %w", bi[r], err)
		}
		j, err := strconv.Atoi(gi[r])
		if err != nil {
			return nil, fmt.Errorf("merge: growth index %q: %w", gi[r], err)
		}
		b, g := budgets[i], growth[j]
		out = append(out, MergedRow{
			Key:        b.Key,
			BudgetName: b.School,
			SQRPName:   g.School,
			Budget:     b.Budget,
			Reading:    g.Reading,
			Math:       g.Math,
		})
	}
	return out, nil
}

// MergedTable lays merged rows out as a table with one column per field.
func MergedTable(rows []MergedRow) *table.Table {
	t := &table.Table{
		Name:   "merged",
		Header: []string{"School Name (budget)", "SPED Budget", "Clean School Name", "School Name (SQRP)", "Reading Growth", "Math Growth"},
		Rows:   make([][]string, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []string{
			r.BudgetName,
			r.Budget.String(),
			r.Key,
			r.SQRPName,
			strconv.FormatFloat(r.Reading, 'f', -1, 64),
			strconv.FormatFloat(r.Math, 'f', -1, 64),
		}
	}
	return t
}
