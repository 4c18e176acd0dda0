package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

// Profile summarizes a table: shape and per-column inferred kind and stats.
type Profile struct {
	Name string          `json:"name"`
	Rows int             `json:"rows"`
	Cols []ColumnSummary `json:"columns"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|categorical|text|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Min  Value `json:"min,omitempty"`
	Max  Value `json:"max,omitempty"`
	Mean Value `json:"mean,omitempty"`
	Std  Value `json:"std,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// CategoryCount is one frequent value of a categorical column.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// maxCategories bounds per-column distinct-value tracking.
const maxCategories = 10000

// ProfileTable computes a Profile in one pass. A column is numeric when
// numeric cells outnumber text cells; short text columns are categorical.
func ProfileTable(t *table.Table) *Profile {
	type colAcc struct {
		nonNil, miss int
		// Welford
		n         int
		mean, m2  float64
		min, max  float64
		txt       int
		cats      map[string]int
		overflow  bool
		longTexts int
	}
	ncol := len(t.Header)
	cols := make([]*colAcc, ncol)
	for i := range cols {
		cols[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	for _, row := range t.Rows {
		for j := 0; j < ncol; j++ {
			c := cols[j]
			v := strings.TrimSpace(row[j])
			if v == "" {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := table.ParseNumber(v); ok {
				c.n++
				if x < c.min {
					c.min = x
				}
				if x > c.max {
					c.max = x
				}
				delta := x - c.mean
				c.mean += delta / float64(c.n)
				c.m2 += delta * (x - c.mean)
				continue
			}
			c.txt++
			if len(v) > 64 {
				c.longTexts++
				continue
			}
			if len(c.cats) < maxCategories {
				c.cats[v]++
			} else if _, ok := c.cats[v]; ok {
				c.cats[v]++
			} else {
				c.overflow = true
			}
		}
	}

	p := &Profile{Name: t.Name, Rows: len(t.Rows), Cols: make([]ColumnSummary, 0, ncol)}
	for i, c := range cols {
		s := ColumnSummary{Name: t.Header[i], NonNull: c.nonNil, Missing: c.miss}
		switch {
		case c.nonNil == 0:
			s.Kind = "empty"
		case c.n >= c.txt:
			s.Kind = "numeric"
			s.Min, s.Max, s.Mean = Value(c.min), Value(c.max), Value(c.mean)
			if c.n > 1 {
				s.Std = Value(math.Sqrt(c.m2 / float64(c.n-1)))
			}
		case c.longTexts == 0 && !c.overflow:
			s.Kind = "categorical"
			s.Unique = len(c.cats)
			s.TopValues = topValues(c.cats, 5)
		default:
			s.Kind = "text"
			s.Unique = len(c.cats)
		}
		p.Cols = append(p.Cols, s)
	}
	return p
}

func topValues(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

// Text renders the profile as an info listing.
func (p *Profile) Text() string {
	var b strings.Builder
	b.WriteString("[DATASET]\n")
	if p.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", p.Name)
	}
	fmt.Fprintf(&b, "Shape: (%d, %d)\n", p.Rows, len(p.Cols))
	for i, c := range p.Cols {
		fmt.Fprintf(&b, " %2d  %s: %s (non-null %d, missing %d)", i, safeName(c.Name), c.Kind, c.NonNull, c.Missing)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, " min %.4g, max %.4g, mean %.4g, std %.4g", float64(c.Min), float64(c.Max), float64(c.Mean), float64(c.Std))
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" top: ")
				for k, kv := range c.TopValues {
					if k > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
