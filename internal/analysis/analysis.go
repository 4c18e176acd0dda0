// Package analysis joins per-school SPED spending with growth percentiles and
// compares growth between high- and low-spending schools.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sped"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sqrp"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

// ErrNoMatches is returned with a partial report when no school appears in
// both datasets.
var ErrNoMatches = errors.New("no matching schools found between budget and SQRP data")

// Options controls one year's analysis.
type Options struct {
	BudgetColumn string
	Keywords     []string
	Columns      sqrp.Columns
	Markers      []string
	Normalizer   schoolname.Normalizer
	// Quantile for the high-spending threshold, in (0, 1].
	Quantile float64
	// SampleSize is how many school names to show per dataset.
	SampleSize int
}

// DefaultOptions mirrors the 2017 analysis.
func DefaultOptions() Options {
	return Options{
		BudgetColumn: "0.6",
		Keywords:     sped.DefaultKeywords,
		Columns:      sqrp.DefaultColumns(),
		Markers:      sqrp.DefaultMissingMarkers,
		Normalizer:   schoolname.Normalizer{Strategy: schoolname.Basic},
		Quantile:     0.75,
		SampleSize:   5,
	}
}

// Input is one year's pair of loaded tables.
type Input struct {
	Year   int
	Budget *table.Table
	SQRP   *table.Table
}

// Analyze runs filter → aggregate → clean → merge → split for one year.
// When nothing matches it returns the partial report and ErrNoMatches.
func Analyze(in Input, opt Options, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Quantile <= 0 || opt.Quantile > 1 {
		return nil, fmt.Errorf("threshold quantile %v out of range (0, 1]", opt.Quantile)
	}
	log = log.With(zap.Int("year", in.Year))
	rep := &Report{
		RunID:        uuid.NewString(),
		Year:         in.Year,
		GeneratedAt:  time.Now().UTC(),
		BudgetColumn: opt.BudgetColumn,
		Quantile:     opt.Quantile,
	}
	rep.Budget.Name = in.Budget.Name
	rep.Budget.Rows, rep.Budget.Cols = in.Budget.Shape()
	rep.SQRP.Name = in.SQRP.Name
	rep.SQRP.Rows, rep.SQRP.Cols = in.SQRP.Shape()

	filtered := sped.NewFilter(opt.Keywords).Apply(in.Budget)
	rep.SPEDLines, _ = filtered.Shape()
	log.Debug("keyword filter applied", zap.Int("rows", rep.Budget.Rows), zap.Int("matched", rep.SPEDLines))

	agg, err := sped.Aggregate(filtered, opt.BudgetColumn, opt.Normalizer, log)
	if err != nil {
		return nil, fmt.Errorf("aggregate budget: %w", err)
	}
	if agg.Unparsed > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d non-numeric budget cells counted as 0", agg.Unparsed))
	}
	if n := len(agg.Dropped); n > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d budget school names could not be cleaned", n))
	}

	ext := &sqrp.Extractor{Columns: opt.Columns, Markers: opt.Markers, Normalizer: opt.Normalizer, Log: log}
	growth, err := ext.Extract(in.SQRP)
	if err != nil {
		return nil, fmt.Errorf("extract growth: %w", err)
	}
	if n := len(growth.Dropped); n > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d SQRP school names could not be cleaned", n))
	}
	rep.Schools = len(agg.Schools)
	rep.GrowthRows = len(growth.Rows)
	rep.GrowthIncomplete = growth.Incomplete
	rep.BudgetSample = sampleNames(len(agg.Schools), opt.SampleSize, func(i int) string { return agg.Schools[i].School })
	rep.SQRPSample = sampleNames(len(growth.Rows), opt.SampleSize, func(i int) string { return growth.Rows[i].School })

	merged, err := Merge(agg.Schools, growth.Rows)
	if err != nil {
		return nil, err
	}
	rep.Merged = merged
	if len(merged) == 0 {
		return rep, ErrNoMatches
	}

	budgets := make([]float64, len(merged))
	for i, m := range merged {
		budgets[i] = m.BudgetFloat()
	}
	rep.Threshold = Quantile(budgets, opt.Quantile)
	high, low := Split(merged, rep.Threshold)
	rep.High = Summarize("high", high)
	rep.Low = Summarize("low", low)
	rep.Correlation = Correlate(merged)
	log.Info("analysis complete",
		zap.Int("merged", len(merged)),
		zap.Float64("threshold", rep.Threshold),
		zap.Int("high", rep.High.Schools),
		zap.Int("low", rep.Low.Schools))
	return rep, nil
}

// Split partitions rows: budget >= threshold is high, budget < threshold is low.
func Split(rows []MergedRow, threshold float64) (high, low []MergedRow) {
	for _, r := range rows {
		if r.BudgetFloat() >= threshold {
			high = append(high, r)
		} else {
			low = append(low, r)
		}
	}
	return high, low
}

// GroupSummary holds mean growth for one spending group.
type GroupSummary struct {
	Label   string `json:"label"`
	Schools int    `json:"schools"`
	Reading Value  `json:"mean_reading_growth"`
	Math    Value  `json:"mean_math_growth"`
}

// Summarize averages growth over rows. Means are NaN for an empty group.
func Summarize(label string, rows []MergedRow) GroupSummary {
	reading := make([]float64, len(rows))
	mth := make([]float64, len(rows))
	for i, r := range rows {
		reading[i] = r.Reading
		mth[i] = r.Math
	}
	return GroupSummary{Label: label, Schools: len(rows), Reading: Value(mean(reading)), Math: Value(mean(mth))}
}

// Correlations are Pearson r of SPED budget against each growth measure.
type Correlations struct {
	Reading Value `json:"reading"`
	Math    Value `json:"math"`
}

// Correlate computes budget/growth correlations over merged rows.
func Correlate(rows []MergedRow) Correlations {
	x := make([]float64, len(rows))
	reading := make([]float64, len(rows))
	mth := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.BudgetFloat()
		reading[i] = r.Reading
		mth[i] = r.Math
	}
	return Correlations{Reading: Value(pearson(x, reading)), Math: Value(pearson(x, mth))}
}

func sampleNames(n, limit int, at func(int) string) []string {
	if limit <= 0 {
		limit = 5
	}
	if n < limit {
		limit = n
	}
	out := make([]string, limit)
	for i := range out {
		out[i] = at(i)
	}
	return out
}

// Value is a float64 that marshals NaN and ±Inf as JSON null.
type Value float64

// IsNaN reports whether v is not a number.
func (v Value) IsNaN() bool { return math.IsNaN(float64(v)) }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%g", f)), nil
}
