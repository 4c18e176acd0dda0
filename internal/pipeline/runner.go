// Package pipeline runs the per-year analysis over configured input files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
	"github.com/KaramelBytes/spedgrowth-cli/internal/chart"
	"github.com/KaramelBytes/spedgrowth-cli/internal/cli"
	"github.com/KaramelBytes/spedgrowth-cli/internal/config"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
	"github.com/KaramelBytes/spedgrowth-cli/internal/utils"
)

// Output formats for per-year results.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// YearResult is the outcome of one year. Err is set when the year failed;
// a year with no matching schools is not a failure.
type YearResult struct {
	Year     int              `json:"year"`
	Report   *analysis.Report `json:"report,omitempty"`
	PlotPath string           `json:"plot_path,omitempty"`
	Err      error            `json:"-"`
	Error    string           `json:"error,omitempty"`
}

// Runner processes years one after another.
type Runner struct {
	Config *config.Global
	Log    *zap.Logger
	// Out receives rendered text/table output. JSON output is left to the caller.
	Out    io.Writer
	Format string
	// Analyze defaults to analysis.Analyze.
	Analyze func(analysis.Input, analysis.Options, *zap.Logger) (*analysis.Report, error)
}

// Run processes every year in order. A failing year is reported and the
// next year still runs. Cancelling ctx stops before the next year starts.
func (r *Runner) Run(ctx context.Context, years []config.YearFiles) []YearResult {
	results := make([]YearResult, 0, len(years))
	for _, y := range years {
		if err := ctx.Err(); err != nil {
			r.log().Warn("run cancelled", zap.Int("next_year", y.Year), zap.Error(err))
			break
		}
		res := r.RunYear(y)
		if res.Err != nil {
			res.Error = res.Err.Error()
			r.log().Error("year failed", zap.Int("year", y.Year), zap.Error(res.Err))
			if r.Format != FormatJSON {
				fmt.Fprintf(r.out(), "Error processing data for %d: %v\n", y.Year, res.Err)
			}
		}
		results = append(results, res)
	}
	return results
}

// RunYear loads and analyzes a single year, writes its plot and renders
// the report to Out.
func (r *Runner) RunYear(y config.YearFiles) (res YearResult) {
	res = YearResult{Year: y.Year}
	defer func() {
		if p := recover(); p != nil {
			res.Report = nil
			res.PlotPath = ""
			res.Err = fmt.Errorf("panic: %v", p)
		}
	}()
	opt, err := r.Config.AnalysisOptions()
	if err != nil {
		res.Err = err
		return res
	}
	in, err := r.Load(y)
	if err != nil {
		res.Err = err
		return res
	}
	analyze := r.Analyze
	if analyze == nil {
		analyze = analysis.Analyze
	}
	rep, err := analyze(in, opt, r.log())
	if err != nil && !errors.Is(err, analysis.ErrNoMatches) {
		res.Err = err
		return res
	}
	res.Report = rep
	defer r.render(rep)
	if !rep.Matched() || !r.Config.Plot {
		return res
	}
	path := filepath.Join(r.Config.OutputDir, "sped_growth_"+strconv.Itoa(y.Year)+"."+r.plotFormat())
	copt := chart.DefaultOptions()
	copt.Threshold = rep.Threshold
	if err := r.plot(rep, copt, path); err != nil {
		// plot failures do not fail the year
		r.log().Warn("plot failed", zap.Int("year", y.Year), zap.Error(err))
		rep.Warnings = append(rep.Warnings, "plot: "+err.Error())
		return res
	}
	res.PlotPath = path
	r.log().Info("plot written", zap.Int("year", y.Year), zap.String("path", path))
	return res
}

// Load reads the budget and SQRP tables for y.
func (r *Runner) Load(y config.YearFiles) (analysis.Input, error) {
	for _, p := range []string{y.BudgetFile, y.SQRPFile} {
		if path := r.Config.Resolve(p); !utils.FileExists(path) {
			return analysis.Input{}, fmt.Errorf("input file not found: %s", path)
		}
	}
	budget, err := table.Load(r.Config.Resolve(y.BudgetFile), table.Options{SkipRows: r.Config.BudgetSkipRows, FillNA: "0"})
	if err != nil {
		return analysis.Input{}, fmt.Errorf("load budget: %w", err)
	}
	growth, err := table.Load(r.Config.Resolve(y.SQRPFile), table.Options{})
	if err != nil {
		return analysis.Input{}, fmt.Errorf("load sqrp: %w", err)
	}
	r.log().Debug("inputs loaded",
		zap.Int("year", y.Year),
		zap.Int("budget_rows", len(budget.Rows)),
		zap.Int("sqrp_rows", len(growth.Rows)))
	return analysis.Input{Year: y.Year, Budget: budget, SQRP: growth}, nil
}

func (r *Runner) plot(rep *analysis.Report, opt chart.Options, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return chart.Scatter(rep.Merged, opt, path)
}

func (r *Runner) render(rep *analysis.Report) {
	switch r.Format {
	case FormatJSON:
	case FormatTable:
		fmt.Fprintln(r.out(), cli.RenderReport(rep))
	default:
		fmt.Fprint(r.out(), rep.Text())
	}
}

func (r *Runner) plotFormat() string {
	if r.Config.PlotFormat == "" {
		return "png"
	}
	return r.Config.PlotFormat
}

func (r *Runner) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

// Failed counts results with an error.
func Failed(results []YearResult) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
