package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/spedgrowth-cli/internal/config"
	"github.com/KaramelBytes/spedgrowth-cli/internal/pipeline"
	"github.com/KaramelBytes/spedgrowth-cli/internal/utils"
)

var (
	runYears         []int
	runBudgetFile    string
	runSQRPFile      string
	runFormat        string
	runOutputPath    string
	runNoPlot        bool
	runBudgetColumn  string
	runQuantile      float64
	runNormalization string
	runOutputDir     string
	runDataDir       string
)

var runPipelineCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the spending vs. growth comparison for the configured years",
	Long: `Run loads each year's budget and SQRP files, keeps special education budget
lines, joins them to growth percentiles by normalized school name and reports
average growth for high- and low-spending schools. A failing year is reported
and the next year still runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		eff := *c
		if err := applyRunFlags(cmd, &eff); err != nil {
			return err
		}
		years, err := selectYears(&eff)
		if err != nil {
			return err
		}
		switch runFormat {
		case pipeline.FormatText, pipeline.FormatTable, pipeline.FormatJSON:
		default:
			return fmt.Errorf("unsupported --format: %s (use text|table|json)", runFormat)
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		var buf bytes.Buffer
		var out io.Writer = cmd.OutOrStdout()
		if runOutputPath != "" {
			out = &buf
		}
		r := &pipeline.Runner{Config: &eff, Log: log, Out: out, Format: runFormat}
		log.Debug("run starting", zap.Int("years", len(years)), zap.String("format", runFormat))
		results := r.Run(ctx, years)

		if runFormat == pipeline.FormatJSON {
			b, err := utils.PrettyJSON(results)
			if err != nil {
				return err
			}
			b = append(b, '\n')
			if _, err := out.Write(b); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
		}
		if runOutputPath != "" {
			if err := utils.SafeWriteFile(runOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", runOutputPath)
		}
		for _, res := range results {
			if res.PlotPath != "" && runFormat != pipeline.FormatJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Plot for %d saved to %s\n", res.Year, res.PlotPath)
			}
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted after %d of %d years", len(results), len(years))
		}
		if n := pipeline.Failed(results); n > 0 && n == len(results) {
			return fmt.Errorf("all %d years failed", n)
		}
		return nil
	},
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// applyRunFlags layers explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, c *cfgpkg.Global) error {
	f := cmd.Flags()
	if f.Changed("budget-column") {
		c.BudgetColumn = runBudgetColumn
	}
	if f.Changed("quantile") {
		c.ThresholdQuantile = runQuantile
	}
	if f.Changed("normalization") {
		c.Normalization = strings.ToLower(strings.TrimSpace(runNormalization))
	}
	if f.Changed("output-dir") {
		c.OutputDir = runOutputDir
	}
	if f.Changed("data-dir") {
		c.DataDir = runDataDir
	}
	if runNoPlot {
		c.Plot = false
	}
	return c.Validate()
}

// selectYears picks the years to run: an ad hoc --budget/--sqrp pair, the
// --year subset of the configuration, or every configured year.
func selectYears(c *cfgpkg.Global) ([]cfgpkg.YearFiles, error) {
	if runBudgetFile != "" || runSQRPFile != "" {
		if runBudgetFile == "" || runSQRPFile == "" {
			return nil, fmt.Errorf("--budget and --sqrp must be given together")
		}
		if len(runYears) > 1 {
			return nil, fmt.Errorf("--budget/--sqrp take at most one --year")
		}
		year := 0
		if len(runYears) == 1 {
			year = runYears[0]
		} else if ys := c.SortedYears(); len(ys) > 0 {
			year = ys[len(ys)-1].Year
		}
		budget, err := filepath.Abs(runBudgetFile)
		if err != nil {
			return nil, err
		}
		growth, err := filepath.Abs(runSQRPFile)
		if err != nil {
			return nil, err
		}
		return []cfgpkg.YearFiles{{Year: year, BudgetFile: budget, SQRPFile: growth}}, nil
	}
	if len(runYears) == 0 {
		ys := c.SortedYears()
		if len(ys) == 0 {
			return nil, fmt.Errorf("no years configured")
		}
		return ys, nil
	}
	out := make([]cfgpkg.YearFiles, 0, len(runYears))
	for _, y := range runYears {
		yf, ok := c.FindYear(y)
		if !ok {
			return nil, fmt.Errorf("year %d is not configured", y)
		}
		out = append(out, yf)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(runPipelineCmd)
	runPipelineCmd.Flags().IntSliceVar(&runYears, "year", nil, "year(s) to run (default: all configured years)")
	runPipelineCmd.Flags().StringVar(&runBudgetFile, "budget", "", "budget file for a single ad hoc run")
	runPipelineCmd.Flags().StringVar(&runSQRPFile, "sqrp", "", "SQRP file for a single ad hoc run")
	runPipelineCmd.Flags().StringVarP(&runFormat, "format", "f", pipeline.FormatText, "output format: text|table|json")
	runPipelineCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "write the report to this file instead of stdout")
	runPipelineCmd.Flags().BoolVar(&runNoPlot, "no-plot", false, "skip the scatter plot")
	runPipelineCmd.Flags().StringVar(&runBudgetColumn, "budget-column", "", "budget amount column (overrides config)")
	runPipelineCmd.Flags().Float64Var(&runQuantile, "quantile", 0, "high-spending threshold quantile (overrides config)")
	runPipelineCmd.Flags().StringVar(&runNormalization, "normalization", "", "school name normalization: basic|loose (overrides config)")
	runPipelineCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for plots (overrides config)")
	runPipelineCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory for relative input paths (overrides config)")
}
