package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
	"github.com/KaramelBytes/spedgrowth-cli/internal/chart"
	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sped"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sqrp"
)

// YearFiles maps one fiscal year to its two input files.
type YearFiles struct {
	Year       int    `mapstructure:"year" yaml:"year"`
	BudgetFile string `mapstructure:"budget_file" yaml:"budget_file"`
	SQRPFile   string `mapstructure:"sqrp_file" yaml:"sqrp_file"`
}

// Global configuration structure.
type Global struct {
	Years          []YearFiles `mapstructure:"years" yaml:"years"`
	DataDir        string      `mapstructure:"data_dir" yaml:"data_dir"`
	OutputDir      string      `mapstructure:"output_dir" yaml:"output_dir"`
	BudgetColumn   string      `mapstructure:"budget_column" yaml:"budget_column"`
	BudgetSkipRows int         `mapstructure:"budget_skip_rows" yaml:"budget_skip_rows"`
	Keywords       []string    `mapstructure:"keywords" yaml:"keywords"`

	SchoolColumn   string   `mapstructure:"school_column" yaml:"school_column"`
	ReadingColumn  string   `mapstructure:"reading_column" yaml:"reading_column"`
	MathColumn     string   `mapstructure:"math_column" yaml:"math_column"`
	MissingMarkers []string `mapstructure:"missing_markers" yaml:"missing_markers"`

	ThresholdQuantile float64 `mapstructure:"threshold_quantile" yaml:"threshold_quantile"`
	Normalization     string  `mapstructure:"normalization" yaml:"normalization"`

	Plot       bool   `mapstructure:"plot" yaml:"plot"`
	PlotFormat string `mapstructure:"plot_format" yaml:"plot_format"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// DefaultYears is the single year the analysis was first run for.
func DefaultYears() []YearFiles {
	return []YearFiles{{Year: 2017, BudgetFile: "Budget17.csv", SQRPFile: "SQRP17.csv"}}
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		Years:             DefaultYears(),
		DataDir:           ".",
		OutputDir:         ".",
		BudgetColumn:      "0.6",
		BudgetSkipRows:    1,
		Keywords:          append([]string(nil), sped.DefaultKeywords...),
		SchoolColumn:      sqrp.DefaultSchoolColumn,
		ReadingColumn:     sqrp.DefaultReadingColumn,
		MathColumn:        sqrp.DefaultMathColumn,
		MissingMarkers:    append([]string(nil), sqrp.DefaultMissingMarkers...),
		ThresholdQuantile: 0.75,
		Normalization:     string(schoolname.Basic),
		Plot:              true,
		PlotFormat:        "png",
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// DefaultPath is ~/.spedgrowth/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".spedgrowth", "config.yaml"), nil
}

// Save writes the configuration as YAML to cfgFile, or to DefaultPath when
// cfgFile is empty, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SPEDGROWTH")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("years", d.Years)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("budget_column", d.BudgetColumn)
	v.SetDefault("budget_skip_rows", d.BudgetSkipRows)
	v.SetDefault("keywords", d.Keywords)
	v.SetDefault("school_column", d.SchoolColumn)
	v.SetDefault("reading_column", d.ReadingColumn)
	v.SetDefault("math_column", d.MathColumn)
	v.SetDefault("missing_markers", d.MissingMarkers)
	v.SetDefault("threshold_quantile", d.ThresholdQuantile)
	v.SetDefault("normalization", d.Normalization)
	v.SetDefault("plot", d.Plot)
	v.SetDefault("plot_format", d.PlotFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if p, err := DefaultPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Global) Validate() error {
	if c.ThresholdQuantile <= 0 || c.ThresholdQuantile > 1 {
		return fmt.Errorf("threshold_quantile must be in (0, 1], got %v", c.ThresholdQuantile)
	}
	if _, err := schoolname.ParseStrategy(c.Normalization); err != nil {
		return err
	}
	if c.PlotFormat != "" && !slices.Contains(chart.Formats, c.PlotFormat) {
		return fmt.Errorf("plot_format must be one of %v, got %q", chart.Formats, c.PlotFormat)
	}
	if c.BudgetSkipRows < 0 {
		return fmt.Errorf("budget_skip_rows must be >= 0, got %d", c.BudgetSkipRows)
	}
	seen := map[int]bool{}
	for _, y := range c.Years {
		if seen[y.Year] {
			return fmt.Errorf("year %d configured twice", y.Year)
		}
		seen[y.Year] = true
		if y.BudgetFile == "" || y.SQRPFile == "" {
			return fmt.Errorf("year %d: budget_file and sqrp_file are required", y.Year)
		}
	}
	return nil
}

// SortedYears returns the configured years in ascending order.
func (c *Global) SortedYears() []YearFiles {
	out := append([]YearFiles(nil), c.Years...)
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// FindYear returns the files configured for year.
func (c *Global) FindYear(year int) (YearFiles, bool) {
	for _, y := range c.Years {
		if y.Year == year {
			return y, true
		}
	}
	return YearFiles{}, false
}

// Resolve joins a relative input path onto DataDir.
func (c *Global) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// AnalysisOptions converts the configuration to analysis.Options.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	strategy, err := schoolname.ParseStrategy(c.Normalization)
	if err != nil {
		return analysis.Options{}, err
	}
	opt := analysis.DefaultOptions()
	opt.BudgetColumn = c.BudgetColumn
	opt.Keywords = c.Keywords
	opt.Columns = sqrp.Columns{School: c.SchoolColumn, Reading: c.ReadingColumn, Math: c.MathColumn}
	opt.Markers = c.MissingMarkers
	opt.Normalizer = schoolname.Normalizer{Strategy: strategy}
	opt.Quantile = c.ThresholdQuantile
	return opt, nil
}
