package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flag state that persists across invocations
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), runPipelineCmd.Flags(), inspectCmd.Flags(), normalizeCmd.Flags(), configInitCmd.Flags()} {
		resetFlags(fs)
	}
	runYears = nil
	cfg = nil
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeYear(t *testing.T, dir, suffix string) {
	t.Helper()
	budget := "FY Budget,,\n" +
		"Unit Name,Description,0.6\n" +
		"Lincoln Elementary,IEP Coordinator Salary,1000\n" +
		"Lincoln Elementary,Special Education Aide,500\n" +
		"Ogden,Custodial Supplies,300\n" +
		"Hale,Diverse Learners,200\n"
	sqrp := "School Name,National School Growth Percentile - Reading,National School Growth Percentile - Math\n" +
		"lincoln elementary,60,70\n" +
		"Hale,40,50\n" +
		"Burley,Score,40\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Budget"+suffix+".csv"), []byte(budget), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SQRP"+suffix+".csv"), []byte(sqrp), 0o644))
}

func TestCLI_RunEndToEnd(t *testing.T) {
	home := setHome(t)
	writeYear(t, home, "17")

	out, err := runCmd(t, "run", "--data-dir", home, "--output-dir", filepath.Join(home, "plots"))
	require.NoError(t, err)
	assert.Contains(t, out, "--- Analyzing data for 2017 ---")
	assert.Contains(t, out, "Using column '0.6' for budget data")
	assert.Contains(t, out, "Merged data shape: (2, 6)")
	assert.Contains(t, out, "Average Growth Percentiles - High Spending Schools (n=1)")

	_, err = os.Stat(filepath.Join(home, "plots", "sped_growth_2017.png"))
	assert.NoError(t, err)
}

func TestCLI_RunJSONToFile(t *testing.T) {
	home := setHome(t)
	writeYear(t, home, "17")
	outPath := filepath.Join(home, "report.json")

	out, err := runCmd(t, "run", "--data-dir", home, "--no-plot", "--format", "json", "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote report to")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var results []struct {
		Year   int `json:"year"`
		Report struct {
			Threshold float64 `json:"threshold"`
			High      struct {
				Schools int `json:"schools"`
			} `json:"high"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(b, &results))
	require.Len(t, results, 1)
	assert.Equal(t, 2017, results[0].Year)
	assert.Equal(t, 1, results[0].Report.High.Schools)
}

func TestCLI_RunAdHocFiles(t *testing.T) {
	setHome(t)
	dir := t.TempDir()
	writeYear(t, dir, "19")

	out, err := runCmd(t, "run", "--no-plot", "--year", "2019",
		"--budget", filepath.Join(dir, "Budget19.csv"),
		"--sqrp", filepath.Join(dir, "SQRP19.csv"),
		"--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "2019")
}

func TestCLI_RunAllYearsFailed(t *testing.T) {
	home := setHome(t)
	out, err := runCmd(t, "run", "--data-dir", home, "--no-plot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 years failed")
	assert.Contains(t, out, "Error processing data for 2017:")
}

func TestCLI_RunFlagValidation(t *testing.T) {
	setHome(t)
	_, err := runCmd(t, "run", "--budget", "only.csv")
	assert.Error(t, err)

	_, err = runCmd(t, "run", "--year", "1999")
	assert.Error(t, err)

	_, err = runCmd(t, "run", "--format", "xml")
	assert.Error(t, err)

	_, err = runCmd(t, "run", "--quantile", "2")
	assert.Error(t, err)
}

func TestCLI_Inspect(t *testing.T) {
	home := setHome(t)
	writeYear(t, home, "17")

	out, err := runCmd(t, "inspect", filepath.Join(home, "Budget17.csv"), "--skip-rows", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Shape: (4, 3)")
	assert.Contains(t, out, "0.6: numeric")
}

func TestCLI_Normalize(t *testing.T) {
	setHome(t)
	out, err := runCmd(t, "normalize", "St. Mary's Academy", "Lincoln Elementary")
	require.NoError(t, err)
	assert.Contains(t, out, "stmary'sacademy")
	assert.Contains(t, out, "lincolnelementary")

	out, err = runCmd(t, "normalize", "--strategy", "loose", "Lincoln Elementary School")
	require.NoError(t, err)
	assert.Contains(t, out, "lincolnelem")

	_, err = runCmd(t, "normalize", " . ")
	assert.Error(t, err)
}

func TestCLI_ConfigInitSetShow(t *testing.T) {
	home := setHome(t)

	out, err := runCmd(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Config initialized")
	_, err = os.Stat(filepath.Join(home, ".spedgrowth", "config.yaml"))
	require.NoError(t, err)

	_, err = runCmd(t, "config", "init")
	assert.Error(t, err)

	_, err = runCmd(t, "config", "set", "budget_column", "Amount")
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "threshold_quantile", "0.5")
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "threshold_quantile", "7")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "nope", "x")
	assert.Error(t, err)

	out, err = runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "budget_column: Amount")
	assert.Contains(t, out, "threshold_quantile: 0.5")
}
