package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sped"
	"github.com/KaramelBytes/spedgrowth-cli/internal/sqrp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultYears(), c.Years)
	assert.Equal(t, "0.6", c.BudgetColumn)
	assert.Equal(t, 1, c.BudgetSkipRows)
	assert.Equal(t, []string{"Special Education", "Diverse Learners", "IEP"}, c.Keywords)
	assert.Equal(t, []string{"Score"}, c.MissingMarkers)
	assert.Equal(t, 0.75, c.ThresholdQuantile)
	assert.True(t, c.Plot)
}

func TestDefaultsShareFilterDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, sped.DefaultKeywords, c.Keywords)
	assert.Equal(t, sqrp.DefaultMissingMarkers, c.MissingMarkers)

	c.Keywords[0] = "changed"
	c.MissingMarkers[0] = "changed"
	assert.Equal(t, "Special Education", sped.DefaultKeywords[0])
	assert.Equal(t, "Score", sqrp.DefaultMissingMarkers[0])
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	body := `years:
  - year: 2018
    budget_file: Budget18.csv
    sqrp_file: SQRP18.csv
  - year: 2017
    budget_file: Budget17.csv
    sqrp_file: SQRP17.csv
budget_column: "Amount"
normalization: loose
`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	t.Setenv("SPEDGROWTH_THRESHOLD_QUANTILE", "0.5")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Amount", c.BudgetColumn)
	assert.Equal(t, 0.5, c.ThresholdQuantile)
	require.Len(t, c.Years, 2)
	assert.Equal(t, 2017, c.SortedYears()[0].Year)

	y, ok := c.FindYear(2018)
	require.True(t, ok)
	assert.Equal(t, "SQRP18.csv", y.SQRPFile)

	opt, err := c.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, schoolname.Loose, opt.Normalizer.Strategy)
	assert.Equal(t, "Amount", opt.BudgetColumn)
	assert.Equal(t, 0.5, opt.Quantile)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())

	bad := Defaults()
	bad.ThresholdQuantile = 1.5
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Normalization = "fuzzy"
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.PlotFormat = "gif"
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Years = append(bad.Years, bad.Years[0])
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.Years = []YearFiles{{Year: 2019}}
	assert.Error(t, bad.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Defaults()
	c.BudgetColumn = "Total"
	c.Plot = false
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Total", got.BudgetColumn)
	assert.False(t, got.Plot)
	assert.Equal(t, c.Years, got.Years)
}

func TestResolve(t *testing.T) {
	c := Defaults()
	c.DataDir = "/data"
	assert.Equal(t, filepath.Join("/data", "Budget17.csv"), c.Resolve("Budget17.csv"))
	assert.Equal(t, "/abs/SQRP.csv", c.Resolve("/abs/SQRP.csv"))
}
