package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
)

func rows() []analysis.MergedRow {
	return []analysis.MergedRow{
		{Key: "a", Budget: decimal.NewFromInt(100), Reading: 40, Math: 55},
		{Key: "b", Budget: decimal.NewFromInt(250), Reading: 62, Math: 48},
		{Key: "c", Budget: decimal.NewFromInt(900), Reading: 71, Math: 80},
	}
}

func TestScatterWritesImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"sped_growth_2017.png", "sped_growth_2017.svg"} {
		p := filepath.Join(dir, name)
		opt := DefaultOptions()
		opt.Threshold = 575
		require.NoError(t, Scatter(rows(), opt, p))
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestScatterRejects(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Scatter(nil, DefaultOptions(), filepath.Join(dir, "x.png")))
	assert.Error(t, Scatter(rows(), DefaultOptions(), filepath.Join(dir, "x.bmp")))
}
