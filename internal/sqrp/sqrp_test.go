package sqrp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

const sqrpCSV = `School ID,School Name,National School Growth Percentile - Reading,National School Growth Percentile - Math
1,Lincoln Elementary,61,72
2,Ogden,Score,40
3,Burley,0,55
4,Hale,,70
5,  ,50,50
6,Disney II,88.5,91
`

func load(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.Read("SQRP17.csv", strings.NewReader(sqrpCSV), ',', table.Options{})
	require.NoError(t, err)
	return tb
}

func TestExtract(t *testing.T) {
	res, err := (&Extractor{}).Extract(load(t))
	require.NoError(t, err)

	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 3, res.Incomplete)
	assert.Equal(t, []string{"  "}, res.Dropped)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, Growth{School: "Lincoln Elementary", Key: "lincolnelementary", Reading: 61, Math: 72}, res.Rows[0])
	assert.Equal(t, Growth{School: "Disney II", Key: "disneyii", Reading: 88.5, Math: 91}, res.Rows[1])
}

func TestExtractMissingColumn(t *testing.T) {
	e := &Extractor{Columns: Columns{School: "School Name", Reading: "Reading", Math: "Math"}}
	_, err := e.Extract(load(t))
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestParsePercentile(t *testing.T) {
	markers := DefaultMissingMarkers
	cases := []struct {
		in string
		v  float64
		ok bool
	}{
		{"61", 61, true},
		{" 72.5 ", 72.5, true},
		{"Score", 0, false},
		{"score", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
	}
	for _, c := range cases {
		v, ok := ParsePercentile(c.in, markers)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.v, v, c.in)
	}
}

func TestCustomMarkers(t *testing.T) {
	_, ok := ParsePercentile("Suppressed", []string{"Suppressed"})
	assert.False(t, ok)
}
