// Package sqrp extracts growth percentiles from a School Quality Rating
// Policy table.
package sqrp

import (
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

// Default column names in the SQRP export.
const (
	DefaultSchoolColumn  = "School Name"
	DefaultReadingColumn = "National School Growth Percentile - Reading"
	DefaultMathColumn    = "National School Growth Percentile - Math"
)

// DefaultMissingMarkers are cell values meaning "no score".
var DefaultMissingMarkers = []string{"Score"}

// Columns names the three SQRP columns used.
type Columns struct {
	School  string
	Reading string
	Math    string
}

// DefaultColumns returns the SQRP export's column names.
func DefaultColumns() Columns {
	return Columns{School: DefaultSchoolColumn, Reading: DefaultReadingColumn, Math: DefaultMathColumn}
}

// Growth is one school's cleaned growth record.
type Growth struct {
	School  string  `json:"school"`
	Key     string  `json:"key"`
	Reading float64 `json:"reading"`
	Math    float64 `json:"math"`
}

// Result is the output of Extract.
type Result struct {
	Rows []Growth
	// Total is the row count before cleaning.
	Total int
	// Incomplete counts rows dropped for a missing reading or math value.
	Incomplete int
	// Dropped lists names whose key could not be derived.
	Dropped []string
}

// Extractor cleans growth data.
type Extractor struct {
	Columns    Columns
	Markers    []string
	Normalizer schoolname.Normalizer
	Log        *zap.Logger
}

// Extract selects the configured columns, parses the two percentiles and
// drops rows where either is missing. Row order is preserved.
func (e *Extractor) Extract(t *table.Table) (*Result, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	cols := e.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	si, err := t.Index(cols.School)
	if err != nil {
		return nil, err
	}
	ri, err := t.Index(cols.Reading)
	if err != nil {
		return nil, err
	}
	mi, err := t.Index(cols.Math)
	if err != nil {
		return nil, err
	}
	markers := e.Markers
	if markers == nil {
		markers = DefaultMissingMarkers
	}

	res := &Result{Total: len(t.Rows)}
	for i, row := range t.Rows {
		name := row[si]
		key, err := e.Normalizer.Key(name)
		if err != nil {
			log.Warn("unable to clean school name, skipping", zap.Int("row", i), zap.String("school", name), zap.Error(err))
			res.Dropped = append(res.Dropped, name)
			continue
		}
		reading, okR := ParsePercentile(row[ri], markers)
		math, okM := ParsePercentile(row[mi], markers)
		if !okR || !okM {
			res.Incomplete++
			continue
		}
		res.Rows = append(res.Rows, Growth{School: name, Key: key, Reading: reading, Math: math})
	}
	return res, nil
}

// ParsePercentile parses a growth cell. Marker values, blanks, non-numeric
// text and exact zero are all missing; zero is what blank cells become after
// fill-NA in the upstream exports.
func ParsePercentile(cell string, markers []string) (float64, bool) {
	v := strings.TrimSpace(cell)
	if v == "" {
		return 0, false
	}
	for _, m := range markers {
		if strings.EqualFold(v, strings.TrimSpace(m)) {
			return 0, false
		}
	}
	f, ok := table.ParseNumber(v)
	if !ok || f == 0 {
		return 0, false
	}
	return f, true
}
