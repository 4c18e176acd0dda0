package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

func TestProfileTable(t *testing.T) {
	tb := &table.Table{
		Name:   "SQRP17.csv",
		Header: []string{"School Name", "Reading", "Network", "Blank"},
		Rows: [][]string{
			{"Lincoln", "60", "Network 1", ""},
			{"Ogden", "Score", "Network 1", ""},
			{"Hale", "70", "Network 2", ""},
			{"Burley", "80", "", ""},
		},
	}
	p := ProfileTable(tb)
	if p.Rows != 4 || len(p.Cols) != 4 {
		t.Fatalf("shape = (%d, %d)", p.Rows, len(p.Cols))
	}

	reading := p.Cols[1]
	if reading.Kind != "numeric" || reading.NonNull != 4 {
		t.Fatalf("reading = %#v", reading)
	}
	if float64(reading.Min) != 60 || float64(reading.Max) != 80 || float64(reading.Mean) != 70 {
		t.Fatalf("reading stats = %#v", reading)
	}
	if math.Abs(float64(reading.Std)-10) > 1e-9 {
		t.Fatalf("reading std = %v, want 10", reading.Std)
	}

	network := p.Cols[2]
	if network.Kind != "categorical" || network.Missing != 1 || network.Unique != 2 {
		t.Fatalf("network = %#v", network)
	}
	if network.TopValues[0].Value != "Network 1" || network.TopValues[0].Count != 2 {
		t.Fatalf("network top = %#v", network.TopValues)
	}
	if p.Cols[3].Kind != "empty" {
		t.Fatalf("blank kind = %q", p.Cols[3].Kind)
	}

	text := p.Text()
	for _, want := range []string{"File: SQRP17.csv", "Shape: (4, 4)", "Reading: numeric (non-null 4, missing 0)", "top: Network 1(2), Network 2(1)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("profile text missing %q:\n%s", want, text)
		}
	}
}
