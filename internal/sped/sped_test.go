package sped

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
)

func TestFilterMatch(t *testing.T) {
	f := NewFilter(DefaultKeywords)
	assert.True(t, f.Match([]string{"Lincoln", "IEP Coordinator Salary", "100"}))
	assert.True(t, f.Match([]string{"Ogden", "0", "DIVERSE LEARNERS aide"}))
	assert.False(t, f.Match([]string{"Ogden", "Custodial Supplies", "40"}))
	assert.False(t, f.Match(nil))
}

func TestFilterSubstringInAnyField(t *testing.T) {
	f := NewFilter([]string{"iep"})
	// substring match is deliberately crude: "Diepold" contains "iep"
	assert.True(t, f.Match([]string{"Diepold Academy", "Math", "1"}))
}

func TestFilterIgnoresBlankKeywords(t *testing.T) {
	f := NewFilter([]string{"", "  "})
	assert.False(t, f.Match([]string{"anything"}))
}

func budgetTable() *table.Table {
	return &table.Table{
		Name:   "Budget17.csv",
		Header: []string{"Unit Name", "Description", "0.6"},
		Rows: [][]string{
			{"Lincoln Elementary", "IEP Coordinator Salary", "1,000.50"},
			{"Lincoln Elementary", "Special Education Aide", "499.50"},
			{"Lincoln Elementary", "Field Trips", "900"},
			{"Ogden", "Diverse Learners Supplies", "n/a"},
			{"Ogden", "Diverse Learners Staff", "250"},
			{"...", "Special Education", "10"},
		},
	}
}

func TestApplyAndAggregate(t *testing.T) {
	filtered := NewFilter(DefaultKeywords).Apply(budgetTable())
	n, _ := filtered.Shape()
	require.Equal(t, 5, n)

	agg, err := Aggregate(filtered, "0.6", schoolname.Normalizer{}, nil)
	require.NoError(t, err)
	require.Len(t, agg.Schools, 2)

	assert.Equal(t, "Lincoln Elementary", agg.Schools[0].School)
	assert.Equal(t, "lincolnelementary", agg.Schools[0].Key)
	assert.True(t, decimal.NewFromInt(1500).Equal(agg.Schools[0].Budget), agg.Schools[0].Budget.String())
	assert.Equal(t, 2, agg.Schools[0].Lines)

	assert.Equal(t, "ogden", agg.Schools[1].Key)
	assert.True(t, decimal.NewFromInt(250).Equal(agg.Schools[1].Budget))
	assert.Equal(t, 1, agg.Unparsed)
	assert.Equal(t, []string{"..."}, agg.Dropped)
}

func TestAggregateMissingColumn(t *testing.T) {
	_, err := Aggregate(budgetTable(), "Amount", schoolname.Normalizer{}, nil)
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestAggregateExactDecimalSum(t *testing.T) {
	tb := &table.Table{
		Header: []string{"School", "Amount"},
		Rows: [][]string{
			{"A", "0.1"}, {"A", "0.2"},
		},
	}
	agg, err := Aggregate(tb, "Amount", schoolname.Normalizer{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.3", agg.Schools[0].Budget.String())
}

func TestAggregateOddNumericCells(t *testing.T) {
	tb := &table.Table{
		Header: []string{"School", "Amount"},
		Rows: [][]string{
			{"A", "(-5)"}, {"A", "20"}, {"A", "0x1p4"}, {"A", "Inf"},
		},
	}
	require.NotPanics(t, func() {
		agg, err := Aggregate(tb, "Amount", schoolname.Normalizer{}, nil)
		require.NoError(t, err)
		require.Len(t, agg.Schools, 1)
		assert.True(t, decimal.NewFromInt(15).Equal(agg.Schools[0].Budget), agg.Schools[0].Budget.String())
		assert.Equal(t, 4, agg.Schools[0].Lines)
		assert.Equal(t, 2, agg.Unparsed)
	})
}
