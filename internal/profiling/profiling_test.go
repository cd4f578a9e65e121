package profiling

import (
	"testing"

	"phenosum/domain/core"
	"phenosum/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileColumnNumeric(t *testing.T) {
	p, err := ProfileColumn("SDQ_01", []string{"1", "2", "", "3", "2"})
	require.NoError(t, err)
	assert.Equal(t, 5, p.N)
	assert.Equal(t, 1, p.Missing)
	assert.InDelta(t, 0.2, p.MissingRate, 1e-9)
	assert.Equal(t, 3, p.Unique)
	require.True(t, p.Numeric)
	require.NotNil(t, p.Shape)
	assert.InDelta(t, 2.0, p.Shape.Mean, 1e-9)
	assert.InDelta(t, 2.0, p.Shape.Median, 1e-9)
	assert.Equal(t, 1.0, p.Shape.Min)
	assert.Equal(t, 3.0, p.Shape.Max)
	assert.InDelta(t, 0.0, p.Shape.Skewness, 1e-9)
	assert.Zero(t, p.Shape.Outliers)
}

func TestProfileColumnCategorical(t *testing.T) {
	p, err := ProfileColumn("Site", []string{"Staten Island", "Midtown", "Staten Island"})
	require.NoError(t, err)
	assert.False(t, p.Numeric)
	assert.Nil(t, p.Shape)
	assert.Equal(t, 2, p.Unique)
}

func TestProfileColumnAllMissing(t *testing.T) {
	p, err := ProfileColumn("X", []string{"", ""})
	require.NoError(t, err)
	assert.False(t, p.Numeric)
	assert.Equal(t, 1.0, p.MissingRate)
}

func TestProfileColumnSmallCohorts(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		mean   float64
		min    float64
		max    float64
		q25    float64
		q75    float64
	}{
		{"single value", []string{"4"}, 4, 4, 4, 4, 4},
		{"two values", []string{"1", "3"}, 2, 1, 3, 1, 3},
		{"three values", []string{"1", "2", "", "3"}, 2, 1, 3, 1, 3},
		{"four values", []string{"1", "2", "3", "4"}, 2.5, 1, 4, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProfileColumn("SDQ_01", tt.values)
			require.NoError(t, err)
			require.NotNil(t, p.Shape)
			assert.InDelta(t, tt.mean, p.Shape.Mean, 1e-9)
			assert.Equal(t, tt.min, p.Shape.Min)
			assert.Equal(t, tt.max, p.Shape.Max)
			assert.Equal(t, tt.q25, p.Shape.Q25)
			assert.Equal(t, tt.q75, p.Shape.Q75)
		})
	}
}

func TestAnalyzeDistributionEmpty(t *testing.T) {
	_, err := AnalyzeDistribution(nil)
	assert.Error(t, err)
}

func TestDetectOutliers(t *testing.T) {
	assert.Equal(t, 1, detectOutliers([]float64{1, 2, 2, 3, 40}, 2, 3))
}

func TestProfileFeatures(t *testing.T) {
	tbl, err := table.FromRecords([]string{"Identifiers", "SDQ_01", "SWAN_02"}, [][]string{
		{"A", "1", "4"},
		{"B", "3", ""},
	})
	require.NoError(t, err)

	profiles, err := ProfileFeatures(tbl, []string{"SDQ_01", "SWAN_02"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "SWAN_02", profiles[1].Name)
	assert.Equal(t, 1, profiles[1].Missing)

	rendered := ProfileTable(profiles)
	assert.Equal(t, 2, rendered.NumRows())
	assert.Equal(t, "2.000", rendered.Value(0, 4))

	_, err = ProfileFeatures(tbl, []string{"nope"})
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}
