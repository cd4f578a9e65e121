package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shape describes the distribution of one numeric feature
type Shape struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Median   float64 `json:"median"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	ShapiroP float64 `json:"shapiro_p"`
	IsNormal bool    `json:"is_normal"`
	Outliers int     `json:"outliers"`
}

// AnalyzeDistribution computes the summary statistics and shape markers of
// data. data must not be empty.
func AnalyzeDistribution(data []float64) (Shape, error) {
	var s Shape
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	// Quartiles for IQR-based outlier detection
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	s.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)

	s.Skewness = calculateSkewness(data, s.Mean, s.StdDev)
	s.Kurtosis = calculateKurtosis(data, s.Mean, s.StdDev)
	s.IsNormal, s.ShapiroP = testNormality(s.Skewness, s.Kurtosis, len(data))
	s.Outliers = detectOutliers(data, s.Q25, s.Q75)
	return s, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes sample kurtosis (3 for a normal distribution)
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	excess := sum/n - 3
	excess = excess*(n-1)/((n-2)*(n-3)) + 6/(n+1)
	return excess + 3
}

// testNormality approximates a normality test from skewness and kurtosis
// with a chi-square reference distribution.
func testNormality(skewness, kurtosis float64, n int) (bool, float64) {
	if n < 3 {
		return false, 1.0
	}
	z := math.Abs(skewness) + math.Abs(kurtosis-3)/2
	chi := distuv.ChiSquared{K: 2}
	p := 1 - chi.CDF(z*z)
	return p > 0.05, p
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower, upper := q25-1.5*iqr, q75+1.5*iqr

	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}

func distinct(values []string) int {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	n := 0
	for i, v := range sorted {
		if v != "" && (i == 0 || v != sorted[i-1]) {
			n++
		}
	}
	return n
}
