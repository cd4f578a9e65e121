package modelresults

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"phenosum/domain/table"
)

// ChanceLevel is the ROC AUC of a classifier that guesses.
const ChanceLevel = 0.5

// DefaultGroupColumn and DefaultMetric are the x and y of the model
// comparison plot.
const (
	DefaultGroupColumn = "category_new"
	DefaultMetric      = "roc_auc_score"
)

// MetricSummary describes the distribution of one metric within a group.
type MetricSummary struct {
	Group       string  `json:"group"`
	Hue         string  `json:"hue,omitempty"`
	N           int     `json:"n"`
	Missing     int     `json:"missing"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	AboveChance float64 `json:"above_chance"`
}

// SummaryRequest selects the grouping and metric columns. Hue is optional.
type SummaryRequest struct {
	Group  string
	Hue    string
	Metric string
}

type groupKey struct{ group, hue string }

// Summarize groups t by Group (and Hue) and describes Metric in each group.
// Groups are returned in order of first appearance. Cells that are empty or
// not numeric count as missing.
func Summarize(t *table.Table, req SummaryRequest) ([]MetricSummary, error) {
	if req.Group == "" {
		req.Group = DefaultGroupColumn
	}
	if req.Metric == "" {
		req.Metric = DefaultMetric
	}

	gj, err := t.Require(req.Group)
	if err != nil {
		return nil, err
	}
	mj, err := t.Require(req.Metric)
	if err != nil {
		return nil, err
	}
	hj := -1
	if req.Hue != "" {
		if hj, err = t.Require(req.Hue); err != nil {
			return nil, err
		}
	}

	var order []groupKey
	values := make(map[groupKey][]float64)
	missing := make(map[groupKey]int)
	for i := 0; i < t.NumRows(); i++ {
		key := groupKey{group: t.Value(i, gj)}
		if hj >= 0 {
			key.hue = t.Value(i, hj)
		}
		if _, ok := values[key]; !ok {
			order = append(order, key)
			values[key] = nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(t.Value(i, mj)), 64)
		if err != nil {
			missing[key]++
			continue
		}
		values[key] = append(values[key], v)
	}

	out := make([]MetricSummary, 0, len(order))
	for _, key := range order {
		s, err := describe(values[key])
		if err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", key.group, err)
		}
		s.Group, s.Hue, s.Missing = key.group, key.hue, missing[key]
		out = append(out, s)
	}
	return out, nil
}

func describe(data []float64) (MetricSummary, error) {
	s := MetricSummary{N: len(data)}
	if len(data) == 0 {
		return s, nil
	}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q1 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.Q3 = stat.Quantile(0.75, stat.Empirical, sorted, nil)

	above := 0
	for _, v := range sorted {
		if v > ChanceLevel {
			above++
		}
	}
	s.AboveChance = float64(above) / float64(len(sorted))
	return s, nil
}

// SummaryTable renders summaries for writing or printing.
func SummaryTable(summaries []MetricSummary) *table.Table {
	columns := []table.Column{{Name: "group"}, {Name: "hue"}, {Name: "n"}, {Name: "missing"},
		{Name: "mean"}, {Name: "median"}, {Name: "std_dev"}, {Name: "min"}, {Name: "q1"},
		{Name: "q3"}, {Name: "max"}, {Name: "above_chance"}}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.Group, s.Hue, strconv.Itoa(s.N), strconv.Itoa(s.Missing),
			f(s.Mean), f(s.Median), f(s.StdDev), f(s.Min), f(s.Q1), f(s.Q3), f(s.Max), f(s.AboveChance)}
	}
	t, _ := table.New(columns, rows)
	return t
}
