// Package profiling describes the feature columns of a cohort table.
package profiling

import (
	"fmt"
	"strconv"
	"strings"

	"phenosum/domain/table"
)

// FeatureProfile summarizes one feature column. Shape is set only when every
// non-null value is numeric.
type FeatureProfile struct {
	Name        string  `json:"name"`
	N           int     `json:"n"`
	Missing     int     `json:"missing"`
	MissingRate float64 `json:"missing_rate"`
	Unique      int     `json:"unique"`
	Numeric     bool    `json:"numeric"`
	Shape       *Shape  `json:"shape,omitempty"`
}

// ProfileFeatures profiles the named columns of t in order.
func ProfileFeatures(t *table.Table, features []string) ([]FeatureProfile, error) {
	out := make([]FeatureProfile, 0, len(features))
	for _, name := range features {
		values, err := t.Values(name)
		if err != nil {
			return nil, err
		}
		p, err := ProfileColumn(name, values)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProfileColumn profiles one column of string cells.
func ProfileColumn(name string, values []string) (FeatureProfile, error) {
	p := FeatureProfile{Name: name, N: len(values), Unique: distinct(values)}

	numbers := make([]float64, 0, len(values))
	numeric := true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			p.Missing++
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			continue
		}
		numbers = append(numbers, f)
	}
	if p.N > 0 {
		p.MissingRate = float64(p.Missing) / float64(p.N)
	}

	p.Numeric = numeric && len(numbers) > 0
	if p.Numeric {
		shape, err := AnalyzeDistribution(numbers)
		if err != nil {
			return p, fmt.Errorf("profile %s: %w", name, err)
		}
		p.Shape = &shape
	}
	return p, nil
}

// ProfileTable renders profiles for writing or printing.
func ProfileTable(profiles []FeatureProfile) *table.Table {
	columns := []table.Column{{Name: "feature"}, {Name: "n"}, {Name: "missing_rate"}, {Name: "unique"},
		{Name: "mean"}, {Name: "std_dev"}, {Name: "min"}, {Name: "median"}, {Name: "max"},
		{Name: "skewness"}, {Name: "outliers"}}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

	rows := make([][]string, len(profiles))
	for i, p := range profiles {
		row := []string{p.Name, strconv.Itoa(p.N), f(p.MissingRate), strconv.Itoa(p.Unique),
			"", "", "", "", "", "", ""}
		if s := p.Shape; s != nil {
			copy(row[4:], []string{f(s.Mean), f(s.StdDev), f(s.Min), f(s.Median), f(s.Max),
				f(s.Skewness), strconv.Itoa(s.Outliers)})
		}
		rows[i] = row
	}
	t, _ := table.New(columns, rows)
	return t
}
