package cohort

import (
	"fmt"
	"strings"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
)

// FilterOptions controls how a joined table is restricted to a cohort
type FilterOptions struct {
	// RemoveDemographics drops response columns that share a name with a
	// diagnosis table field.
	RemoveDemographics bool
	// FilterColumn names a diagnosis table field. A trailing _raw is
	// accepted. Empty disables row filtering.
	FilterColumn string
	// FilterValues is the allow-list for FilterColumn. Nil disables row
	// filtering; an empty non-nil slice matches nothing.
	FilterValues []string
	// DropIdentifiers removes the identifier column from the output.
	DropIdentifiers bool
}

// DefaultFilterOptions selects the ADHD primary-category cohort
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		FilterColumn:    diagnosis.CategoryField,
		FilterValues:    []string{"ADHD"},
		DropIdentifiers: true,
	}
}

// Filter merges the diagnosis table onto joined, keeps rows whose raw filter
// column is in FilterValues, and returns the table with the columns usable as
// model features (response columns other than the identifier).
func Filter(joined, diag *table.Table, opts FilterOptions) (*table.Table, []string, error) {
	merged, err := JoinDiagnosis(joined, diag)
	if err != nil {
		return nil, nil, err
	}

	out := merged
	if opts.FilterColumn != "" && opts.FilterValues != nil {
		name := strings.TrimSuffix(opts.FilterColumn, table.RawMarker)
		j := merged.Lookup(table.Column{Name: name, Source: table.Raw})
		if j < 0 {
			return nil, nil, fmt.Errorf("filter column: %w", core.NewMissingColumnError(name+table.RawMarker))
		}
		allowed := make(map[string]bool, len(opts.FilterValues))
		for _, v := range opts.FilterValues {
			allowed[v] = true
		}
		out = merged.FilterRows(func(row []string) bool {
			return allowed[row[j]]
		})
	}

	if opts.RemoveDemographics {
		demo := make(map[string]bool, diag.NumCols())
		for _, c := range diag.Columns() {
			if c.Name != diagnosis.IdentifierField {
				demo[c.Name] = true
			}
		}
		out = out.Select(func(c table.Column) bool {
			return c.Source != table.Response || !demo[c.Name]
		})
	}

	if opts.DropIdentifiers {
		out = out.Select(func(c table.Column) bool {
			return c.Name != diagnosis.IdentifierField
		})
	}

	return out, FeatureColumns(out), nil
}

// FeatureColumns lists the response columns of t other than the identifier.
func FeatureColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if c.Source == table.Response && c.Name != diagnosis.IdentifierField {
			out = append(out, c.Name)
		}
	}
	return out
}
