package cohort

import (
	"fmt"

	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
)

// NormalizeDiagnosis renames the demographic fields of the raw clinical file,
// keeps demographics and the ten slot pairs, and derives Category and
// Diagnosis from slot 1.
func NormalizeDiagnosis(raw *table.Table) (*table.Table, error) {
	rename := make(map[string]string, len(diagnosis.DemographicRenames))
	for _, r := range diagnosis.DemographicRenames {
		rename[r.From] = r.To
	}
	renamed := raw.Rename(func(c table.Column) table.Column {
		if to, ok := rename[c.Name]; ok {
			c.Name = to
		}
		return c
	})

	keep := make([]string, 0, len(diagnosis.DemographicRenames)+2*diagnosis.SlotCount)
	for _, r := range diagnosis.DemographicRenames {
		keep = append(keep, r.To)
	}
	keep = append(keep, diagnosis.SlotColumns()...)

	out, err := renamed.SelectNames(keep...)
	if err != nil {
		return nil, fmt.Errorf("normalizing diagnosis table: %w", err)
	}

	primaryCat := out.Index(diagnosis.CategoryColumn(1))
	primaryLabel := out.Index(diagnosis.LabelColumn(1))
	out = out.WithColumn(table.Column{Name: diagnosis.CategoryField}, func(_ int, row []string) string {
		return row[primaryCat]
	})
	out = out.WithColumn(table.Column{Name: diagnosis.DiagnosisField}, func(_ int, row []string) string {
		return row[primaryLabel]
	})
	return out, nil
}
