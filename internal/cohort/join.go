// Package cohort joins questionnaire responses with the clinical diagnosis
// table and restricts the result to a diagnostic cohort.
package cohort

import (
	"fmt"
	"strings"

	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
)

// NumericPrefix is stripped from response headers at load time.
const NumericPrefix = "numeric__"

// StripPrefix removes every occurrence of NumericPrefix from the column names.
func StripPrefix(t *table.Table) *table.Table {
	return t.Rename(func(c table.Column) table.Column {
		c.Name = strings.ReplaceAll(c.Name, NumericPrefix, "")
		return c
	})
}

// JoinResponses inner-joins per-assessment response tables on the participant
// identifier, in the given order. Columns repeated across assessments keep
// their first occurrence.
func JoinResponses(tables ...*table.Table) (*table.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no response tables to join")
	}
	out := tables[0].DedupColumns()
	for i, t := range tables[1:] {
		joined, err := table.InnerJoin(out, t, diagnosis.IdentifierField)
		if err != nil {
			return nil, fmt.Errorf("joining response table %d: %w", i+1, err)
		}
		out = joined
	}
	if _, err := out.Require(diagnosis.IdentifierField); err != nil {
		return nil, err
	}
	return out, nil
}

// JoinDiagnosis tags every diagnosis column except the identifier as raw and
// inner-joins it onto responses. A raw column already present in responses
// wins over the incoming one.
func JoinDiagnosis(responses, diag *table.Table) (*table.Table, error) {
	tagged := diag.Tag(table.Raw, diagnosis.IdentifierField)
	joined, err := table.InnerJoin(responses, tagged, diagnosis.IdentifierField)
	if err != nil {
		return nil, fmt.Errorf("joining diagnosis table: %w", err)
	}
	return joined, nil
}
