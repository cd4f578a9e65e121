package table

import (
	"fmt"

	"phenosum/domain/core"
)

// InnerJoin merges left and right on the response-tagged key column. Rows are
// emitted in left order; a left row matching several right rows is repeated
// once per match, in right order. Right's key column is not repeated and any
// column colliding on (name, source) keeps the first occurrence.
func InnerJoin(left, right *Table, key string) (*Table, error) {
	keyCol := Column{Name: key}
	lk := left.Lookup(keyCol)
	if lk < 0 {
		return nil, fmt.Errorf("left side: %w", missingKey(key))
	}
	rk := right.Lookup(keyCol)
	if rk < 0 {
		return nil, fmt.Errorf("right side: %w", missingKey(key))
	}

	index := make(map[string][]int, right.NumRows())
	for i, row := range right.rows {
		index[row[rk]] = append(index[row[rk]], i)
	}

	rightIdx := make([]int, 0, len(right.columns)-1)
	for j := range right.columns {
		if j != rk {
			rightIdx = append(rightIdx, j)
		}
	}

	out := &Table{
		columns: make([]Column, 0, len(left.columns)+len(rightIdx)),
		rows:    make([][]string, 0),
	}
	out.columns = append(out.columns, left.columns...)
	for _, j := range rightIdx {
		out.columns = append(out.columns, right.columns[j])
	}

	for _, lrow := range left.rows {
		for _, ri := range index[lrow[lk]] {
			row := make([]string, 0, len(out.columns))
			row = append(row, lrow...)
			rrow := right.rows[ri]
			for _, j := range rightIdx {
				row = append(row, rrow[j])
			}
			out.rows = append(out.rows, row)
		}
	}

	return out.DedupColumns(), nil
}

// Concat stacks tables vertically. The output schema is the union of input
// columns in order of first appearance; cells for columns a table lacks are
// null.
func Concat(tables ...*Table) *Table {
	out := &Table{rows: make([][]string, 0)}
	pos := make(map[Column]int)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.columns)
				out.columns = append(out.columns, c)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		// first occurrence wins for duplicated columns
		target := make([]int, len(t.columns))
		seen := make(map[Column]bool, len(t.columns))
		for j, c := range t.columns {
			target[j] = -1
			if !seen[c] {
				seen[c] = true
				target[j] = pos[c]
			}
		}
		for _, row := range t.rows {
			nr := make([]string, len(out.columns))
			for j, k := range target {
				if k >= 0 {
					nr[k] = row[j]
				}
			}
			out.rows = append(out.rows, nr)
		}
	}
	return out
}

func missingKey(key string) error {
	return fmt.Errorf("%w: merge key %s", core.ErrMissingColumn, key)
}
