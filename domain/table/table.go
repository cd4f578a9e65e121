// Package table holds the in-memory tabular model shared by every stage of
// the pipeline. Cells are strings and the empty string is the null sentinel.
// Columns carry a Source tag so diagnosis/demographic fields can share a name
// with response fields without colliding.
package table

import (
	"fmt"
	"strings"

	"phenosum/domain/core"
)

// Source tags where a column came from
type Source int

const (
	// Response columns hold questionnaire responses (model features).
	Response Source = iota
	// Raw columns were merged in from the diagnosis/demographics table.
	Raw
)

// RawMarker is appended to raw column names when a table is written to disk.
const RawMarker = "_raw"

func (s Source) String() string {
	if s == Raw {
		return "raw"
	}
	return "response"
}

// Column identifies a column by name and provenance
type Column struct {
	Name   string
	Source Source
}

// Label renders the column name as it appears in files.
func (c Column) Label() string {
	if c.Source == Raw {
		return c.Name + RawMarker
	}
	return c.Name
}

// ParseLabel is the inverse of Label.
func ParseLabel(label string) Column {
	if len(label) > len(RawMarker) && strings.HasSuffix(label, RawMarker) {
		return Column{Name: strings.TrimSuffix(label, RawMarker), Source: Raw}
	}
	return Column{Name: label}
}

// Table is an immutable-by-convention grid of string cells. Every method that
// changes shape or content returns a new Table.
type Table struct {
	columns []Column
	rows    [][]string
}

// New builds a table, copying columns and rows.
func New(columns []Column, rows [][]string) (*Table, error) {
	t := &Table{
		columns: append([]Column(nil), columns...),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", core.ErrRaggedRow, i, len(row), len(columns))
		}
		t.rows = append(t.rows, append([]string(nil), row...))
	}
	return t, nil
}

// FromRecords builds a table from a header line and records as read from a
// delimited file. Short records are padded with nulls; long ones are an error.
func FromRecords(header []string, records [][]string) (*Table, error) {
	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = ParseLabel(strings.TrimSpace(h))
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: record %d has %d fields, header has %d", core.ErrRaggedRow, i, len(rec), len(header))
		}
		row := make([]string, len(header))
		copy(row, rec)
		rows[i] = row
	}
	return &Table{columns: columns, rows: rows}, nil
}

// Empty returns a table with the given schema and no rows.
func Empty(columns []Column) *Table {
	return &Table{columns: append([]Column(nil), columns...)}
}

// NumRows returns the row count
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the column count
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns a copy of the schema
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Labels returns the column names as they are written to disk.
func (t *Table) Labels() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Label()
	}
	return out
}

// Row returns a copy of row i
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Value returns the cell at row i, column j
func (t *Table) Value(i, j int) string {
	return t.rows[i][j]
}

// Records returns copies of all rows, suitable for writing.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Lookup returns the index of the exact column, or -1.
func (t *Table) Lookup(c Column) int {
	for i, col := range t.columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Index returns the index of the first column called name regardless of
// provenance, or -1.
func (t *Table) Index(name string) int {
	for i, col := range t.columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column called name exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Require returns the index of the first column called name or a
// core.ErrMissingColumn error.
func (t *Table) Require(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, core.NewMissingColumnError(name)
	}
	return i, nil
}

// Values returns a copy of the first column called name.
func (t *Table) Values(name string) ([]string, error) {
	j, err := t.Require(name)
	if err != nil {
		return nil, err
	}
	return t.columnValues(j), nil
}

func (t *Table) columnValues(j int) []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out
}

// Unique returns the distinct non-null values of a column in order of first
// appearance.
func (t *Table) Unique(name string) ([]string, error) {
	values, err := t.Values(name)
	if err != nil {
		return nil, err
	}
	return uniqueNonEmpty(values), nil
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Select keeps the columns for which keep returns true, in order.
func (t *Table) Select(keep func(Column) bool) *Table {
	var idx []int
	for i, c := range t.columns {
		if keep(c) {
			idx = append(idx, i)
		}
	}
	return t.project(idx)
}

// SelectNames keeps the named columns in the given order. Each name resolves
// to its first column.
func (t *Table) SelectNames(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j, err := t.Require(name)
		if err != nil {
			return nil, err
		}
		idx[k] = j
	}
	return t.project(idx), nil
}

func (t *Table) project(idx []int) *Table {
	out := &Table{
		columns: make([]Column, len(idx)),
		rows:    make([][]string, len(t.rows)),
	}
	for k, j := range idx {
		out.columns[k] = t.columns[j]
	}
	for i, row := range t.rows {
		nr := make([]string, len(idx))
		for k, j := range idx {
			nr[k] = row[j]
		}
		out.rows[i] = nr
	}
	return out
}

// Rename maps every column through fn.
func (t *Table) Rename(fn func(Column) Column) *Table {
	out := t.clone()
	for i, c := range out.columns {
		out.columns[i] = fn(c)
	}
	return out
}

// Tag marks every column except the named ones with the given source.
func (t *Table) Tag(src Source, except ...string) *Table {
	skip := make(map[string]bool, len(except))
	for _, name := range except {
		skip[name] = true
	}
	return t.Rename(func(c Column) Column {
		if skip[c.Name] {
			return c
		}
		return Column{Name: c.Name, Source: src}
	})
}

// FilterRows keeps the rows for which keep returns true. The row passed to
// keep must not be modified.
func (t *Table) FilterRows(keep func(row []string) bool) *Table {
	out := &Table{columns: t.Columns(), rows: make([][]string, 0)}
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, append([]string(nil), row...))
		}
	}
	return out
}

// WithColumn returns a table where column c holds value(i) for each row i.
// An existing column with the same name and source is overwritten in place,
// otherwise c is appended.
func (t *Table) WithColumn(c Column, value func(i int, row []string) string) *Table {
	out := t.clone()
	j := out.Lookup(c)
	if j < 0 {
		out.columns = append(out.columns, c)
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], "")
		}
		j = len(out.columns) - 1
	}
	for i, row := range out.rows {
		row[j] = value(i, t.rows[i])
	}
	return out
}

// WithConstant sets column c to v on every row.
func (t *Table) WithConstant(c Column, v string) *Table {
	return t.WithColumn(c, func(int, []string) string { return v })
}

// MapColumn rewrites every cell of column index j through fn.
func (t *Table) MapColumn(j int, fn func(string) string) *Table {
	out := t.clone()
	for _, row := range out.rows {
		row[j] = fn(row[j])
	}
	return out
}

// DedupColumns drops later columns that repeat an earlier (name, source) pair.
func (t *Table) DedupColumns() *Table {
	seen := make(map[Column]bool, len(t.columns))
	var idx []int
	for i, c := range t.columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		idx = append(idx, i)
	}
	if len(idx) == len(t.columns) {
		return t.clone()
	}
	return t.project(idx)
}

func (t *Table) clone() *Table {
	out := &Table{
		columns: t.Columns(),
		rows:    make([][]string, len(t.rows)),
	}
	for i, row := range t.rows {
		out.rows[i] = append([]string(nil), row...)
	}
	return out
}
