package ports

import (
	"context"

	"phenosum/domain/table"
)

// TableReader loads a tabular file. Implementations return an error wrapping
// core.ErrMissingInputFile when the path does not exist.
type TableReader interface {
	ReadTable(ctx context.Context, path string) (*table.Table, error)
}

// TableWriter persists a table; the format is chosen from the path extension.
type TableWriter interface {
	WriteTable(ctx context.Context, path string, t *table.Table) error
}
