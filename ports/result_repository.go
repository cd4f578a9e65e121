package ports

import (
	"context"
	"time"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
)

// ExportBatch describes one export of summary tables
type ExportBatch struct {
	ID        core.BatchID `db:"id"`
	Kind      string       `db:"kind"`
	Source    string       `db:"source"`
	RowCount  int          `db:"row_count"`
	CreatedAt time.Time    `db:"created_at"`
}

// Export batch kinds
const (
	BatchKindModelResults  = "model_results"
	BatchKindComorbidities = "comorbidities"
)

// ResultRepository exports summary tables to a shared store for dashboards.
// CSV stays the canonical output; the repository only receives copies.
type ResultRepository interface {
	SaveModelResults(ctx context.Context, source string, results *table.Table) (*ExportBatch, error)
	SaveComorbidities(ctx context.Context, source string, counts []diagnosis.ComorbidityCount) (*ExportBatch, error)
	ListBatches(ctx context.Context, kind string, limit int) ([]ExportBatch, error)
	LoadModelResults(ctx context.Context, id core.BatchID) (*table.Table, error)
}
