package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/modelrun"
	"phenosum/domain/table"
	"phenosum/internal/errors"
	"phenosum/ports"

	"github.com/jmoiron/sqlx"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// SaveModelResults exports an aggregated model table as one batch. Every row
// is stored whole as JSON; the selection columns are also copied into typed
// columns for querying.
func (r *resultRepository) SaveModelResults(ctx context.Context, source string, results *table.Table) (*ports.ExportBatch, error) {
	batch := newBatch(ports.BatchKindModelResults, source, results.NumRows())
	labels := results.Labels()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBatch(ctx, tx, batch, labels); err != nil {
		return nil, err
	}

	query := `INSERT INTO model_results (
		batch_id, row_index, model_name, sex, data_variant, assessment, clf, category_new, age, cells
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for i := 0; i < results.NumRows(); i++ {
		row := results.Row(i)
		cells, err := EncodeRow(labels, row)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, query,
			batch.ID, i,
			cell(labels, row, modelrun.ModelNameColumn), cell(labels, row, modelrun.SexColumn),
			cell(labels, row, modelrun.DataColumn), cell(labels, row, modelrun.AssessmentColumn),
			cell(labels, row, modelrun.ClassifierColumn), cell(labels, row, modelrun.CategoryNewColumn),
			cell(labels, row, modelrun.AgeColumn), cells,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert model result row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit model results: %w", err)
	}
	return batch, nil
}

// SaveComorbidities exports a comorbidity summary as one batch
func (r *resultRepository) SaveComorbidities(ctx context.Context, source string, counts []diagnosis.ComorbidityCount) (*ports.ExportBatch, error) {
	batch := newBatch(ports.BatchKindComorbidities, source, len(counts))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBatch(ctx, tx, batch, []string{"rank", "category", "diagnosis", "count", "percent"}); err != nil {
		return nil, err
	}

	query := `INSERT INTO comorbidity_counts (batch_id, rank, category, diagnosis, count, percent)
		VALUES (:batch_id, :rank, :category, :diagnosis, :count, :percent)`
	for _, c := range counts {
		arg := comorbidityRow{BatchID: batch.ID, ComorbidityCount: c}
		if _, err := tx.NamedExecContext(ctx, query, arg); err != nil {
			return nil, fmt.Errorf("failed to insert comorbidity count %s/%s: %w", c.Category, c.Diagnosis, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit comorbidities: %w", err)
	}
	return batch, nil
}

// ListBatches returns the most recent batches of a kind, newest first
func (r *resultRepository) ListBatches(ctx context.Context, kind string, limit int) ([]ports.ExportBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, kind, source, row_count, created_at
		FROM export_batches WHERE kind = $1
		ORDER BY created_at DESC LIMIT $2`

	var batches []ports.ExportBatch
	if err := r.db.SelectContext(ctx, &batches, query, kind, limit); err != nil {
		return nil, fmt.Errorf("failed to list export batches: %w", err)
	}
	return batches, nil
}

// LoadModelResults rebuilds an exported model table with its original column
// order.
func (r *resultRepository) LoadModelResults(ctx context.Context, id core.BatchID) (*table.Table, error) {
	var columnsJSON []byte
	err := r.db.GetContext(ctx, &columnsJSON,
		`SELECT columns FROM export_batches WHERE id = $1 AND kind = $2`, id, ports.BatchKindModelResults)
	if err != nil {
		return nil, batchLookupError(id, err)
	}
	var labels []string
	if err := json.Unmarshal(columnsJSON, &labels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch columns: %w", err)
	}

	var encoded [][]byte
	err = r.db.SelectContext(ctx, &encoded,
		`SELECT cells FROM model_results WHERE batch_id = $1 ORDER BY row_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load model results: %w", err)
	}

	records := make([][]string, len(encoded))
	for i, cells := range encoded {
		if records[i], err = DecodeRow(labels, cells); err != nil {
			return nil, err
		}
	}
	return table.FromRecords(labels, records)
}

// batchLookupError maps a missing batch to a NOT_FOUND error.
func batchLookupError(id core.BatchID, err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(fmt.Sprintf("model results batch %s", id))
	}
	return errors.DatabaseError("failed to get export batch", err)
}

type comorbidityRow struct {
	BatchID core.BatchID `db:"batch_id"`
	diagnosis.ComorbidityCount
}

func newBatch(kind, source string, rows int) *ports.ExportBatch {
	return &ports.ExportBatch{
		ID:        core.NewBatchID(),
		Kind:      kind,
		Source:    source,
		RowCount:  rows,
		CreatedAt: time.Now().UTC(),
	}
}

func insertBatch(ctx context.Context, tx *sqlx.Tx, batch *ports.ExportBatch, labels []string) error {
	columnsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO export_batches (id, kind, source, row_count, columns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		batch.ID, batch.Kind, batch.Source, batch.RowCount, columnsJSON, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create export batch: %w", err)
	}
	return nil
}

// EncodeRow stores a row as a JSON object keyed by column label. Null cells
// are omitted.
func EncodeRow(labels, row []string) ([]byte, error) {
	obj := make(map[string]string, len(labels))
	for j, label := range labels {
		if row[j] != "" {
			obj[label] = row[j]
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row: %w", err)
	}
	return data, nil
}

// DecodeRow is the inverse of EncodeRow
func DecodeRow(labels []string, data []byte) ([]string, error) {
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal row: %w", err)
	}
	row := make([]string, len(labels))
	for j, label := range labels {
		row[j] = obj[label]
	}
	return row, nil
}

func cell(labels, row []string, name string) sql.NullString {
	for j, label := range labels {
		if label == name {
			return sql.NullString{String: row[j], Valid: row[j] != ""}
		}
	}
	return sql.NullString{}
}
