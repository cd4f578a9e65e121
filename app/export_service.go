package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/errors"
	"phenosum/ports"
)

// DefaultBatchLimit is how many batches are listed when no limit is given
const DefaultBatchLimit = 20

// ExportService copies summary tables to the result store and reads exported
// model tables back.
type ExportService struct {
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewExportService creates an export service
func NewExportService(repo ports.ResultRepository, logger *internal.Logger) *ExportService {
	return &ExportService{
		repo:   repo,
		logger: logger.With("Export"),
	}
}

// ExportModelResults stores an aggregated model table as a new batch.
func (s *ExportService) ExportModelResults(ctx context.Context, source string, results *table.Table) (*ports.ExportBatch, error) {
	batch, err := s.repo.SaveModelResults(ctx, source, results)
	if err != nil {
		return nil, errors.DatabaseError("failed to export model results", err)
	}
	s.logger.Info("Exported %d model rows as batch %s", batch.RowCount, batch.ID)
	return batch, nil
}

// ExportComorbidities stores a comorbidity summary as a new batch.
func (s *ExportService) ExportComorbidities(ctx context.Context, source string, counts []diagnosis.ComorbidityCount) (*ports.ExportBatch, error) {
	batch, err := s.repo.SaveComorbidities(ctx, source, counts)
	if err != nil {
		return nil, errors.DatabaseError("failed to export comorbidities", err)
	}
	s.logger.Info("Exported %d comorbidity counts as batch %s", batch.RowCount, batch.ID)
	return batch, nil
}

// Batches lists the most recent batches of kind, newest first.
func (s *ExportService) Batches(ctx context.Context, kind string, limit int) ([]ports.ExportBatch, error) {
	switch kind {
	case ports.BatchKindModelResults, ports.BatchKindComorbidities:
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown batch kind %q (want %s or %s)",
			kind, ports.BatchKindModelResults, ports.BatchKindComorbidities))
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return s.repo.ListBatches(ctx, kind, limit)
}

// LoadModelResults reads an exported model table back by batch id.
func (s *ExportService) LoadModelResults(ctx context.Context, batchID string) (*table.Table, error) {
	id, err := core.ParseBatchID(batchID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	t, err := s.repo.LoadModelResults(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded %d model rows from batch %s", t.NumRows(), id)
	return t, nil
}

// BatchTable renders batches for printing.
func BatchTable(batches []ports.ExportBatch) *table.Table {
	columns := []table.Column{{Name: "id"}, {Name: "kind"}, {Name: "source"}, {Name: "rows"}, {Name: "created_at"}}
	rows := make([][]string, len(batches))
	for i, b := range batches {
		rows[i] = []string{b.ID.String(), b.Kind, b.Source, strconv.Itoa(b.RowCount), b.CreatedAt.Format(time.RFC3339)}
	}
	t, _ := table.New(columns, rows)
	return t
}
