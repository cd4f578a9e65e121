package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/errors"
	"phenosum/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository keeps exported batches in memory.
type memoryRepository struct {
	batches []ports.ExportBatch
	models  map[core.BatchID]*table.Table
	limit   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{models: make(map[core.BatchID]*table.Table)}
}

func (m *memoryRepository) add(kind, source string, rows int) *ports.ExportBatch {
	b := ports.ExportBatch{ID: core.NewBatchID(), Kind: kind, Source: source, RowCount: rows,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, len(m.batches), 0, time.UTC)}
	m.batches = append(m.batches, b)
	return &b
}

func (m *memoryRepository) SaveModelResults(_ context.Context, source string, results *table.Table) (*ports.ExportBatch, error) {
	b := m.add(ports.BatchKindModelResults, source, results.NumRows())
	m.models[b.ID] = results
	return b, nil
}

func (m *memoryRepository) SaveComorbidities(_ context.Context, source string, counts []diagnosis.ComorbidityCount) (*ports.ExportBatch, error) {
	return m.add(ports.BatchKindComorbidities, source, len(counts)), nil
}

func (m *memoryRepository) ListBatches(_ context.Context, kind string, limit int) ([]ports.ExportBatch, error) {
	m.limit = limit
	var out []ports.ExportBatch
	for i := len(m.batches) - 1; i >= 0 && len(out) < limit; i-- {
		if m.batches[i].Kind == kind {
			out = append(out, m.batches[i])
		}
	}
	return out, nil
}

func (m *memoryRepository) LoadModelResults(_ context.Context, id core.BatchID) (*table.Table, error) {
	t, ok := m.models[id]
	if !ok {
		return nil, errors.NotFound("model results batch " + id.String())
	}
	return t, nil
}

func exportService(t *testing.T) (*ExportService, *memoryRepository, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	repo := newMemoryRepository()
	return NewExportService(repo, internal.NewLoggerTo(&buf, internal.LogLevelDebug)), repo, &buf
}

func TestExportAndReloadModelResults(t *testing.T) {
	svc, _, logs := exportService(t)
	ctx := context.Background()

	results, err := table.FromRecords([]string{"model_name", "sex", "roc_auc_score"}, [][]string{
		{"m1", "all", "0.71"},
		{"m1", "0", ""},
	})
	require.NoError(t, err)

	batch, err := svc.ExportModelResults(ctx, "/data", results)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.RowCount)
	assert.Contains(t, logs.String(), "Exported 2 model rows as batch "+batch.ID.String())

	loaded, err := svc.LoadModelResults(ctx, batch.ID.String())
	require.NoError(t, err)
	assert.Equal(t, results.Records(), loaded.Records())
}

func TestLoadModelResultsRejectsBadIDs(t *testing.T) {
	svc, _, _ := exportService(t)

	_, err := svc.LoadModelResults(context.Background(), "not-a-uuid")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.LoadModelResults(context.Background(), core.NewBatchID().String())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestBatchesListsNewestFirst(t *testing.T) {
	svc, repo, _ := exportService(t)
	ctx := context.Background()

	_, err := svc.ExportComorbidities(ctx, "/data", []diagnosis.ComorbidityCount{{Diagnosis: "ADHD", Count: 1}})
	require.NoError(t, err)
	first, err := svc.ExportModelResults(ctx, "/data", table.Empty(nil))
	require.NoError(t, err)
	second, err := svc.ExportModelResults(ctx, "/other", table.Empty(nil))
	require.NoError(t, err)

	batches, err := svc.Batches(ctx, ports.BatchKindModelResults, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchLimit, repo.limit)
	require.Len(t, batches, 2)
	assert.Equal(t, second.ID, batches[0].ID)
	assert.Equal(t, first.ID, batches[1].ID)

	rendered := BatchTable(batches)
	assert.Equal(t, []string{"id", "kind", "source", "rows", "created_at"}, rendered.Labels())
	assert.Equal(t, []string{second.ID.String(), "model_results", "/other", "0", "2024-05-01T12:00:02Z"}, rendered.Row(0))

	_, err = svc.Batches(ctx, "hypotheses", 5)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
