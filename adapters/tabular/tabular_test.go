package tabular

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"phenosum/domain/core"
	"phenosum/domain/table"
	"phenosum/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError)
}

func TestReadCSVWithBOMAndShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Parent-features-preprocessed.csv")
	content := "\ufeffIdentifiers, numeric__SDQ_01 ,Sex_raw\nA,1,F\nB,2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := NewReader(quietLogger()).ReadTable(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Identifiers", "numeric__SDQ_01", "Sex_raw"}, tbl.Labels())
	assert.Equal(t, table.Column{Name: "Sex", Source: table.Raw}, tbl.Columns()[2])
	assert.Equal(t, [][]string{{"A", "1", "F"}, {"B", "2", ""}}, tbl.Records())
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewReader(quietLogger()).ReadTable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, core.ErrMissingInputFile)
}

func TestReadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewReader(quietLogger()).ReadTable(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrMalformedTable)
}

func TestReadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(quietLogger()).ReadTable(ctx, "whatever.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteReadRoundTrip(t *testing.T) {
	src, err := table.New(
		[]table.Column{{Name: "Identifiers"}, {Name: "q1"}, {Name: "Category", Source: table.Raw}},
		[][]string{{"A", "3", "ADHD"}, {"B", "", "Anxiety Disorders"}},
	)
	require.NoError(t, err)

	for _, name := range []string{"out.csv", "nested/out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			ctx := context.Background()

			require.NoError(t, NewWriter(quietLogger()).WriteTable(ctx, path, src))
			got, err := NewReader(quietLogger()).ReadTable(ctx, path)
			require.NoError(t, err)

			assert.Equal(t, src.Columns(), got.Columns())
			assert.Equal(t, src.Records(), got.Records())
		})
	}
}

func TestFileType(t *testing.T) {
	assert.Equal(t, FileTypeXLSX, FileType("a/b/results.XLSX"))
	assert.Equal(t, FileTypeCSV, FileType("results.csv"))
	assert.Equal(t, FileTypeCSV, FileType("results"))
}
