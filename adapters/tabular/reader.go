// Package tabular reads and writes tables as CSV or Excel workbooks.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phenosum/domain/core"
	"phenosum/domain/table"
	"phenosum/internal"

	"github.com/xuri/excelize/v2"
)

// File types understood by the reader and writer
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

const utf8BOM = "\ufeff"

// Reader handles reading CSV and Excel files into tables
type Reader struct {
	logger *internal.Logger
	// Sheet is read from workbooks; empty means the first sheet.
	Sheet string
}

// NewReader creates a reader that logs through logger
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger.With("TableReader")}
}

// FileType returns the file type implied by the path extension
func FileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX
	default:
		return FileTypeCSV
	}
}

// ReadTable reads a CSV or XLSX file. The first row is the header.
func (r *Reader) ReadTable(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewMissingInputError(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", core.ErrMissingInputFile, path)
	}

	start := time.Now()
	var rows [][]string
	switch FileType(path) {
	case FileTypeXLSX:
		rows, err = r.readExcelRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", core.ErrMalformedTable, path)
	}

	rows[0] = normalizeHeader(rows[0])
	t, err := table.FromRecords(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r.logger.Debug("%s read in %.2fms (%d columns, %d rows)", path,
		float64(time.Since(start).Nanoseconds())/1e6, t.NumCols(), t.NumRows())
	return t, nil
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedTable, err)
	}
	return rows, nil
}

func (r *Reader) readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", core.ErrMalformedTable, path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
