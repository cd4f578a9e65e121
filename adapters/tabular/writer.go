package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"phenosum/domain/table"
	"phenosum/internal"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Writer writes tables as CSV or XLSX depending on the path extension. Raw
// columns are written with the _raw suffix.
type Writer struct {
	logger *internal.Logger
}

// NewWriter creates a table writer
func NewWriter(logger *internal.Logger) *Writer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{logger: logger.With("TableWriter")}
}

// WriteTable writes t to path, creating parent directories.
func (w *Writer) WriteTable(ctx context.Context, path string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch FileType(path) {
	case FileTypeXLSX:
		err = writeExcel(path, t)
	default:
		err = writeCSV(path, t)
	}
	if err != nil {
		return err
	}

	w.logger.Info("wrote %s (%d columns, %d rows)", path, t.NumCols(), t.NumRows())
	return nil
}

func writeCSV(path string, t *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Labels()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Records()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return file.Close()
}

func writeExcel(path string, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, t.Labels()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := setRow(f, i+2, t.Row(i)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(defaultSheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
