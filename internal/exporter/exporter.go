// Package exporter serializes aggregated rows to CSV or XLSX.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/tabular"
)

// ErrNoResults is returned when there is nothing to export. Callers treat it
// as a notice rather than a failure.
var ErrNoResults = errors.New("no categorized results to export")

// Exporter writes aggregated rows.
type Exporter struct {
	delimiter rune
	logger    logging.Logger
}

// NewExporter creates an Exporter. A zero delimiter means ','.
func NewExporter(delimiter rune, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Exporter{delimiter: delimiter, logger: logger}
}

// Header returns the ordered union of keys across rows: keys keep the
// position of their first appearance.
func Header(rows []models.AggregatedRow) []string {
	seen := make(map[string]bool)
	var header []string
	for _, row := range rows {
		for _, k := range row.Fields.Keys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}

// Records renders rows against header. Missing cells are empty and
// non-string values are formatted as text.
func Records(header []string, rows []models.AggregatedRow) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		record := make([]string, len(header))
		for j, col := range header {
			record[j] = row.Fields.GetString(col)
		}
		records[i] = record
	}
	return records
}

// WriteCSV writes rows as CSV to w.
func (e *Exporter) WriteCSV(w io.Writer, rows []models.AggregatedRow) error {
	if len(rows) == 0 {
		return ErrNoResults
	}
	header := Header(rows)
	return tabular.WriteCSV(w, header, Records(header, rows), e.delimiter)
}

// WriteXLSX writes rows as a single-sheet workbook to w.
func (e *Exporter) WriteXLSX(w io.Writer, rows []models.AggregatedRow) error {
	if len(rows) == 0 {
		return ErrNoResults
	}
	header := Header(rows)
	return tabular.WriteXLSX(w, header, Records(header, rows))
}

// Write dispatches on format.
func (e *Exporter) Write(w io.Writer, rows []models.AggregatedRow, format tabular.Format) error {
	switch format {
	case tabular.FormatXLSX:
		return e.WriteXLSX(w, rows)
	case tabular.FormatCSV, "":
		return e.WriteCSV(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportFile writes rows to path, choosing CSV or XLSX from the extension.
// With no rows it logs a notice, leaves path untouched and returns
// ErrNoResults.
func (e *Exporter) ExportFile(path string, rows []models.AggregatedRow) error {
	if len(rows) == 0 {
		e.logger.Warn("Nothing to export: no categorized results",
			logging.Field{Key: logging.FieldOutputFile, Value: path})
		return ErrNoResults
	}

	format, err := tabular.DetectFormat(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionOutputFile) // #nosec G304 -- path is provided by the user
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	if err := e.Write(file, rows, format); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}

	e.logger.Info("Exported categorized cases",
		logging.Field{Key: logging.FieldOutputFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return nil
}
