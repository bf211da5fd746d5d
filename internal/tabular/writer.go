package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used for exported workbooks.
const DefaultSheet = "Cases"

// WriteCSV writes a header row followed by records. Fields are quoted as
// needed by encoding/csv.
func WriteCSV(w io.Writer, header []string, records [][]string, delimiter rune) error {
	writer := csv.NewWriter(w)
	if delimiter != 0 {
		writer.Comma = delimiter
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("error writing CSV rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook. Every cell is stored as text so
// identifiers such as "00123" survive.
func WriteXLSX(w io.Writer, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return fmt.Errorf("error writing XLSX header: %w", err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(record)); err != nil {
			return fmt.Errorf("error writing XLSX row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("error flushing XLSX sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing XLSX file: %w", err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
