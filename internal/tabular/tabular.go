// Package tabular reads and writes spreadsheet-like files (CSV and XLSX) as
// ordered rows of header/value pairs.
package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/models"
)

// Format identifies a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat returns the format implied by the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &caseerror.ValidationError{
			Source: path,
			Reason: fmt.Sprintf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(path)),
		}
	}
}

// Options controls how input files are decoded.
type Options struct {
	// Delimiter separates CSV fields. Zero means ','.
	Delimiter rune
	// Encoding is a charset label such as "windows-1252", "auto" to sniff
	// the content, or empty for UTF-8.
	Encoding string
}

// ReadFile opens path and reads it with the reader matching its extension.
func ReadFile(path string, opts Options) ([]models.Fields, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("error opening input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, format, path, opts)
}

// Read decodes r as the given format. source names the input in errors.
func Read(r io.Reader, format Format, source string, opts Options) ([]models.Fields, error) {
	switch format {
	case FormatCSV:
		decoded, err := decodeCharset(r, opts.Encoding)
		if err != nil {
			return nil, &caseerror.ValidationError{Source: source, Reason: "unsupported encoding", Err: err}
		}
		return readCSV(decoded, source, opts.Delimiter)
	case FormatXLSX:
		return readXLSX(r, source)
	default:
		return nil, &caseerror.ValidationError{Source: source, Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// rowsFromRecords turns a header row plus data rows into ordered Fields.
// Duplicate headers resolve to the last occurrence. Short rows simply lack
// the trailing keys. A non-empty cell without a header name is kept under
// "Column<n>" (1-based). Blank rows inside the data stay as empty rows so
// row numbers match the file; trailing blank rows are dropped.
func rowsFromRecords(records [][]string) []models.Fields {
	if len(records) == 0 {
		return []models.Fields{}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	data := records[1:]
	for len(data) > 0 && isBlankRecord(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	rows := make([]models.Fields, 0, len(data))
	for _, record := range data {
		var row models.Fields
		for i, cell := range record {
			name := ""
			if i < len(header) {
				name = header[i]
			}
			if name == "" {
				if strings.TrimSpace(cell) == "" {
					continue
				}
				name = SyntheticHeader(i)
			}
			row.Set(name, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// SyntheticHeader names an unnamed column by its zero-based position.
func SyntheticHeader(i int) string {
	return fmt.Sprintf("Column%d", i+1)
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
