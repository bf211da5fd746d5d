package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/models"
)

// ReadCSV parses a CSV stream with a header row. A malformed stream is
// rejected as a whole.
func ReadCSV(r io.Reader) ([]models.Fields, error) {
	return readCSV(r, "csv", ',')
}

func readCSV(r io.Reader, source string, delimiter rune) ([]models.Fields, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, &caseerror.ValidationError{Source: source, Reason: "could not read input", Err: err}
	}

	reader := csv.NewReader(br)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &caseerror.ValidationError{Source: source, Reason: "malformed CSV", Err: err}
	}
	return rowsFromRecords(records), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(br *bufio.Reader) error {
	peek, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(peek, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}
