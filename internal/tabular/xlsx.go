package tabular

import (
	"io"

	"github.com/xuri/excelize/v2"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/models"
)

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]models.Fields, error) {
	return readXLSX(r, "xlsx")
}

func readXLSX(r io.Reader, source string) ([]models.Fields, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &caseerror.ValidationError{Source: source, Reason: "malformed XLSX workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.Fields{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &caseerror.ValidationError{Source: source, Reason: "could not read sheet " + sheets[0], Err: err}
	}
	return rowsFromRecords(records), nil
}
