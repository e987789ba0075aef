// Package importer turns uploaded spreadsheets into JSON records, one per
// data row, keyed by the header row.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// Parser implements service.SheetParser for .xlsx and .csv uploads.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse reads the first worksheet of an .xlsx file or the whole of a .csv
// file. Blank rows are skipped; columns with an empty header are dropped.
func (p *Parser) Parse(filename string, r io.Reader) ([]domain.Record, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, domain.NewValidationError("unsupported file type %q: upload .xlsx or .csv", ext)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError("cannot read workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, domain.NewValidationError("invalid csv at line %d: %v", perr.Line, perr.Err)
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func toRecords(rows [][]string) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, domain.NewValidationError("file is empty")
	}
	header := make([]string, len(rows[0]))
	named := 0
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, domain.NewValidationError("header row is empty")
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		obj := make(map[string]string, named)
		for i, key := range header {
			if key == "" {
				continue
			}
			if i < len(row) {
				obj[key] = strings.TrimSpace(row[i])
			} else {
				obj[key] = ""
			}
		}
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
		records = append(records, domain.Record(b))
	}
	if len(records) == 0 {
		return nil, domain.NewValidationError("file has no data rows")
	}
	return records, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
