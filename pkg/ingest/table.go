// Package ingest turns tabular sources (xlsx workbooks and CSV files) into
// typed ground truth rows and reported fixes.
//
// Ingestion is the only place cells are interpreted. Missing or malformed
// numeric cells become 0 here, so downstream code never sees an undefined
// number. Fields whose presence matters (HAE/geoid altitude, precomputed
// vertical error) are kept as pointers instead.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrDataUnavailable marks a source that could not be obtained or parsed
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrMissingColumns marks a table without the columns a parser requires
	ErrMissingColumns = errors.New("missing required columns")
)

// headerScanRows bounds the search for a header row when none is configured
const headerScanRows = 10

// Table is a header row plus the data rows beneath it
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable selects the header row from raw rows and keeps the non-empty rows
// below it. headerRow is 1-based; 0 searches the first rows for a cell equal
// to one of keys.
func NewTable(raw [][]string, headerRow int, keys ...string) (*Table, error) {
	idx := headerRow - 1
	if headerRow <= 0 {
		idx = findHeaderRow(raw, keys)
		if idx < 0 {
			return nil, fmt.Errorf("%w: no header row with %s in the first %d rows", ErrMissingColumns, strings.Join(keys, "/"), headerScanRows)
		}
	}
	if idx >= len(raw) {
		return nil, fmt.Errorf("%w: sheet has %d rows, header expected at row %d", ErrDataUnavailable, len(raw), idx+1)
	}

	t := &Table{Header: make([]string, len(raw[idx]))}
	for i, h := range raw[idx] {
		t.Header[i] = strings.TrimSpace(h)
	}
	for _, row := range raw[idx+1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func findHeaderRow(raw [][]string, keys []string) int {
	for i := 0; i < len(raw) && i < headerScanRows; i++ {
		for _, cell := range raw[i] {
			for _, k := range keys {
				if strings.EqualFold(strings.TrimSpace(cell), k) {
					return i
				}
			}
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Column returns the index of the first header matching any of names,
// case-insensitively, or -1
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed cell at column col, or "" when out of range
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ReadWorkbookRows reads raw rows of a sheet from an xlsx workbook.
// An empty sheet name selects the first sheet.
func ReadWorkbookRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDataUnavailable)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsFold(sheets, &sheet) {
		return nil, fmt.Errorf("%w: sheet named %q not found", ErrDataUnavailable, sheet)
	}

	// raw values, display formats would round coordinates and add separators
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrDataUnavailable, sheet, err)
	}
	return rows, nil
}

// containsFold finds name in sheets ignoring case and rewrites it to the
// workbook's spelling
func containsFold(sheets []string, name *string) bool {
	for _, s := range sheets {
		if strings.EqualFold(s, *name) {
			*name = s
			return true
		}
	}
	return false
}

// ReadCSVRows reads raw rows from CSV input; ragged rows are allowed
func ReadCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse csv: %v", ErrDataUnavailable, err)
	}
	return rows, nil
}

// ReadFileRows reads raw rows from a CSV or xlsx file chosen by extension
func ReadFileRows(path, sheet string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSVRows(file)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return ReadWorkbookRows(file, sheet)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrDataUnavailable, filepath.Ext(path))
	}
}
