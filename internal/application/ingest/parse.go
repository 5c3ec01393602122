// Package ingest turns uploaded member spreadsheets into loosely typed rows.
// It never touches the network or storage.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// RawRow maps normalized header keys to cell values.
type RawRow map[string]string

var RequiredColumns = []string{"name", "email"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func Parse(fileName string, content []byte) ([]RawRow, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))

	switch ext {
	case ".csv", ".txt":
		if len(bytes.TrimSpace(bytes.TrimPrefix(content, utf8BOM))) == 0 {
			return nil, ErrEmptyFile
		}
		if !isText(content) {
			return nil, fmt.Errorf("%w: %s does not contain delimited text", ErrUnsupportedFormat, fileName)
		}
		return buildRows(splitDelimited(content))
	case ".xlsx":
		records, err := readWorkbook(content)
		if err != nil {
			return nil, err
		}
		return buildRows(records)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save the sheet as .xlsx or .csv", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// NormalizeHeader folds "Home State", "home state" and "home_state" into the
// same key.
func NormalizeHeader(cell string) string {
	key := strings.ToLower(strings.TrimSpace(cell))
	key = strings.Trim(key, `"'`)
	return strings.Join(strings.Fields(key), "_")
}

func isText(content []byte) bool {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func splitDelimited(content []byte) [][]string {
	text := string(bytes.TrimPrefix(content, utf8BOM))

	records := make([][]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, splitLine(line))
	}
	return records
}

func splitLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	cells, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return cells
}

func readWorkbook(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnsupportedFormat, sheets[0], err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blankRecord(row) {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

func blankRecord(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func buildRows(records [][]string) ([]RawRow, error) {
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	keys := make([]string, len(records[0]))
	for i, cell := range records[0] {
		keys[i] = NormalizeHeader(cell)
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(RawRow, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			if i < len(record) {
				row[key] = strings.TrimSpace(record[i])
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}

	if err := checkRequired(rows[0]); err != nil {
		return nil, err
	}
	return rows, nil
}

func checkRequired(first RawRow) error {
	missing := make([]string, 0)
	for _, column := range RequiredColumns {
		if _, ok := first[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
