// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package spreadsheet reads ledger spreadsheets (CSV and XLSX) into a header
// row plus string records.
//
// The first non-empty row is the header. Records shorter than the header are
// padded with empty cells so callers can index every column by header position.
// XLSX cells are read raw, so date cells arrive as Excel serial numbers; use
// ParseExcelSerial to convert them.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format is a supported spreadsheet file format.
type Format string

const (
	// FormatCSV is comma-separated values.
	FormatCSV Format = "csv"
	// FormatXLSX is an Office Open XML workbook. Only the first sheet is read.
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for file names whose extension is not a supported Format.
var ErrUnsupportedFormat = errors.New("unsupported file type, upload an Excel (.xlsx) or CSV (.csv) file")

// utf8BOM is stripped from the first header cell of CSV files exported by Excel.
const utf8BOM = "\ufeff"

// Table is a parsed spreadsheet.
type Table struct {
	// Header is the first non-empty row.
	Header []string
	// Records are the data rows after the header, each padded to len(Header).
	Records [][]string
}

// Formats returns all supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX}
}

// FormatForFileName returns the Format for the extension of fileName.
//
// The extension is matched case-insensitively.
func FormatForFileName(fileName string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	for _, format := range Formats() {
		if string(format) == ext {
			return format, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// ParseFile parses the spreadsheet at filePath, choosing the Format from its extension.
func ParseFile(filePath string) (_ *Table, retErr error) {
	format, err := FormatForFileName(filePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	return Parse(file, format)
}

// Parse parses a spreadsheet of the given Format from reader.
func Parse(reader io.Reader, format Format) (*Table, error) {
	var rows [][]string
	var err error
	switch format {
	case FormatCSV:
		rows, err = readCSV(reader)
	case FormatXLSX:
		rows, err = readXLSX(reader)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return newTable(rows)
}

// ParseExcelSerial converts an Excel serial date number (e.g., "45292.5") to a time.
//
// Returns false if s is not a positive number.
func ParseExcelSerial(s string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// *** PRIVATE ***

func readCSV(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	// Allow ragged rows, they are padded to the header width.
	csvReader.FieldsPerRecord = -1
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

func readXLSX(reader io.Reader) (_ [][]string, retErr error) {
	file, err := excelize.OpenReader(reader, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading XLSX: %w", err)
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("reading XLSX: workbook has no sheets")
	}
	rows, err := file.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading XLSX sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func newTable(rows [][]string) (*Table, error) {
	// Skip leading blank rows to find the header.
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}
	header := rows[0]
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		records = append(records, row)
	}
	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
