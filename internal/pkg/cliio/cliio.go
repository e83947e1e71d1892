// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (table, CSV, JSON).
package cliio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatTable is the default table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
)

// Formats returns all output formats.
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatJSON}
}

// ParseFormat parses a string into a Format, returning an error for unknown formats.
//
// Parsing is case-insensitive.
func ParseFormat(s string) (Format, error) {
	for _, format := range Formats() {
		if strings.EqualFold(s, string(format)) {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: table, csv, json", s)
}

// WriteTable writes tabular data to the writer using tabwriter for aligned columns.
func WriteTable(writer io.Writer, headers []string, rows [][]string) error {
	return writeTable(writer, headers, rows, nil)
}

// WriteTableWithTotals writes a table followed by a blank line and a totals row,
// all through the same tabwriter so columns align between data and totals.
func WriteTableWithTotals(writer io.Writer, headers []string, rows [][]string, totalsRow []string) error {
	return writeTable(writer, headers, rows, totalsRow)
}

// WriteCSVRecords writes CSV records to the writer.
func WriteCSVRecords(writer io.Writer, records [][]string) error {
	// WriteAll flushes and returns any write error.
	return csv.NewWriter(writer).WriteAll(records)
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	encoder := json.NewEncoder(writer)
	for _, object := range objects {
		if err := encoder.Encode(object); err != nil {
			return err
		}
	}
	return nil
}

// *** PRIVATE ***

func writeTable(writer io.Writer, headers []string, rows [][]string, totalsRow []string) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	writeRow := func(row []string) error {
		_, err := fmt.Fprintln(tw, strings.Join(row, "\t"))
		return err
	}
	if err := writeRow(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	if totalsRow != nil {
		// Tabs keep the blank separator line in the column layout.
		if err := writeRow(make([]string, len(headers))); err != nil {
			return err
		}
		if err := writeRow(totalsRow); err != nil {
			return err
		}
	}
	return tw.Flush()
}
