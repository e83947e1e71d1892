// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlledger normalizes raw ledger spreadsheets into typed transactions.
//
// Normalization is all-or-nothing: a ledger with any invalid Action value or
// missing required column fails as a whole with a *ValidationError, and a
// malformed numeric cell fails with a *ProcessingError. No partial
// transaction list is ever returned.
package gainsctlledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"github.com/bufdev/gainsctl/internal/standard/xtime"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Ledger column names as they appear in exported ledgers.
//
// The price column name contains two spaces. Header matching collapses
// whitespace, so both spellings are accepted.
const (
	ColumnDate     = "Date"
	ColumnAction   = "Action"
	ColumnCoin     = "Coin"
	ColumnQuantity = "Quantity"
	ColumnPrice    = "Price in  Base currency"
	ColumnTotal    = "Total Price in Base currency"
	// ColumnTDS is optional.
	ColumnTDS = "Tds"
)

// Action is the side of a transaction.
type Action int

const (
	// ActionBuy opens a lot.
	ActionBuy Action = iota + 1
	// ActionSell consumes lots.
	ActionSell
)

// String returns "Buy" or "Sell".
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction normalizes a raw Action cell.
//
// The value is trimmed and lowercased; "buy" and "b" are Buy, "sell" and "s" are Sell.
func ParseAction(raw string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy", "b":
		return ActionBuy, true
	case "sell", "s":
		return ActionSell, true
	default:
		return 0, false
	}
}

// Transaction is a single normalized ledger entry.
type Transaction struct {
	// Row is the 1-based data row number in the source ledger, excluding the header.
	Row int
	// Date is NIL if the source date could not be parsed.
	Date nilable.Value[time.Time]
	// Action is Buy or Sell.
	Action Action
	// Asset is the coin identifier (e.g., "ETH").
	Asset string
	// Quantity is never negative.
	Quantity decimal.Decimal
	// Price is the unit price in the base currency.
	Price decimal.Decimal
	// Total is the total value in the base currency.
	//
	// If the source cell was empty, this is Quantity × Price.
	Total decimal.Decimal
	// Tax is the tax withheld (TDS), zero if absent. Never negative.
	Tax decimal.Decimal
}

// RequiredColumns returns the columns every ledger must have, in display order.
func RequiredColumns() []string {
	return []string{
		ColumnDate,
		ColumnAction,
		ColumnCoin,
		ColumnQuantity,
		ColumnPrice,
		ColumnTotal,
	}
}

// CheckColumns verifies that header contains every required column.
//
// All missing columns are reported at once in a *ValidationError.
func CheckColumns(header []string) error {
	columnIndex := newColumnIndex(header)
	var missingColumns []string
	for _, column := range RequiredColumns() {
		if _, ok := columnIndex[normalizeHeader(column)]; !ok {
			missingColumns = append(missingColumns, column)
		}
	}
	if len(missingColumns) > 0 {
		return &ValidationError{MissingColumns: missingColumns}
	}
	return nil
}

// Normalize converts a raw ledger table into transactions, in ledger order.
//
// Column validation runs first, then every Action cell is validated before
// any other cell is parsed, so a ledger with invalid actions always fails with
// a *ValidationError naming the distinct offending values.
func Normalize(table *spreadsheet.Table) ([]*Transaction, error) {
	if err := CheckColumns(table.Header); err != nil {
		return nil, err
	}
	columnIndex := newColumnIndex(table.Header)
	cell := func(record []string, column string) string {
		index, ok := columnIndex[normalizeHeader(column)]
		if !ok || index >= len(record) {
			return ""
		}
		return record[index]
	}
	actions := make([]Action, len(table.Records))
	var invalidActions []string
	for i, record := range table.Records {
		raw := cell(record, ColumnAction)
		action, ok := ParseAction(raw)
		if !ok {
			invalidActions = append(invalidActions, raw)
			continue
		}
		actions[i] = action
	}
	if len(invalidActions) > 0 {
		return nil, &ValidationError{InvalidActions: lo.Uniq(invalidActions)}
	}
	transactions := make([]*Transaction, 0, len(table.Records))
	for i, record := range table.Records {
		row := i + 1
		quantity, err := parseRequiredDecimal(row, ColumnQuantity, cell(record, ColumnQuantity))
		if err != nil {
			return nil, err
		}
		if quantity.IsNegative() {
			return nil, newProcessingErrorf("row %d: %s must not be negative, got %s", row, ColumnQuantity, quantity)
		}
		price, err := parseRequiredDecimal(row, ColumnPrice, cell(record, ColumnPrice))
		if err != nil {
			return nil, err
		}
		total, ok, err := parseOptionalDecimal(row, ColumnTotal, cell(record, ColumnTotal))
		if err != nil {
			return nil, err
		}
		if !ok {
			total = quantity.Mul(price)
		}
		tax, _, err := parseOptionalDecimal(row, ColumnTDS, cell(record, ColumnTDS))
		if err != nil {
			return nil, err
		}
		if tax.IsNegative() {
			return nil, newProcessingErrorf("row %d: %s must not be negative, got %s", row, ColumnTDS, tax)
		}
		transactions = append(transactions, &Transaction{
			Row:      row,
			Date:     parseDate(cell(record, ColumnDate)),
			Action:   actions[i],
			Asset:    strings.TrimSpace(cell(record, ColumnCoin)),
			Quantity: quantity,
			Price:    price,
			Total:    total,
			Tax:      tax,
		})
	}
	return transactions, nil
}

// *** PRIVATE ***

// newColumnIndex maps normalized header names to their first index.
func newColumnIndex(header []string) map[string]int {
	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if _, ok := columnIndex[key]; !ok {
			columnIndex[key] = i
		}
	}
	return columnIndex
}

// normalizeHeader lowercases and collapses all whitespace runs to single spaces.
func normalizeHeader(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// parseDate returns NIL for empty or unparseable dates.
func parseDate(raw string) nilable.Value[time.Time] {
	if t, ok := xtime.ParseTimestamp(raw); ok {
		return nilable.Of(t)
	}
	// XLSX date cells arrive as serial numbers.
	if t, ok := spreadsheet.ParseExcelSerial(raw); ok {
		return nilable.Of(t)
	}
	return nilable.Nil[time.Time]()
}

func parseRequiredDecimal(row int, column string, raw string) (decimal.Decimal, error) {
	value, ok, err := parseOptionalDecimal(row, column, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, newProcessingErrorf("row %d: %s is required", row, column)
	}
	return value, nil
}

// parseOptionalDecimal returns false if raw is empty.
func parseOptionalDecimal(row int, column string, raw string) (decimal.Decimal, bool, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if clean == "" {
		return decimal.Zero, false, nil
	}
	value, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false, newProcessingErrorf("row %d: invalid %s %q", row, column, raw)
	}
	return value, true, nil
}
