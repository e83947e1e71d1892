// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlledger

import (
	"errors"
	"testing"
	"time"

	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testHeader = []string{
	"Date",
	"Action",
	"Coin",
	"Quantity",
	"Price in  Base currency",
	"Total Price in Base currency",
	"Tds",
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		raw    string
		want   Action
		wantOK bool
	}{
		{raw: "Buy", want: ActionBuy, wantOK: true},
		{raw: "BUY", want: ActionBuy, wantOK: true},
		{raw: " b ", want: ActionBuy, wantOK: true},
		{raw: "sell", want: ActionSell, wantOK: true},
		{raw: "S", want: ActionSell, wantOK: true},
		{raw: "Transfer"},
		{raw: ""},
		{raw: "bought"},
	} {
		got, ok := ParseAction(test.raw)
		require.Equal(t, test.wantOK, ok, test.raw)
		if test.wantOK {
			require.Equal(t, test.want, got, test.raw)
		}
	}
}

func TestCheckColumns(t *testing.T) {
	t.Parallel()
	require.NoError(t, CheckColumns(testHeader))
	// Case and whitespace differences are accepted and Tds is optional.
	require.NoError(t, CheckColumns([]string{"date", "ACTION", "Coin", "Quantity", "Price in Base currency", " Total Price in Base currency "}))

	err := CheckColumns([]string{"Date", "Action", "Quantity"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"Coin", "Price in  Base currency", "Total Price in Base currency"}, validationErr.MissingColumns)
	require.Contains(t, err.Error(), "Coin")
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	transactions, err := Normalize(&spreadsheet.Table{
		Header: testHeader,
		Records: [][]string{
			{"2024-01-01 10:00:00", "Buy", "ETH", "10", "100", "1000", ""},
			{"2024-01-05", "s", " ETH ", "4", "150", "600", "1.5"},
			{"45292", "B", "TRX", "1,000", "0.1", "", ""},
			{"not a date", "SELL", "TRX", "5", "0.2", "1", "0"},
		},
	})
	require.NoError(t, err)
	require.Len(t, transactions, 4)

	buy := transactions[0]
	require.Equal(t, 1, buy.Row)
	require.Equal(t, ActionBuy, buy.Action)
	require.Equal(t, "ETH", buy.Asset)
	date, ok := buy.Date.Get()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), date)
	requireDecimal(t, "10", buy.Quantity)
	requireDecimal(t, "1000", buy.Total)
	requireDecimal(t, "0", buy.Tax)

	sell := transactions[1]
	require.Equal(t, ActionSell, sell.Action)
	require.Equal(t, "ETH", sell.Asset)
	requireDecimal(t, "1.5", sell.Tax)

	// Excel serial date, thousands separator and total derived from quantity × price.
	trx := transactions[2]
	date, ok = trx.Date.Get()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), date.UTC())
	requireDecimal(t, "1000", trx.Quantity)
	requireDecimal(t, "100", trx.Total)

	require.True(t, transactions[3].Date.IsNil())
}

func TestNormalizeInvalidActions(t *testing.T) {
	t.Parallel()
	_, err := Normalize(&spreadsheet.Table{
		Header: testHeader,
		Records: [][]string{
			{"2024-01-01", "Buy", "ETH", "10", "100", "1000", ""},
			{"2024-01-02", "Transfer", "ETH", "1", "100", "100", ""},
			{"2024-01-03", "Transfer", "ETH", "1", "100", "100", ""},
			// Invalid numerics are never reached when an action is invalid.
			{"2024-01-04", "Stake", "ETH", "abc", "100", "100", ""},
		},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"Transfer", "Stake"}, validationErr.InvalidActions)
	require.Contains(t, err.Error(), `"Transfer"`)
	require.Contains(t, err.Error(), `"Stake"`)
}

func TestNormalizeMissingColumns(t *testing.T) {
	t.Parallel()
	_, err := Normalize(&spreadsheet.Table{
		Header:  []string{"Date", "Action", "Coin", "Quantity"},
		Records: [][]string{{"2024-01-01", "Transfer", "ETH", "1"}},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Empty(t, validationErr.InvalidActions)
	require.Equal(t, []string{"Price in  Base currency", "Total Price in Base currency"}, validationErr.MissingColumns)
}

func TestNormalizeProcessingErrors(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name   string
		record []string
	}{
		{name: "malformed_quantity", record: []string{"2024-01-01", "Buy", "ETH", "ten", "100", "1000", ""}},
		{name: "missing_quantity", record: []string{"2024-01-01", "Buy", "ETH", "", "100", "1000", ""}},
		{name: "negative_quantity", record: []string{"2024-01-01", "Buy", "ETH", "-1", "100", "1000", ""}},
		{name: "malformed_price", record: []string{"2024-01-01", "Buy", "ETH", "1", "$100", "1000", ""}},
		{name: "malformed_total", record: []string{"2024-01-01", "Buy", "ETH", "1", "100", "n/a", ""}},
		{name: "negative_tax", record: []string{"2024-01-01", "Sell", "ETH", "1", "100", "100", "-2"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(&spreadsheet.Table{
				Header:  testHeader,
				Records: [][]string{test.record},
			})
			var processingErr *ProcessingError
			require.ErrorAs(t, err, &processingErr)
			require.Contains(t, err.Error(), "Data processing error: row 1")
			var validationErr *ValidationError
			require.False(t, errors.As(err, &validationErr))
		})
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
