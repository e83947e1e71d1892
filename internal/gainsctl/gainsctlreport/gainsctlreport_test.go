// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlreport

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
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

func TestGenerate(t *testing.T) {
	t.Parallel()
	result, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{
			Header: testHeader,
			Records: [][]string{
				{"2024-01-01", "Buy", "ETH", "10", "100", "1000", ""},
				{"2024-01-05", "Sell", "ETH", "4", "150", "600", "2"},
			},
		},
	)
	require.NoError(t, err)
	require.Empty(t, result.Errors())
	want := [][]string{
		{"ETH", "05/01/2024 00:00:00", "4", "01/01/2024 00:00:00", "4", "100", "150", "400.00", "NIL", "600.00", "200.00", "2.00", "DONE"},
		{"ETH", "NIL", "NIL", "01/01/2024 00:00:00", "6", "100", "NIL", "600.00", "NIL", "NIL", "NIL", "0.00", "BALANCE CARRIED FORWARD"},
	}
	if diff := cmp.Diff(want, RowsToRecords(result.Unrestricted.Rows)); diff != "" {
		t.Errorf("unrestricted mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, RowsToRecords(result.Windowed.Rows)); diff != "" {
		t.Errorf("windowed mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, result.Unrestricted.DaysLimit)
	require.True(t, result.Unrestricted.Cutoff.IsNil())
	require.Equal(t, DefaultDaysLimit, result.Windowed.DaysLimit)
	require.Equal(t, nilable.Of(time.Date(2023, 12, 26, 0, 0, 0, 0, time.UTC)), result.Windowed.Cutoff)
}

func TestGenerateWindowMatchesOldBuys(t *testing.T) {
	t.Parallel()
	result, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{
			Header: testHeader,
			Records: [][]string{
				{"2024-03-01", "Buy", "BNB", "10", "300", "3000", ""},
				{"2024-03-05", "Sell", "BNB", "2", "310", "620", "1"},
				{"2024-03-28", "Sell", "BNB", "3", "400", "1200", "1"},
				{"2024-03-31", "Buy", "TRX", "100", "0.1", "10", ""},
			},
		},
		GenerateWithDaysLimit(10),
	)
	require.NoError(t, err)

	require.Len(t, result.Unrestricted.Rows, 4)
	require.Len(t, result.Windowed.Rows, 3)
	// The windowed sell is matched against the buy from thirty days earlier.
	sell := result.Windowed.Rows[1]
	require.Equal(t, "BNB", sell.Asset)
	require.Equal(t, gainsctlfifo.RowKindSettled, sell.Kind)
	require.Equal(t, nilable.Of(time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)), sell.SellDate)
	require.Equal(t, nilable.Of(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), sell.BuyDate)
	// Without the early sell, more of the lot is carried forward.
	carried := result.Windowed.Rows[2]
	require.Equal(t, gainsctlfifo.RowKindCarriedForward, carried.Kind)
	amount, ok := carried.BuyAmountUsed.Get()
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(7).Equal(amount))
	// TRX sorts first.
	require.Equal(t, "TRX", result.Windowed.Rows[0].Asset)
}

func TestGenerateInvalidAction(t *testing.T) {
	t.Parallel()
	result, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{
			Header: testHeader,
			Records: [][]string{
				{"2024-01-01", "Buy", "ETH", "10", "100", "1000", ""},
				{"2024-01-02", "Transfer", "ETH", "1", "100", "100", ""},
			},
		},
	)
	var validationErr *gainsctlledger.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, err.Error(), "Transfer")
	require.Nil(t, result)
}

func TestGenerateMissingColumns(t *testing.T) {
	t.Parallel()
	_, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{Header: []string{"Date", "Action"}},
	)
	var validationErr *gainsctlledger.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.MissingColumns, 4)
}

func TestGeneratePassFailureIsIsolated(t *testing.T) {
	t.Parallel()
	// Only the windowed pass sees fewer than three transactions.
	panicOnWindow := func(generateOptions *generateOptions) {
		generateOptions.match = func(transactions []*gainsctlledger.Transaction) (*gainsctlfifo.Result, error) {
			if len(transactions) < 3 {
				panic("lot queue corrupted")
			}
			return gainsctlfifo.Match(transactions)
		}
	}
	result, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{
			Header: testHeader,
			Records: [][]string{
				{"2024-01-01", "Buy", "ETH", "10", "100", "1000", ""},
				{"2024-01-02", "Sell", "ETH", "1", "100", "100", ""},
				{"2024-03-01", "Sell", "ETH", "1", "100", "100", ""},
			},
		},
		panicOnWindow,
	)
	require.NoError(t, err)
	require.Empty(t, result.Unrestricted.Errors)
	require.Len(t, result.Unrestricted.Rows, 3)
	require.Len(t, result.Windowed.Errors, 1)
	require.Empty(t, result.Windowed.Rows)
	require.Equal(t, "Data processing error: lot queue corrupted", result.Windowed.Errors[0].Error())
	require.Len(t, result.Errors(), 1)
}

func TestGenerateIdempotent(t *testing.T) {
	t.Parallel()
	table := &spreadsheet.Table{
		Header: testHeader,
		Records: [][]string{
			{"2024-01-01", "Buy", "XRP", "100", "0.5", "", ""},
			{"2024-01-02", "Buy", "XRP", "50", "0.6", "", ""},
			{"2024-01-03", "Sell", "XRP", "120", "0.7", "", "1.11"},
			{"2024-01-04", "Sell", "XRP", "40", "0.8", "", "0.5"},
		},
	}
	first, err := Generate(context.Background(), slog.New(slog.DiscardHandler), table)
	require.NoError(t, err)
	second, err := Generate(context.Background(), slog.New(slog.DiscardHandler), table)
	require.NoError(t, err)
	require.Equal(t, RowsToRecords(first.Unrestricted.Rows), RowsToRecords(second.Unrestricted.Rows))
}

func TestGenerateCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, slog.New(slog.DiscardHandler), &spreadsheet.Table{Header: testHeader})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAssemble(t *testing.T) {
	t.Parallel()
	rows := []*gainsctlfifo.Row{
		newRow("DOGE", nilable.Of(day(1))),
		newRow("ETH", nilable.Nil[time.Time]()),
		newRow("ETH", nilable.Of(day(3))),
		newRow("ADA", nilable.Of(day(2))),
		newRow("TRX", nilable.Of(day(9))),
		newRow("ETH", nilable.Of(day(2))),
		newRow("DOGE", nilable.Nil[time.Time]()),
	}
	assembled := Assemble(rows, DefaultAssetOrder())
	type key struct {
		asset string
		date  string
	}
	var got []key
	for _, row := range assembled {
		got = append(got, key{asset: row.Asset, date: row.SellDate.Format(func(t time.Time) string { return t.Format(time.DateOnly) })})
	}
	want := []key{
		{asset: "TRX", date: "2024-01-09"},
		{asset: "ETH", date: "2024-01-02"},
		{asset: "ETH", date: "2024-01-03"},
		{asset: "ETH", date: "NIL"},
		{asset: "ADA", date: "2024-01-02"},
		{asset: "DOGE", date: "2024-01-01"},
		{asset: "DOGE", date: "NIL"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(key{})); diff != "" {
		t.Errorf("Assemble mismatch (-want +got):\n%s", diff)
	}
	// The input is not reordered.
	require.Equal(t, "DOGE", rows[0].Asset)

	custom := Assemble(rows, []string{"DOGE"})
	require.Equal(t, "DOGE", custom[0].Asset)
	require.Equal(t, "DOGE", custom[1].Asset)
	require.Equal(t, "ADA", custom[2].Asset)
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()
	rows := []*gainsctlfifo.Row{
		{
			CostBasis:  nilable.Of(decimal.RequireFromString("400")),
			Proceeds:   nilable.Of(decimal.RequireFromString("600")),
			ProfitLoss: nilable.Of(decimal.RequireFromString("200")),
			TDS:        decimal.RequireFromString("2"),
		},
		{
			CostBasis:  nilable.Nil[decimal.Decimal](),
			Proceeds:   nilable.Of(decimal.RequireFromString("40.5")),
			ProfitLoss: nilable.Nil[decimal.Decimal](),
			TDS:        decimal.RequireFromString("0.25"),
		},
	}
	totals := ComputeTotals(rows)
	require.Equal(
		t,
		[]string{"TOTAL", "", "", "", "", "", "", "400.00", "", "640.50", "200.00", "2.25", ""},
		TotalsToRecord(totals),
	)
}

func TestRowsToPreview(t *testing.T) {
	t.Parallel()
	preview := RowsToPreview([]*gainsctlfifo.Row{newRow("ETH", nilable.Nil[time.Time]())})
	require.Len(t, preview, 1)
	require.Len(t, preview[0], len(Headers()))
	require.Equal(t, "ETH", preview[0][HeaderAsset])
	require.Equal(t, "NIL", preview[0][HeaderSellDate])
	require.Equal(t, "NIL", preview[0][HeaderProceedsUSDT])
	require.Equal(t, "0.00", preview[0][HeaderTDS])
}

func TestOpenLots(t *testing.T) {
	t.Parallel()
	result, err := Generate(
		context.Background(),
		slog.New(slog.DiscardHandler),
		&spreadsheet.Table{
			Header: testHeader,
			Records: [][]string{
				{"2024-01-01", "Buy", "ETH", "10", "100", "1000", ""},
				{"2024-01-02", "Buy", "ETH", "5", "120", "600", ""},
				{"2024-01-03", "Buy", "BNB", "2", "300", "600", ""},
				{"2024-01-05", "Sell", "ETH", "12", "150", "1800", ""},
			},
		},
	)
	require.NoError(t, err)
	openLots := lo.Map(OpenLotRows(result.Unrestricted, ""), func(row *gainsctlfifo.Row, _ int) *OpenLot {
		return RowToOpenLot(row)
	})
	require.Equal(
		t,
		[]*OpenLot{
			{Asset: "BNB", BuyDate: "03/01/2024 00:00:00", Quantity: "2", BuyPrice: "300", CostBasis: "600.00"},
			{Asset: "ETH", BuyDate: "02/01/2024 00:00:00", Quantity: "3", BuyPrice: "120", CostBasis: "360.00"},
		},
		openLots,
	)
	ethRows := OpenLotRows(result.Unrestricted, "eth")
	require.Len(t, ethRows, 1)
	require.Equal(t, []string{"ETH", "02/01/2024 00:00:00", "3", "120", "360.00"}, OpenLotToRecord(RowToOpenLot(ethRows[0])))
	require.Equal(
		t,
		[]string{"TOTAL", "", "", "", "960.00"},
		OpenLotsTotalsToRecord(ComputeTotals(OpenLotRows(result.Unrestricted, ""))),
	)
	require.Len(t, OpenLotHeaders(), len(OpenLotToRecord(openLots[0])))
}

func day(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func newRow(asset string, sellDate nilable.Value[time.Time]) *gainsctlfifo.Row {
	return &gainsctlfifo.Row{
		Kind:     gainsctlfifo.RowKindSettled,
		Asset:    asset,
		SellDate: sellDate,
		TDS:      decimal.Zero,
	}
}
