// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlreport assembles FIFO match rows into ordered realized-gains reports.
package gainsctlreport

import (
	"cmp"
	"slices"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/bufdev/gainsctl/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// Report column names, in order.
//
// "Proceds USDT" keeps the spelling of existing report consumers.
const (
	HeaderAsset         = "ASSET"
	HeaderSellDate      = "Sell Date"
	HeaderSellAmount    = "Sell Amount"
	HeaderBuyDate       = "Buy Date"
	HeaderBuyAmountUsed = "Buy Amount Used"
	HeaderBuyPrice      = "Buy Price"
	HeaderSellPrice     = "Sell Price"
	HeaderCostBasis     = "Cost Basis"
	HeaderProceedsUSDT  = "Proceds USDT"
	HeaderProceeds      = "Proceeds"
	HeaderProfitLoss    = "P/L"
	HeaderTDS           = "TDS"
	HeaderRemark        = "REMARK"
)

// Report is the output of one matching pass.
type Report struct {
	// DaysLimit is the window in days, or 0 for the unrestricted report.
	DaysLimit int
	// Cutoff is the earliest sell date kept, NIL for the unrestricted report.
	Cutoff nilable.Value[time.Time]
	// Rows are in display order.
	Rows []*gainsctlfifo.Row
	// Shortfalls are the sells of this pass that exceeded the open lots.
	Shortfalls []*gainsctlfifo.Shortfall
	// Errors are the processing errors that aborted this pass.
	//
	// If Errors is non-empty, Rows and Shortfalls are empty.
	Errors []*gainsctlledger.ProcessingError
}

// Totals are the sums of the monetary columns of a report. NIL cells are skipped.
type Totals struct {
	CostBasis  decimal.Decimal
	Proceeds   decimal.Decimal
	ProfitLoss decimal.Decimal
	TDS        decimal.Decimal
}

// DefaultAssetOrder returns the default display order of assets.
func DefaultAssetOrder() []string {
	return []string{"TRX", "BNB", "ETH", "XRP", "USDT"}
}

// Assemble returns rows in display order.
//
// Rows are ordered by the position of their asset in assetOrder. Assets not
// in assetOrder come after all listed assets, ordered by name. Within an
// asset, rows are ordered by sell date with NIL sell dates last. The sort is
// stable, so rows that compare equal keep their match order.
//
// Assemble does not modify rows.
func Assemble(rows []*gainsctlfifo.Row, assetOrder []string) []*gainsctlfifo.Row {
	assetIndex := make(map[string]int, len(assetOrder))
	for i, asset := range assetOrder {
		if _, ok := assetIndex[asset]; !ok {
			assetIndex[asset] = i
		}
	}
	rank := func(asset string) int {
		if index, ok := assetIndex[asset]; ok {
			return index
		}
		return len(assetOrder)
	}
	assembled := slices.Clone(rows)
	slices.SortStableFunc(assembled, func(a *gainsctlfifo.Row, b *gainsctlfifo.Row) int {
		if c := cmp.Compare(rank(a.Asset), rank(b.Asset)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Asset, b.Asset); c != 0 {
			return c
		}
		return gainsctlfifo.CompareDates(a.SellDate, b.SellDate)
	})
	return assembled
}

// Headers returns the report column names.
func Headers() []string {
	return []string{
		HeaderAsset,
		HeaderSellDate,
		HeaderSellAmount,
		HeaderBuyDate,
		HeaderBuyAmountUsed,
		HeaderBuyPrice,
		HeaderSellPrice,
		HeaderCostBasis,
		HeaderProceedsUSDT,
		HeaderProceeds,
		HeaderProfitLoss,
		HeaderTDS,
		HeaderRemark,
	}
}

// RowToRecord renders a row as strings in Headers order.
//
// Dates use xtime.ReportLayout, monetary cells have two decimal places,
// quantities and prices are exact, and inapplicable cells are NIL.
func RowToRecord(row *gainsctlfifo.Row) []string {
	return []string{
		row.Asset,
		row.SellDate.Format(xtime.FormatReport),
		row.SellAmount.Format(formatExact),
		row.BuyDate.Format(xtime.FormatReport),
		row.BuyAmountUsed.Format(formatExact),
		row.BuyPrice.Format(formatExact),
		row.SellPrice.Format(formatExact),
		row.CostBasis.Format(formatMoney),
		nilable.NIL,
		row.Proceeds.Format(formatMoney),
		row.ProfitLoss.Format(formatMoney),
		formatMoney(row.TDS),
		row.Remark,
	}
}

// RowsToRecords renders rows with RowToRecord.
func RowsToRecords(rows []*gainsctlfifo.Row) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = RowToRecord(row)
	}
	return records
}

// RowsToPreview renders rows as column name to cell maps.
func RowsToPreview(rows []*gainsctlfifo.Row) []map[string]string {
	headers := Headers()
	preview := make([]map[string]string, len(rows))
	for i, row := range rows {
		record := RowToRecord(row)
		entry := make(map[string]string, len(headers))
		for j, header := range headers {
			entry[header] = record[j]
		}
		preview[i] = entry
	}
	return preview
}

// ComputeTotals sums the monetary columns of rows.
func ComputeTotals(rows []*gainsctlfifo.Row) *Totals {
	totals := &Totals{
		CostBasis:  decimal.Zero,
		Proceeds:   decimal.Zero,
		ProfitLoss: decimal.Zero,
		TDS:        decimal.Zero,
	}
	add := func(sum decimal.Decimal, value nilable.Value[decimal.Decimal]) decimal.Decimal {
		if v, ok := value.Get(); ok {
			return sum.Add(v)
		}
		return sum
	}
	for _, row := range rows {
		totals.CostBasis = add(totals.CostBasis, row.CostBasis)
		totals.Proceeds = add(totals.Proceeds, row.Proceeds)
		totals.ProfitLoss = add(totals.ProfitLoss, row.ProfitLoss)
		totals.TDS = totals.TDS.Add(row.TDS)
	}
	return totals
}

// TotalsToRecord renders totals as a row aligned with Headers.
func TotalsToRecord(totals *Totals) []string {
	record := make([]string, len(Headers()))
	record[0] = "TOTAL"
	record[7] = formatMoney(totals.CostBasis)
	record[9] = formatMoney(totals.Proceeds)
	record[10] = formatMoney(totals.ProfitLoss)
	record[11] = formatMoney(totals.TDS)
	return record
}

// *** PRIVATE ***

func formatExact(value decimal.Decimal) string {
	return value.String()
}

func formatMoney(value decimal.Decimal) string {
	return value.StringFixedBank(2)
}
