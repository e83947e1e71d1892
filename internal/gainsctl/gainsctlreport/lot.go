// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlreport

import (
	"strings"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/standard/xtime"
)

// OpenLot is a buy lot still open after all sells.
type OpenLot struct {
	Asset     string `json:"asset"`
	BuyDate   string `json:"buy_date"`
	Quantity  string `json:"quantity"`
	BuyPrice  string `json:"buy_price"`
	CostBasis string `json:"cost_basis"`
}

// OpenLotRows returns the carried-forward rows of a report.
//
// If asset is non-empty, only rows of that asset are returned. Assets are
// compared case-insensitively.
func OpenLotRows(report *Report, asset string) []*gainsctlfifo.Row {
	var rows []*gainsctlfifo.Row
	for _, row := range report.Rows {
		if row.Kind != gainsctlfifo.RowKindCarriedForward {
			continue
		}
		if asset != "" && !strings.EqualFold(row.Asset, asset) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// RowToOpenLot renders a carried-forward row as an OpenLot.
func RowToOpenLot(row *gainsctlfifo.Row) *OpenLot {
	return &OpenLot{
		Asset:     row.Asset,
		BuyDate:   row.BuyDate.Format(xtime.FormatReport),
		Quantity:  row.BuyAmountUsed.Format(formatExact),
		BuyPrice:  row.BuyPrice.Format(formatExact),
		CostBasis: row.CostBasis.Format(formatMoney),
	}
}

// OpenLotHeaders returns the column names for open lots.
func OpenLotHeaders() []string {
	return []string{HeaderAsset, HeaderBuyDate, "Quantity", HeaderBuyPrice, HeaderCostBasis}
}

// OpenLotToRecord renders an open lot in OpenLotHeaders order.
func OpenLotToRecord(openLot *OpenLot) []string {
	return []string{openLot.Asset, openLot.BuyDate, openLot.Quantity, openLot.BuyPrice, openLot.CostBasis}
}

// OpenLotsTotalsToRecord renders the totals of open lot rows aligned with OpenLotHeaders.
//
// Only the cost basis is summed, quantities of different assets do not add up.
func OpenLotsTotalsToRecord(totals *Totals) []string {
	return []string{"TOTAL", "", "", "", formatMoney(totals.CostBasis)}
}
