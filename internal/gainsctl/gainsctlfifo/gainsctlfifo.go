// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlfifo matches sells against open buy lots using FIFO ordering.
package gainsctlfifo

import (
	"fmt"
	"slices"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	// RemarkDone is the remark of a settled row.
	RemarkDone = "DONE"
	// RemarkCarriedForward is the remark of a lot still open after all transactions.
	RemarkCarriedForward = "BALANCE CARRIED FORWARD"
)

// moneyPlaces is the number of decimal places monetary values are rounded to on emission.
const moneyPlaces = 2

// RowKind is the kind of a report row.
type RowKind int

const (
	// RowKindSettled is a sell chunk matched against one lot.
	RowKindSettled RowKind = iota + 1
	// RowKindShortfall is the unmatched remainder of a sell that exceeded the open lots.
	RowKindShortfall
	// RowKindCarriedForward is a lot still open after all transactions of its asset.
	RowKindCarriedForward
)

// String returns a human-readable name for the kind.
func (k RowKind) String() string {
	switch k {
	case RowKindSettled:
		return "settled"
	case RowKindShortfall:
		return "shortfall"
	case RowKindCarriedForward:
		return "carried_forward"
	default:
		return fmt.Sprintf("RowKind(%d)", int(k))
	}
}

// Row is a single report row.
//
// Cells that do not apply to the row's kind are NIL. Monetary cells
// (CostBasis, Proceeds, ProfitLoss, TDS) are already rounded. Quantities and
// prices are exact.
type Row struct {
	Kind          RowKind
	Asset         string
	SellDate      nilable.Value[time.Time]
	SellAmount    nilable.Value[decimal.Decimal]
	BuyDate       nilable.Value[time.Time]
	BuyAmountUsed nilable.Value[decimal.Decimal]
	BuyPrice      nilable.Value[decimal.Decimal]
	SellPrice     nilable.Value[decimal.Decimal]
	CostBasis     nilable.Value[decimal.Decimal]
	Proceeds      nilable.Value[decimal.Decimal]
	// ProfitLoss is also NIL on a settled row that broke exactly even.
	ProfitLoss nilable.Value[decimal.Decimal]
	TDS        decimal.Decimal
	Remark     string
}

// Shortfall records a sell whose quantity exceeded the open lots of its asset.
//
// Shortfalls are not errors. The matched portion is settled and the remainder
// is reported as a RowKindShortfall row.
type Shortfall struct {
	// Asset is the asset of the sell.
	Asset string
	// Row is the source ledger row of the sell.
	Row int
	// SellDate is the date of the sell.
	SellDate nilable.Value[time.Time]
	// Requested is the sell quantity.
	Requested decimal.Decimal
	// Available is the open lot quantity at the time of the sell.
	Available decimal.Decimal
	// Unmatched is Requested - Available.
	Unmatched decimal.Decimal
}

// Result contains the output of FIFO matching.
type Result struct {
	// Rows are grouped by asset in lexical order. Within an asset, rows
	// follow transaction order, and carried-forward lots come last.
	Rows []*Row
	// Shortfalls are the sells that could not be fully matched.
	Shortfalls []*Shortfall
}

// ShortfallRemark returns the remark of a shortfall row.
func ShortfallRemark(available decimal.Decimal) string {
	return fmt.Sprintf("ERROR - INSUFFICIENT BUY RECORDS (Available: %s)", available.String())
}

// Match matches the sells of transactions against buy lots using FIFO ordering.
//
// Transactions are grouped by asset, and each asset is matched independently
// with its own lot queue. Within an asset, transactions are processed in
// ascending date order. Ties keep ledger order and undated transactions
// come last.
//
// Match does not modify transactions.
func Match(transactions []*gainsctlledger.Transaction) (*Result, error) {
	assetTransactions := lo.GroupBy(transactions, func(transaction *gainsctlledger.Transaction) string {
		return transaction.Asset
	})
	assets := lo.Keys(assetTransactions)
	slices.Sort(assets)
	result := &Result{}
	for _, asset := range assets {
		// GroupBy returns fresh slices, sorting them does not reorder the input.
		transactions := assetTransactions[asset]
		slices.SortStableFunc(transactions, compareTransactionDates)
		matcher := newAssetMatcher(asset)
		for _, transaction := range transactions {
			if err := matcher.add(transaction); err != nil {
				return nil, err
			}
		}
		result.Rows = append(result.Rows, matcher.rows...)
		result.Rows = append(result.Rows, matcher.carriedForwardRows()...)
		result.Shortfalls = append(result.Shortfalls, matcher.shortfalls...)
	}
	return result, nil
}

// CompareDates orders dates ascending with NIL last.
func CompareDates(a nilable.Value[time.Time], b nilable.Value[time.Time]) int {
	aDate, aOK := a.Get()
	bDate, bOK := b.Get()
	switch {
	case aOK && bOK:
		return aDate.Compare(bDate)
	case aOK:
		return -1
	case bOK:
		return 1
	default:
		return 0
	}
}

// *** PRIVATE ***

// lot is an open buy position. Quantity and cost basis are reduced as sells consume it.
type lot struct {
	date      nilable.Value[time.Time]
	quantity  decimal.Decimal
	price     decimal.Decimal
	costBasis decimal.Decimal
}

// lotMatch is the portion of a sell satisfied by a single lot.
type lotMatch struct {
	lotDate   nilable.Value[time.Time]
	lotPrice  decimal.Decimal
	quantity  decimal.Decimal
	costBasis decimal.Decimal
	proceeds  decimal.Decimal
}

// assetMatcher holds the lot queue of one asset for one matching pass.
type assetMatcher struct {
	asset      string
	lots       []*lot
	rows       []*Row
	shortfalls []*Shortfall
}

func newAssetMatcher(asset string) *assetMatcher {
	return &assetMatcher{
		asset: asset,
	}
}

func (m *assetMatcher) add(transaction *gainsctlledger.Transaction) error {
	switch transaction.Action {
	case gainsctlledger.ActionBuy:
		m.lots = append(m.lots, &lot{
			date:      transaction.Date,
			quantity:  transaction.Quantity,
			price:     transaction.Price,
			costBasis: transaction.Total,
		})
		return nil
	case gainsctlledger.ActionSell:
		m.sell(transaction)
		return nil
	default:
		return fmt.Errorf("row %d has unknown action %v", transaction.Row, transaction.Action)
	}
}

func (m *assetMatcher) sell(transaction *gainsctlledger.Transaction) {
	quantity := transaction.Quantity
	tax := transaction.Tax
	available := m.available()
	if available.GreaterThanOrEqual(quantity) {
		for i, match := range m.consume(quantity, transaction.Price) {
			// The whole tax goes to the first chunk.
			chunkTax := decimal.Zero
			if i == 0 {
				chunkTax = round(tax)
			}
			m.rows = append(m.rows, m.newSettledRow(transaction, match, chunkTax))
		}
		return
	}
	// Settle what is available, with tax allocated in proportion to the full sell quantity.
	if available.IsPositive() {
		for _, match := range m.consume(available, transaction.Price) {
			chunkTax := round(tax.Mul(match.quantity).Div(quantity))
			m.rows = append(m.rows, m.newSettledRow(transaction, match, chunkTax))
		}
	}
	unmatched := quantity.Sub(available)
	if !unmatched.IsPositive() {
		return
	}
	m.rows = append(m.rows, &Row{
		Kind:          RowKindShortfall,
		Asset:         m.asset,
		SellDate:      transaction.Date,
		SellAmount:    nilable.Of(unmatched),
		BuyDate:       nilable.Nil[time.Time](),
		BuyAmountUsed: nilable.Nil[decimal.Decimal](),
		BuyPrice:      nilable.Nil[decimal.Decimal](),
		SellPrice:     nilable.Of(transaction.Price),
		CostBasis:     nilable.Nil[decimal.Decimal](),
		Proceeds:      nilable.Of(round(unmatched.Mul(transaction.Price))),
		ProfitLoss:    nilable.Nil[decimal.Decimal](),
		TDS:           round(tax.Mul(unmatched).Div(quantity)),
		Remark:        ShortfallRemark(available),
	})
	m.shortfalls = append(m.shortfalls, &Shortfall{
		Asset:     m.asset,
		Row:       transaction.Row,
		SellDate:  transaction.Date,
		Requested: quantity,
		Available: available,
		Unmatched: unmatched,
	})
}

// available returns the total open quantity.
func (m *assetMatcher) available() decimal.Decimal {
	available := decimal.Zero
	for _, lot := range m.lots {
		available = available.Add(lot.quantity)
	}
	return available
}

// consume takes quantity from the head of the lot queue.
//
// Fully consumed lots are popped. A partially consumed head lot keeps the
// remainder, with its cost basis reduced in proportion to the quantity left.
func (m *assetMatcher) consume(quantity decimal.Decimal, sellPrice decimal.Decimal) []lotMatch {
	var matches []lotMatch
	remaining := quantity
	for remaining.IsPositive() && len(m.lots) > 0 {
		head := m.lots[0]
		before := head.quantity
		var used decimal.Decimal
		if before.LessThanOrEqual(remaining) {
			used = before
			m.lots = m.lots[1:]
		} else {
			used = remaining
			head.quantity = before.Sub(remaining)
			head.costBasis = head.costBasis.Mul(head.quantity).Div(before)
		}
		matches = append(matches, lotMatch{
			lotDate:   head.date,
			lotPrice:  head.price,
			quantity:  used,
			costBasis: used.Mul(head.price),
			proceeds:  used.Mul(sellPrice),
		})
		remaining = remaining.Sub(used)
	}
	return matches
}

func (m *assetMatcher) newSettledRow(transaction *gainsctlledger.Transaction, match lotMatch, tax decimal.Decimal) *Row {
	profitLoss := nilable.Nil[decimal.Decimal]()
	if pl := match.proceeds.Sub(match.costBasis); !pl.IsZero() {
		profitLoss = nilable.Of(round(pl))
	}
	return &Row{
		Kind:          RowKindSettled,
		Asset:         m.asset,
		SellDate:      transaction.Date,
		SellAmount:    nilable.Of(match.quantity),
		BuyDate:       match.lotDate,
		BuyAmountUsed: nilable.Of(match.quantity),
		BuyPrice:      nilable.Of(match.lotPrice),
		SellPrice:     nilable.Of(transaction.Price),
		CostBasis:     nilable.Of(round(match.costBasis)),
		Proceeds:      nilable.Of(round(match.proceeds)),
		ProfitLoss:    profitLoss,
		TDS:           tax,
		Remark:        RemarkDone,
	}
}

func (m *assetMatcher) carriedForwardRows() []*Row {
	rows := make([]*Row, 0, len(m.lots))
	for _, lot := range m.lots {
		rows = append(rows, &Row{
			Kind:          RowKindCarriedForward,
			Asset:         m.asset,
			SellDate:      nilable.Nil[time.Time](),
			SellAmount:    nilable.Nil[decimal.Decimal](),
			BuyDate:       lot.date,
			BuyAmountUsed: nilable.Of(lot.quantity),
			BuyPrice:      nilable.Of(lot.price),
			SellPrice:     nilable.Nil[decimal.Decimal](),
			CostBasis:     nilable.Of(round(lot.costBasis)),
			Proceeds:      nilable.Nil[decimal.Decimal](),
			ProfitLoss:    nilable.Nil[decimal.Decimal](),
			TDS:           decimal.Zero,
			Remark:        RemarkCarriedForward,
		})
	}
	return rows
}

// compareTransactionDates orders by date ascending with undated transactions last.
func compareTransactionDates(a *gainsctlledger.Transaction, b *gainsctlledger.Transaction) int {
	return CompareDates(a.Date, b.Date)
}

func round(value decimal.Decimal) decimal.Decimal {
	return value.RoundBank(moneyPlaces)
}
