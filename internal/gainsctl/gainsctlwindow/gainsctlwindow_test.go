// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlwindow

import (
	"testing"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	t.Parallel()
	latest := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	oldBuy := newTransaction(1, gainsctlledger.ActionBuy, nilable.Of(latest.AddDate(0, 0, -30)))
	oldSell := newTransaction(2, gainsctlledger.ActionSell, nilable.Of(latest.AddDate(0, 0, -11)))
	edgeSell := newTransaction(3, gainsctlledger.ActionSell, nilable.Of(latest.AddDate(0, 0, -10)))
	recentSell := newTransaction(4, gainsctlledger.ActionSell, nilable.Of(latest.AddDate(0, 0, -3)))
	undatedSell := newTransaction(5, gainsctlledger.ActionSell, nilable.Nil[time.Time]())
	undatedBuy := newTransaction(6, gainsctlledger.ActionBuy, nilable.Nil[time.Time]())
	latestBuy := newTransaction(7, gainsctlledger.ActionBuy, nilable.Of(latest))
	transactions := []*gainsctlledger.Transaction{
		oldBuy,
		oldSell,
		edgeSell,
		recentSell,
		undatedSell,
		undatedBuy,
		latestBuy,
	}

	require.Equal(t, transactions, Filter(transactions, 0))
	require.Equal(
		t,
		[]*gainsctlledger.Transaction{oldBuy, edgeSell, recentSell, undatedBuy, latestBuy},
		Filter(transactions, 10),
	)
	// A wide window keeps every dated sell.
	require.Equal(
		t,
		[]*gainsctlledger.Transaction{oldBuy, oldSell, edgeSell, recentSell, undatedBuy, latestBuy},
		Filter(transactions, 365),
	)
}

func TestFilterNoDates(t *testing.T) {
	t.Parallel()
	buy := newTransaction(1, gainsctlledger.ActionBuy, nilable.Nil[time.Time]())
	sell := newTransaction(2, gainsctlledger.ActionSell, nilable.Nil[time.Time]())
	require.Equal(t, []*gainsctlledger.Transaction{buy}, Filter([]*gainsctlledger.Transaction{buy, sell}, 10))
}

func TestCutoff(t *testing.T) {
	t.Parallel()
	latest := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	transactions := []*gainsctlledger.Transaction{
		// The latest date may come from a buy.
		newTransaction(1, gainsctlledger.ActionSell, nilable.Of(latest.AddDate(0, 0, -2))),
		newTransaction(2, gainsctlledger.ActionBuy, nilable.Of(latest)),
		newTransaction(3, gainsctlledger.ActionSell, nilable.Nil[time.Time]()),
	}
	cutoff, ok := Cutoff(transactions, 4).Get()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cutoff)
	require.True(t, Cutoff(transactions, 0).IsNil())
	require.True(t, Cutoff(nil, 4).IsNil())
}

func newTransaction(row int, action gainsctlledger.Action, date nilable.Value[time.Time]) *gainsctlledger.Transaction {
	return &gainsctlledger.Transaction{
		Row:    row,
		Date:   date,
		Action: action,
		Asset:  "ETH",
	}
}
