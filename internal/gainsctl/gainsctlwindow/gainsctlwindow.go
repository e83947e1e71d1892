// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlwindow restricts the sells of a ledger to a trailing window of days.
package gainsctlwindow

import (
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/bufdev/gainsctl/internal/standard/xtime"
)

// Cutoff returns the earliest sell date kept for a window of days.
//
// The cutoff is the latest date across all transactions, buys and sells,
// moved back by days. Returns NIL if days is not positive or no transaction
// has a date.
func Cutoff(transactions []*gainsctlledger.Transaction, days int) nilable.Value[time.Time] {
	if days <= 0 {
		return nilable.Nil[time.Time]()
	}
	var latest time.Time
	var found bool
	for _, transaction := range transactions {
		date, ok := transaction.Date.Get()
		if !ok {
			continue
		}
		if !found || date.After(latest) {
			latest = date
			found = true
		}
	}
	if !found {
		return nilable.Nil[time.Time]()
	}
	return nilable.Of(xtime.DaysBefore(latest, days))
}

// Filter returns the transactions to match for a window of days.
//
// If days is not positive, transactions is returned unchanged. Otherwise every
// buy is kept regardless of date, so windowed sells still match against the
// full buy history, and only sells dated on or after the Cutoff are kept.
// Sells without a date are dropped. Input order is preserved.
func Filter(transactions []*gainsctlledger.Transaction, days int) []*gainsctlledger.Transaction {
	if days <= 0 {
		return transactions
	}
	cutoff, hasCutoff := Cutoff(transactions, days).Get()
	filtered := make([]*gainsctlledger.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		if transaction.Action == gainsctlledger.ActionBuy {
			filtered = append(filtered, transaction)
			continue
		}
		date, ok := transaction.Date.Get()
		if !ok || !hasCutoff || date.Before(cutoff) {
			continue
		}
		filtered = append(filtered, transaction)
	}
	return filtered
}
