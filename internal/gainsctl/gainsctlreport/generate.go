// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlreport

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlwindow"
	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"golang.org/x/sync/errgroup"
)

// DefaultDaysLimit is the window used when none is given.
const DefaultDaysLimit = 10

// Result contains both reports of a ledger.
type Result struct {
	// Unrestricted covers every sell.
	Unrestricted *Report
	// Windowed covers only sells within the days limit, matched against all buys.
	Windowed *Report
}

// Errors returns the processing errors of both reports.
func (r *Result) Errors() []*gainsctlledger.ProcessingError {
	return slices.Concat(r.Unrestricted.Errors, r.Windowed.Errors)
}

// GenerateOption is a functional option for Generate.
type GenerateOption func(*generateOptions)

// GenerateWithDaysLimit sets the window of the windowed report.
//
// Values that are not positive are ignored and DefaultDaysLimit is used.
func GenerateWithDaysLimit(daysLimit int) GenerateOption {
	return func(generateOptions *generateOptions) {
		if daysLimit > 0 {
			generateOptions.daysLimit = daysLimit
		}
	}
}

// GenerateWithAssetOrder sets the display order of assets.
//
// The default is DefaultAssetOrder. An empty order sorts all assets by name.
func GenerateWithAssetOrder(assetOrder []string) GenerateOption {
	return func(generateOptions *generateOptions) {
		generateOptions.assetOrder = assetOrder
	}
}

// Generate produces the unrestricted and windowed reports of a ledger.
//
// Missing columns and invalid actions return a *gainsctlledger.ValidationError,
// and malformed cells return a *gainsctlledger.ProcessingError. Both are fatal
// for the ledger and no report is produced.
//
// The two passes run concurrently. A failure within one pass is recorded in
// that report's Errors and does not affect the other report.
func Generate(
	ctx context.Context,
	logger *slog.Logger,
	table *spreadsheet.Table,
	options ...GenerateOption,
) (*Result, error) {
	generateOptions := newGenerateOptions()
	for _, option := range options {
		option(generateOptions)
	}
	if err := gainsctlledger.CheckColumns(table.Header); err != nil {
		return nil, err
	}
	transactions, err := gainsctlledger.Normalize(table)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("normalized ledger", "transactions", len(transactions))
	result := &Result{}
	var eg errgroup.Group
	eg.Go(func() error {
		result.Unrestricted = runPass(logger, generateOptions, transactions, 0)
		return nil
	})
	eg.Go(func() error {
		result.Windowed = runPass(logger, generateOptions, transactions, generateOptions.daysLimit)
		return nil
	})
	// Passes never return errors, failures are recorded in each Report.
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// *** PRIVATE ***

type generateOptions struct {
	daysLimit  int
	assetOrder []string
	match      func([]*gainsctlledger.Transaction) (*gainsctlfifo.Result, error)
}

func newGenerateOptions() *generateOptions {
	return &generateOptions{
		daysLimit:  DefaultDaysLimit,
		assetOrder: DefaultAssetOrder(),
		match:      gainsctlfifo.Match,
	}
}

// runPass matches one view of the ledger. A days limit of 0 is the unrestricted pass.
//
// Each pass works on its own copy of the transaction slice.
func runPass(
	logger *slog.Logger,
	generateOptions *generateOptions,
	transactions []*gainsctlledger.Transaction,
	daysLimit int,
) (report *Report) {
	report = &Report{
		DaysLimit: daysLimit,
		Cutoff:    gainsctlwindow.Cutoff(transactions, daysLimit),
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("report pass panicked", "days_limit", daysLimit, "panic", recovered)
			report.Rows = nil
			report.Shortfalls = nil
			report.Errors = append(report.Errors, gainsctlledger.NewProcessingError(fmt.Errorf("%v", recovered)))
		}
	}()
	filtered := gainsctlwindow.Filter(slices.Clone(transactions), daysLimit)
	matchResult, err := generateOptions.match(filtered)
	if err != nil {
		report.Errors = append(report.Errors, gainsctlledger.NewProcessingError(err))
		return report
	}
	report.Rows = Assemble(matchResult.Rows, generateOptions.assetOrder)
	report.Shortfalls = matchResult.Shortfalls
	if cutoff, ok := report.Cutoff.Get(); ok {
		logger.Debug("windowed report", "days_limit", daysLimit, "cutoff", cutoff, "sells", countSells(filtered))
	}
	return report
}

func countSells(transactions []*gainsctlledger.Transaction) int {
	var count int
	for _, transaction := range transactions {
		if transaction.Action == gainsctlledger.ActionSell {
			count++
		}
	}
	return count
}
