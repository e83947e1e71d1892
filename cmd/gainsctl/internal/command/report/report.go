// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package report implements the "report" command.
package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlledger"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/pkg/cliio"
	"github.com/bufdev/gainsctl/internal/standard/xtime"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

const (
	// daysFlagName is the flag name for the windowed report's days limit.
	daysFlagName = "days"
	// saveFlagName is the flag name for saving both reports as artifacts.
	saveFlagName = "save"
	// reportHeader is the leading CSV column naming the report of each row.
	reportHeader = "REPORT"
)

// NewCommand returns a new report command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Compute the unrestricted and windowed realized gains reports of a ledger",
		Long: `Compute the unrestricted and windowed realized gains reports of a ledger.

The ledger is a CSV or XLSX file with the columns Date, Action, Coin, Quantity,
"Price in  Base currency", "Total Price in Base currency" and Tds.

The unrestricted report matches every sell. The windowed report only keeps
sells within --days of the latest transaction date, matched against all buys.`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the gainsctl directory containing gainsctl.yaml.
	Dir string
	// File is the ledger file.
	File string
	// Days is the windowed report's days limit. 0 uses the configured default.
	Days int
	// Format is the output format (table, csv, json).
	Format string
	// Save writes both reports to the artifacts directory.
	Save bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.StringVar(&f.File, gainsctlcmd.FileFlagName, "", "The ledger file, .csv or .xlsx (required)")
	flagSet.IntVar(&f.Days, daysFlagName, 0, "The windowed report's days limit (default from config)")
	flagSet.StringVar(&f.Format, gainsctlcmd.FormatFlagName, "table", "Output format (table, csv, json)")
	flagSet.BoolVar(&f.Save, saveFlagName, false, "Save both reports to the artifacts directory")
}

// jsonReport is the JSON form of a report.
type jsonReport struct {
	DaysLimit int                 `json:"days_limit"`
	Cutoff    string              `json:"cutoff"`
	Rows      []map[string]string `json:"rows"`
	Errors    []string            `json:"errors"`
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	if flags.File == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", gainsctlcmd.FileFlagName)
	}
	if flags.Days < 0 {
		return appcmd.NewInvalidArgumentErrorf("--%s must not be negative", daysFlagName)
	}
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	result, err := gainsctlcmd.GenerateReports(ctx, container, config, flags.File, flags.Days)
	if err != nil {
		return err
	}
	if flags.Save {
		unrestricted, windowed, err := gainsctlcmd.NewStore(container, config).Save(result, time.Now())
		if err != nil {
			return err
		}
		container.Logger().Info("saved reports", "nolimit_file", unrestricted.Name, "dayslimit_file", windowed.Name)
	}
	reports := []*gainsctlreport.Report{result.Unrestricted, result.Windowed}
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		for i, report := range reports {
			if i > 0 {
				if _, err := fmt.Fprintln(writer); err != nil {
					return err
				}
			}
			if err := writeTable(writer, report); err != nil {
				return err
			}
		}
		return nil
	case cliio.FormatCSV:
		records := [][]string{append([]string{reportHeader}, gainsctlreport.Headers()...)}
		for _, report := range reports {
			for _, record := range gainsctlreport.RowsToRecords(report.Rows) {
				records = append(records, append([]string{reportName(report)}, record...))
			}
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, lo.Map(reports, func(report *gainsctlreport.Report, _ int) *jsonReport {
			return newJSONReport(report)
		})...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func writeTable(writer io.Writer, report *gainsctlreport.Report) error {
	title := "Unrestricted report"
	if report.DaysLimit > 0 {
		title = fmt.Sprintf(
			"Last %d days report (sells from %s)",
			report.DaysLimit,
			report.Cutoff.Format(xtime.FormatReport),
		)
	}
	if _, err := fmt.Fprintf(writer, "%s\n\n", title); err != nil {
		return err
	}
	for _, processingErr := range report.Errors {
		if _, err := fmt.Fprintf(writer, "%s\n", processingErr.Error()); err != nil {
			return err
		}
	}
	if len(report.Errors) > 0 {
		return nil
	}
	return cliio.WriteTableWithTotals(
		writer,
		gainsctlreport.Headers(),
		gainsctlreport.RowsToRecords(report.Rows),
		gainsctlreport.TotalsToRecord(gainsctlreport.ComputeTotals(report.Rows)),
	)
}

func newJSONReport(report *gainsctlreport.Report) *jsonReport {
	return &jsonReport{
		DaysLimit: report.DaysLimit,
		Cutoff:    report.Cutoff.Format(xtime.FormatReport),
		Rows:      gainsctlreport.RowsToPreview(report.Rows),
		Errors: lo.Map(report.Errors, func(err *gainsctlledger.ProcessingError, _ int) string {
			return err.Error()
		}),
	}
}

// reportName returns "nolimit" or "<N>days", matching artifact names.
func reportName(report *gainsctlreport.Report) string {
	if report.DaysLimit <= 0 {
		return "nolimit"
	}
	return strconv.Itoa(report.DaysLimit) + "days"
}
