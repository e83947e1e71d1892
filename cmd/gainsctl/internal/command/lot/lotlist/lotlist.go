// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package lotlist implements the "lot list" command.
package lotlist

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/pkg/cliio"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

// assetFlagName is the flag name for filtering by asset.
const assetFlagName = "asset"

// NewCommand returns a new lot list command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List buy lots still open after all sells, optionally filtered by asset",
		Args:  appcmd.NoArgs,
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
	// Format is the output format (table, csv, json).
	Format string
	// Asset filters lots to a specific asset. Empty means all assets.
	Asset string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.StringVar(&f.File, gainsctlcmd.FileFlagName, "", "The ledger file, .csv or .xlsx (required)")
	flagSet.StringVar(&f.Format, gainsctlcmd.FormatFlagName, "table", "Output format (table, csv, json)")
	flagSet.StringVar(&f.Asset, assetFlagName, "", "Filter by asset (omit for all assets)")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	if flags.File == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", gainsctlcmd.FileFlagName)
	}
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	result, err := gainsctlcmd.GenerateReports(ctx, container, config, flags.File, 0)
	if err != nil {
		return err
	}
	if len(result.Unrestricted.Errors) > 0 {
		return result.Unrestricted.Errors[0]
	}
	rows := gainsctlreport.OpenLotRows(result.Unrestricted, flags.Asset)
	openLots := lo.Map(rows, func(row *gainsctlfifo.Row, _ int) *gainsctlreport.OpenLot {
		return gainsctlreport.RowToOpenLot(row)
	})
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		records := lo.Map(openLots, func(openLot *gainsctlreport.OpenLot, _ int) []string {
			return gainsctlreport.OpenLotToRecord(openLot)
		})
		return cliio.WriteTableWithTotals(
			writer,
			gainsctlreport.OpenLotHeaders(),
			records,
			gainsctlreport.OpenLotsTotalsToRecord(gainsctlreport.ComputeTotals(rows)),
		)
	case cliio.FormatCSV:
		records := make([][]string, 0, len(openLots)+1)
		records = append(records, gainsctlreport.OpenLotHeaders())
		for _, openLot := range openLots {
			records = append(records, gainsctlreport.OpenLotToRecord(openLot))
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, openLots...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
