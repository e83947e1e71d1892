// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package artifactlist implements the "artifact list" command.
package artifactlist

import (
	"context"
	"strconv"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlstore"
	"github.com/bufdev/gainsctl/internal/pkg/cliio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// NewCommand returns a new artifact list command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List saved report artifacts, oldest first",
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
	// Format is the output format (table, csv, json).
	Format string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.StringVar(&f.Format, gainsctlcmd.FormatFlagName, "table", "Output format (table, csv, json)")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	artifacts, err := gainsctlcmd.NewStore(container, config).List()
	if err != nil {
		return err
	}
	headers := []string{"NAME", "DAYS LIMIT", "CREATED", "SIZE"}
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		rows := make([][]string, 0, len(artifacts))
		for _, artifact := range artifacts {
			rows = append(rows, []string{
				artifact.Name,
				daysLimitString(artifact),
				humanize.Time(artifact.CreatedAt),
				artifact.HumanSize(),
			})
		}
		return cliio.WriteTable(writer, headers, rows)
	case cliio.FormatCSV:
		records := [][]string{headers}
		for _, artifact := range artifacts {
			records = append(records, []string{
				artifact.Name,
				daysLimitString(artifact),
				artifact.CreatedAt.Format(time.RFC3339),
				strconv.FormatInt(artifact.Size, 10),
			})
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, artifacts...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func daysLimitString(artifact *gainsctlstore.Artifact) string {
	if artifact.DaysLimit <= 0 {
		return "none"
	}
	return strconv.Itoa(artifact.DaysLimit)
}
