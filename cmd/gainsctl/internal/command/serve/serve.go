// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package serve implements the "serve" command.
package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlserver"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

// addressFlagName is the flag name for the listen address.
const addressFlagName = "address"

// NewCommand returns a new serve command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Serve report generation over HTTP",
		Long: `Serve report generation over HTTP.

Endpoints:

  POST /upload            Upload a ledger (multipart field "file", optional "days_limit")
  GET  /download/{name}   Download a saved report
  GET  /health            Health check

Saved reports older than artifacts.retention are pruned on artifacts.prune_schedule.`,
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
	// Address overrides the configured listen address.
	Address string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.StringVar(&f.Address, addressFlagName, "", "The listen address (default from config)")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	address := config.Address
	if flags.Address != "" {
		address = flags.Address
	}
	logger := container.Logger()
	store := gainsctlcmd.NewStore(container, config)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.PruneSchedule, func() {
		if _, err := store.Prune(config.ArtifactRetention, time.Now()); err != nil {
			logger.Error("pruning artifacts", "error", err)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		// Wait for a running prune to finish.
		<-scheduler.Stop().Done()
	}()
	logger.Info(
		"scheduled artifact pruning",
		"schedule", config.PruneSchedule,
		"retention", config.ArtifactRetention.String(),
		"dir", config.ArtifactsDirPath,
	)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return gainsctlserver.Run(ctx, logger, address, gainsctlserver.NewHandler(logger, config, store))
}
