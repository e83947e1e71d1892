// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package artifactprune implements the "artifact prune" command.
package artifactprune

import (
	"context"
	"fmt"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/spf13/pflag"
)

// olderThanFlagName is the flag name for the artifact age threshold.
const olderThanFlagName = "older-than"

// NewCommand returns a new artifact prune command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Delete saved report artifacts older than the retention period",
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
	// OlderThan is the age threshold. 0 uses the configured retention.
	OlderThan time.Duration
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.DurationVar(&f.OlderThan, olderThanFlagName, 0, "Delete artifacts older than this, e.g. 72h (default from config)")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	if flags.OlderThan < 0 {
		return appcmd.NewInvalidArgumentErrorf("--%s must not be negative", olderThanFlagName)
	}
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	olderThan := flags.OlderThan
	if olderThan == 0 {
		olderThan = config.ArtifactRetention
	}
	pruned, err := gainsctlcmd.NewStore(container, config).Prune(olderThan, time.Now())
	if err != nil {
		return err
	}
	for _, artifact := range pruned {
		if _, err := fmt.Fprintf(container.Stdout(), "%s\n", artifact.Name); err != nil {
			return err
		}
	}
	return nil
}
