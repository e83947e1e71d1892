// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package artifactzip implements the "artifact zip" command.
package artifactzip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/spf13/pflag"
)

// outputFlagName is the flag name for the output zip file path.
const outputFlagName = "output"

// NewCommand returns a new artifact zip command that archives the artifacts directory.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Archive saved report artifacts to a zip file",
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
	// Output is the path to the output zip file.
	Output string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
	flagSet.StringVarP(&f.Output, outputFlagName, "o", "", "Output zip file path (required)")
}

func run(_ context.Context, container appext.Container, flags *flags) (retErr error) {
	if flags.Output == "" {
		return appcmd.NewInvalidArgumentError("--output (-o) is required")
	}
	if !strings.HasSuffix(flags.Output, ".zip") {
		return appcmd.NewInvalidArgumentError("output file must have a .zip extension")
	}
	config, err := gainsctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	store := gainsctlcmd.NewStore(container, config)
	outputFile, err := os.Create(flags.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		retErr = errors.Join(retErr, outputFile.Close())
	}()
	if err := store.Archive(outputFile); err != nil {
		return fmt.Errorf("creating zip archive: %w", err)
	}
	container.Logger().Info("zip archive created", "path", flags.Output)
	return nil
}
