// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configedit implements the "config edit" command.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/gainsctlcmd"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlconfig"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlpath"
	"github.com/bufdev/gainsctl/internal/standard/xos"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config edit command that opens the configuration file in an editor.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Edit the configuration file in $EDITOR",
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, gainsctlcmd.DirFlagName, ".", "The gainsctl directory containing gainsctl.yaml")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	dirPath, err := xos.ExpandHome(flags.Dir)
	if err != nil {
		return err
	}
	configFilePath := gainsctlpath.ConfigFilePath(dirPath)
	// Create the configuration file with the default template if it does not exist.
	if _, err := os.Stat(configFilePath); errors.Is(err, fs.ErrNotExist) {
		if _, err := gainsctlconfig.InitConfig(dirPath); err != nil {
			return err
		}
	}
	editor := container.Env("EDITOR")
	if editor == "" {
		return errors.New("EDITOR environment variable is not set")
	}
	cmd := exec.CommandContext(ctx, editor, configFilePath)
	cmd.Stdin = container.Stdin()
	cmd.Stdout = container.Stdout()
	cmd.Stderr = container.Stderr()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	// Catch mistakes while the file is still fresh in mind.
	if err := gainsctlconfig.ValidateConfig(dirPath, container.Env); err != nil {
		return err
	}
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", configFilePath)
	return err
}
