// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/artifact"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/config"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/lot"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/report"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/serve"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("gainsctl"))
}

// newRootCommand creates the root gainsctl command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Compute FIFO realized gains from crypto trade ledgers",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			artifact.NewCommand("artifact", builder),
			config.NewCommand("config", builder),
			lot.NewCommand("lot", builder),
			report.NewCommand("report", builder),
			serve.NewCommand("serve", builder),
		},
	}
}
