// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package lot implements the "lot" command group.
package lot

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/lot/lotlist"
)

// NewCommand returns a new lot command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Display open buy lots",
		SubCommands: []*appcmd.Command{
			lotlist.NewCommand("list", builder),
		},
	}
}
