// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package artifact implements the "artifact" command group.
package artifact

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/artifact/artifactlist"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/artifact/artifactprune"
	"github.com/bufdev/gainsctl/cmd/gainsctl/internal/command/artifact/artifactzip"
)

// NewCommand returns a new artifact command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Manage saved report artifacts",
		SubCommands: []*appcmd.Command{
			artifactlist.NewCommand("list", builder),
			artifactprune.NewCommand("prune", builder),
			artifactzip.NewCommand("zip", builder),
		},
	}
}
