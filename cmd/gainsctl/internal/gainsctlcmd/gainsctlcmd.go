// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlcmd provides shared wiring for gainsctl commands.
package gainsctlcmd

import (
	"context"
	"time"

	"buf.build/go/app/appext"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlconfig"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlstore"
	"github.com/bufdev/gainsctl/internal/pkg/spreadsheet"
	"github.com/bufdev/gainsctl/internal/standard/xos"
)

const (
	// DirFlagName is the flag name for the gainsctl base directory.
	DirFlagName = "dir"
	// FileFlagName is the flag name for the ledger file.
	FileFlagName = "file"
	// FormatFlagName is the flag name for the output format.
	FormatFlagName = "format"
)

// storeCacheExpiration is how long artifact metadata is cached.
const storeCacheExpiration = 15 * time.Minute

// ReadConfig reads the configuration from the base directory with environment
// overrides from the container.
//
// The default configuration is used if no configuration file exists.
func ReadConfig(container appext.Container, dirPath string) (*gainsctlconfig.Config, error) {
	dirPath, err := xos.ExpandHome(dirPath)
	if err != nil {
		return nil, err
	}
	return gainsctlconfig.ReadConfigOrDefault(dirPath, container.Env)
}

// NewStore returns the artifact store for the configuration.
func NewStore(container appext.Container, config *gainsctlconfig.Config) gainsctlstore.Store {
	return gainsctlstore.NewStore(container.Logger(), config.ArtifactsDirPath, storeCacheExpiration)
}

// GenerateReports reads the ledger at filePath and generates both reports.
//
// If daysLimit is not positive, the configured default is used. Shortfalls of
// the unrestricted report are logged as warnings.
func GenerateReports(
	ctx context.Context,
	container appext.Container,
	config *gainsctlconfig.Config,
	filePath string,
	daysLimit int,
) (*gainsctlreport.Result, error) {
	filePath, err := xos.ExpandHome(filePath)
	if err != nil {
		return nil, err
	}
	table, err := spreadsheet.ParseFile(filePath)
	if err != nil {
		return nil, err
	}
	if daysLimit <= 0 {
		daysLimit = config.DefaultDaysLimit
	}
	logger := container.Logger()
	result, err := gainsctlreport.Generate(
		ctx,
		logger,
		table,
		gainsctlreport.GenerateWithDaysLimit(daysLimit),
		gainsctlreport.GenerateWithAssetOrder(config.AssetOrder),
	)
	if err != nil {
		return nil, err
	}
	for _, shortfall := range result.Unrestricted.Shortfalls {
		logger.Warn(
			"insufficient buy records",
			"asset", shortfall.Asset,
			"row", shortfall.Row,
			"requested", shortfall.Requested.String(),
			"available", shortfall.Available.String(),
		)
	}
	for _, processingErr := range result.Errors() {
		logger.Error("report failed", "error", processingErr.Error())
	}
	return result, nil
}
