// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlpath derives file and directory paths from the gainsctl base directory.
//
// The base directory (--dir flag) contains:
//
//	gainsctl.yaml    Config file
//	.env             Optional environment overrides
//	artifacts/       Saved report CSVs
package gainsctlpath

import "path/filepath"

// ConfigFileName is the well-known config file name within the base directory.
const ConfigFileName = "gainsctl.yaml"

// EnvFileName is the well-known environment override file name within the base directory.
const EnvFileName = ".env"

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// EnvFilePath returns the path to the environment override file within the base directory.
func EnvFilePath(dirPath string) string {
	return filepath.Join(dirPath, EnvFileName)
}

// ArtifactsDirPath returns the default directory for saved report artifacts.
func ArtifactsDirPath(dirPath string) string {
	return filepath.Join(dirPath, "artifacts")
}
