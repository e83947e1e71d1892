// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlconfig provides configuration parsing and validation for gainsctl.
//
// Configuration is stored at <dir>/gainsctl.yaml. An optional <dir>/.env file,
// and then the process environment, override the server address and the
// artifacts directory.
package gainsctlconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlpath"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/standard/xos"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	// AddressEnvVar overrides server.address.
	AddressEnvVar = "GAINSCTL_ADDRESS"
	// ArtifactsDirEnvVar overrides the artifacts directory.
	ArtifactsDirEnvVar = "GAINSCTL_ARTIFACTS_DIR"
)

const (
	defaultAddress            = ":3000"
	defaultMaxUploadSize      = 16 << 20
	defaultRateLimitPerSecond = 2
	defaultRateLimitBurst     = 5
	defaultArtifactRetention  = 30 * 24 * time.Hour
	defaultPruneSchedule      = "@daily"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# Report configuration.
#
# Optional.
report:
  # The window in days of the windowed report.
  #
  # Optional. Defaults to 10.
  default_days_limit: 10
  # The display order of assets. Assets not listed sort after the listed
  # ones, by name.
  #
  # Optional. Defaults to TRX, BNB, ETH, XRP, USDT.
  asset_order:
    - TRX
    - BNB
    - ETH
    - XRP
    - USDT
# HTTP server configuration for "gainsctl serve".
#
# Optional.
server:
  # The listen address. Overridden by GAINSCTL_ADDRESS.
  #
  # Optional. Defaults to ":3000".
  address: ":3000"
  # The maximum ledger upload size.
  #
  # Optional. Defaults to 16MiB.
  max_upload_size: 16MiB
  # Origins allowed to call the server from a browser.
  #
  # Optional. Defaults to none.
  # allowed_origins:
  #   - https://gains.example.com
  # Uploads per second allowed per client, and the burst above that rate.
  #
  # Optional. Default to 2 and 5.
  rate_limit_per_second: 2
  rate_limit_burst: 5
# Report artifact configuration.
#
# Optional. Artifacts are stored in <dir>/artifacts unless overridden by
# GAINSCTL_ARTIFACTS_DIR.
artifacts:
  # How long artifacts are kept before pruning.
  #
  # Optional. Defaults to 720h (30 days).
  retention: 720h
  # The cron schedule of automatic pruning while serving.
  #
  # Optional. Defaults to @daily.
  prune_schedule: "@daily"
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// Report holds report generation configuration.
	Report ExternalReportConfig `yaml:"report"`
	// Server holds HTTP server configuration.
	Server ExternalServerConfig `yaml:"server"`
	// Artifacts holds report artifact configuration.
	Artifacts ExternalArtifactsConfig `yaml:"artifacts"`
}

// ExternalReportConfig holds report generation configuration.
type ExternalReportConfig struct {
	// DefaultDaysLimit is the window in days of the windowed report.
	DefaultDaysLimit int `yaml:"default_days_limit"`
	// AssetOrder is the display order of assets.
	AssetOrder []string `yaml:"asset_order"`
}

// ExternalServerConfig holds HTTP server configuration.
type ExternalServerConfig struct {
	// Address is the listen address (e.g., ":3000").
	Address string `yaml:"address"`
	// MaxUploadSize is a human-readable size (e.g., "16MiB").
	MaxUploadSize string `yaml:"max_upload_size"`
	// AllowedOrigins are the CORS origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimitPerSecond is the sustained upload rate per client.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	// RateLimitBurst is the upload burst per client.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// ExternalArtifactsConfig holds report artifact configuration.
type ExternalArtifactsConfig struct {
	// Retention is a Go duration (e.g., "720h").
	Retention string `yaml:"retention"`
	// PruneSchedule is a cron expression (e.g., "@daily", "0 3 * * *").
	PruneSchedule string `yaml:"prune_schedule"`
}

// Config is the validated runtime configuration.
type Config struct {
	// DefaultDaysLimit is the window in days of the windowed report.
	DefaultDaysLimit int
	// AssetOrder is the display order of assets.
	AssetOrder []string
	// Address is the HTTP listen address.
	Address string
	// MaxUploadSize is the maximum upload size in bytes.
	MaxUploadSize int64
	// AllowedOrigins are the CORS origins. Empty disables cross-origin requests.
	AllowedOrigins []string
	// RateLimitPerSecond is the sustained upload rate per client.
	RateLimitPerSecond float64
	// RateLimitBurst is the upload burst per client.
	RateLimitBurst int
	// ArtifactsDirPath is the absolute or base-relative directory for artifacts.
	ArtifactsDirPath string
	// ArtifactRetention is how long artifacts are kept before pruning.
	ArtifactRetention time.Duration
	// PruneSchedule is the cron expression of automatic pruning.
	PruneSchedule string
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
//
// dirPath is the base directory that relative paths are resolved against.
func NewConfig(dirPath string, externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	config := newDefaultConfig(dirPath)
	if daysLimit := externalConfig.Report.DefaultDaysLimit; daysLimit != 0 {
		if daysLimit < 0 {
			return nil, fmt.Errorf("report.default_days_limit must be positive, got %d", daysLimit)
		}
		config.DefaultDaysLimit = daysLimit
	}
	if len(externalConfig.Report.AssetOrder) > 0 {
		assetOrder := make([]string, 0, len(externalConfig.Report.AssetOrder))
		seen := make(map[string]struct{}, len(externalConfig.Report.AssetOrder))
		for _, asset := range externalConfig.Report.AssetOrder {
			asset = strings.TrimSpace(asset)
			if asset == "" {
				return nil, errors.New("report.asset_order entries must not be empty")
			}
			if _, ok := seen[asset]; ok {
				return nil, fmt.Errorf("duplicate asset %q in report.asset_order", asset)
			}
			seen[asset] = struct{}{}
			assetOrder = append(assetOrder, asset)
		}
		config.AssetOrder = assetOrder
	}
	if address := externalConfig.Server.Address; address != "" {
		config.Address = address
	}
	if maxUploadSize := externalConfig.Server.MaxUploadSize; maxUploadSize != "" {
		size, err := humanize.ParseBytes(maxUploadSize)
		if err != nil {
			return nil, fmt.Errorf("invalid server.max_upload_size %q: %w", maxUploadSize, err)
		}
		if size == 0 {
			return nil, errors.New("server.max_upload_size must be positive")
		}
		config.MaxUploadSize = int64(size)
	}
	config.AllowedOrigins = externalConfig.Server.AllowedOrigins
	if ratePerSecond := externalConfig.Server.RateLimitPerSecond; ratePerSecond != 0 {
		if ratePerSecond < 0 {
			return nil, fmt.Errorf("server.rate_limit_per_second must be positive, got %v", ratePerSecond)
		}
		config.RateLimitPerSecond = ratePerSecond
	}
	if burst := externalConfig.Server.RateLimitBurst; burst != 0 {
		if burst < 0 {
			return nil, fmt.Errorf("server.rate_limit_burst must be positive, got %d", burst)
		}
		config.RateLimitBurst = burst
	}
	if retention := externalConfig.Artifacts.Retention; retention != "" {
		duration, err := time.ParseDuration(retention)
		if err != nil {
			return nil, fmt.Errorf("invalid artifacts.retention %q: %w", retention, err)
		}
		if duration <= 0 {
			return nil, fmt.Errorf("artifacts.retention must be positive, got %s", retention)
		}
		config.ArtifactRetention = duration
	}
	if pruneSchedule := externalConfig.Artifacts.PruneSchedule; pruneSchedule != "" {
		if _, err := cron.ParseStandard(pruneSchedule); err != nil {
			return nil, fmt.Errorf("invalid artifacts.prune_schedule %q: %w", pruneSchedule, err)
		}
		config.PruneSchedule = pruneSchedule
	}
	return config, nil
}

// ReadConfig reads and validates the configuration file from the given base directory.
//
// Values from <dir>/.env and then getenv override the file. getenv may be nil.
// Returns a clear error message directing users to run "gainsctl config init"
// if the file is missing.
func ReadConfig(dirPath string, getenv func(string) string) (*Config, error) {
	filePath := gainsctlpath.ConfigFilePath(dirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found at %s, run \"gainsctl config init\" to create one", filePath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	config, err := NewConfig(dirPath, externalConfig)
	if err != nil {
		return nil, fmt.Errorf("validating config file %s: %w", filePath, err)
	}
	if err := applyEnv(dirPath, config, getenv); err != nil {
		return nil, err
	}
	return config, nil
}

// ReadConfigOrDefault is ReadConfig, but returns the default configuration
// (with environment overrides) if the configuration file does not exist.
func ReadConfigOrDefault(dirPath string, getenv func(string) string) (*Config, error) {
	if _, err := os.Stat(gainsctlpath.ConfigFilePath(dirPath)); errors.Is(err, fs.ErrNotExist) {
		config := newDefaultConfig(dirPath)
		if err := applyEnv(dirPath, config, getenv); err != nil {
			return nil, err
		}
		return config, nil
	}
	return ReadConfig(dirPath, getenv)
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(dirPath string) (string, error) {
	filePath := gainsctlpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given base directory.
func ValidateConfig(dirPath string, getenv func(string) string) error {
	_, err := ReadConfig(dirPath, getenv)
	return err
}

// *** PRIVATE ***

func newDefaultConfig(dirPath string) *Config {
	return &Config{
		DefaultDaysLimit:   gainsctlreport.DefaultDaysLimit,
		AssetOrder:         gainsctlreport.DefaultAssetOrder(),
		Address:            defaultAddress,
		MaxUploadSize:      defaultMaxUploadSize,
		RateLimitPerSecond: defaultRateLimitPerSecond,
		RateLimitBurst:     defaultRateLimitBurst,
		ArtifactsDirPath:   gainsctlpath.ArtifactsDirPath(dirPath),
		ArtifactRetention:  defaultArtifactRetention,
		PruneSchedule:      defaultPruneSchedule,
	}
}

// applyEnv overrides config with <dir>/.env and then getenv.
func applyEnv(dirPath string, config *Config, getenv func(string) string) error {
	envFilePath := gainsctlpath.EnvFilePath(dirPath)
	env, err := godotenv.Read(envFilePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading env file %s: %w", envFilePath, err)
		}
		env = map[string]string{}
	}
	lookup := func(key string) string {
		if getenv != nil {
			if value := getenv(key); value != "" {
				return value
			}
		}
		return env[key]
	}
	if address := lookup(AddressEnvVar); address != "" {
		config.Address = address
	}
	if artifactsDirPath := lookup(ArtifactsDirEnvVar); artifactsDirPath != "" {
		resolved, err := xos.ResolvePath(dirPath, artifactsDirPath)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", ArtifactsDirEnvVar, err)
		}
		config.ArtifactsDirPath = resolved
	}
	return nil
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
