// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package gainsctlstore persists reports as CSV artifacts.
//
// Artifact names are derived from the report window and the generation time:
//
//	output_nolimit_20240105_120000.csv   Unrestricted report
//	output_10days_20240105_120000.csv    Windowed report, 10 days
//
// Only names of this form are accepted by Open, so artifact names are safe to
// take from untrusted input.
package gainsctlstore

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/pkg/cliio"
	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"
)

// timestampLayout is the layout of the timestamp in artifact names.
const timestampLayout = "20060102_150405"

// ErrInvalidName is returned for names that are not artifact names.
var ErrInvalidName = errors.New("invalid artifact name")

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

var artifactNameRegexp = regexp.MustCompile(`^output_(nolimit|([1-9][0-9]*)days)_([0-9]{8}_[0-9]{6})\.csv$`)

// Artifact describes a saved report.
type Artifact struct {
	// Name is the file name within the artifacts directory.
	Name string `json:"name"`
	// DaysLimit is the report window, 0 for the unrestricted report.
	DaysLimit int `json:"days_limit"`
	// CreatedAt is the generation time encoded in the name, in UTC.
	CreatedAt time.Time `json:"created_at"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// HumanSize returns the size in human-readable form (e.g., "1.2 kB").
func (a *Artifact) HumanSize() string {
	return humanize.Bytes(uint64(max(a.Size, 0)))
}

// Store saves and serves report artifacts.
type Store interface {
	// Save writes both reports of a result as artifacts generated at now.
	//
	// Returns the unrestricted and windowed artifacts.
	Save(result *gainsctlreport.Result, now time.Time) (*Artifact, *Artifact, error)
	// SaveReport writes a single report as an artifact generated at now.
	SaveReport(report *gainsctlreport.Report, now time.Time) (*Artifact, error)
	// Open opens an artifact by name.
	//
	// Returns ErrInvalidName if name is not an artifact name, and ErrNotFound
	// if it does not exist. The caller must close the returned file.
	Open(name string) (*os.File, *Artifact, error)
	// List returns all artifacts, oldest first.
	List() ([]*Artifact, error)
	// Prune deletes artifacts created before now minus olderThan.
	//
	// Returns the deleted artifacts.
	Prune(olderThan time.Duration, now time.Time) ([]*Artifact, error)
	// Archive writes all artifacts to writer as a zip archive.
	Archive(writer io.Writer) error
}

// NewStore returns a new Store for the given artifacts directory.
//
// The directory is created on first save. Metadata of recently saved
// artifacts is cached for cacheExpiration.
func NewStore(logger *slog.Logger, dirPath string, cacheExpiration time.Duration) Store {
	return &store{
		logger:  logger,
		dirPath: dirPath,
		cache:   cache.New(cacheExpiration, 2*cacheExpiration),
	}
}

// ArtifactName returns the artifact name of a report with the given window generated at t.
//
// The timestamp is in UTC.
func ArtifactName(daysLimit int, t time.Time) string {
	timestamp := t.UTC().Format(timestampLayout)
	if daysLimit <= 0 {
		return "output_nolimit_" + timestamp + ".csv"
	}
	return fmt.Sprintf("output_%ddays_%s.csv", daysLimit, timestamp)
}

// ParseArtifactName parses an artifact name.
//
// The returned Artifact has no Size.
func ParseArtifactName(name string) (*Artifact, error) {
	matches := artifactNameRegexp.FindStringSubmatch(name)
	if matches == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	var daysLimit int
	if matches[2] != "" {
		parsed, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		daysLimit = parsed
	}
	createdAt, err := time.Parse(timestampLayout, matches[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return &Artifact{
		Name:      name,
		DaysLimit: daysLimit,
		CreatedAt: createdAt,
	}, nil
}

// *** PRIVATE ***

type store struct {
	logger  *slog.Logger
	dirPath string
	cache   *cache.Cache
}

func (s *store) Save(result *gainsctlreport.Result, now time.Time) (*Artifact, *Artifact, error) {
	unrestricted, err := s.SaveReport(result.Unrestricted, now)
	if err != nil {
		return nil, nil, err
	}
	windowed, err := s.SaveReport(result.Windowed, now)
	if err != nil {
		return nil, nil, err
	}
	return unrestricted, windowed, nil
}

func (s *store) SaveReport(report *gainsctlreport.Report, now time.Time) (_ *Artifact, retErr error) {
	if err := os.MkdirAll(s.dirPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	name := ArtifactName(report.DaysLimit, now)
	records := append([][]string{gainsctlreport.Headers()}, gainsctlreport.RowsToRecords(report.Rows)...)
	// Write to a temporary file first, so readers never see a partial artifact.
	file, err := os.CreateTemp(s.dirPath, ".tmp-"+name)
	if err != nil {
		return nil, fmt.Errorf("creating artifact: %w", err)
	}
	tempPath := file.Name()
	defer func() {
		if retErr != nil && tempPath != "" {
			retErr = errors.Join(retErr, os.Remove(tempPath))
		}
	}()
	if err := cliio.WriteCSVRecords(file, records); err != nil {
		return nil, errors.Join(fmt.Errorf("writing artifact %s: %w", name, err), file.Close())
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("closing artifact %s: %w", name, err)
	}
	if err := os.Rename(tempPath, filepath.Join(s.dirPath, name)); err != nil {
		return nil, fmt.Errorf("renaming artifact %s: %w", name, err)
	}
	tempPath = ""
	artifact, err := s.stat(name)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(name, artifact)
	s.logger.Debug("saved artifact", "name", name, "rows", len(report.Rows), "size", artifact.HumanSize())
	return artifact, nil
}

func (s *store) Open(name string) (*os.File, *Artifact, error) {
	artifact, err := s.lookup(name)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(filepath.Join(s.dirPath, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.cache.Delete(name)
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, err
	}
	return file, artifact, nil
}

func (s *store) List() ([]*Artifact, error) {
	entries, err := os.ReadDir(s.dirPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifacts directory: %w", err)
	}
	var artifacts []*Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		artifact, err := ParseArtifactName(entry.Name())
		if err != nil {
			// Not an artifact, leave it alone.
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		artifact.Size = info.Size()
		artifacts = append(artifacts, artifact)
	}
	slices.SortStableFunc(artifacts, func(a *Artifact, b *Artifact) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.DaysLimit - b.DaysLimit
	})
	return artifacts, nil
}

func (s *store) Prune(olderThan time.Duration, now time.Time) ([]*Artifact, error) {
	artifacts, err := s.List()
	if err != nil {
		return nil, err
	}
	cutoff := now.UTC().Add(-olderThan)
	var pruned []*Artifact
	for _, artifact := range artifacts {
		if !artifact.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dirPath, artifact.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return pruned, fmt.Errorf("removing artifact %s: %w", artifact.Name, err)
		}
		s.cache.Delete(artifact.Name)
		pruned = append(pruned, artifact)
	}
	if len(pruned) > 0 {
		s.logger.Info("pruned artifacts", "count", len(pruned), "cutoff", cutoff)
	}
	return pruned, nil
}

func (s *store) Archive(writer io.Writer) error {
	artifacts, err := s.List()
	if err != nil {
		return err
	}
	zipWriter := zip.NewWriter(writer)
	for _, artifact := range artifacts {
		if err := s.addToZip(zipWriter, artifact); err != nil {
			return errors.Join(fmt.Errorf("archiving %s: %w", artifact.Name, err), zipWriter.Close())
		}
	}
	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finalizing zip archive: %w", err)
	}
	return nil
}

func (s *store) addToZip(zipWriter *zip.Writer, artifact *Artifact) (retErr error) {
	file, err := os.Open(filepath.Join(s.dirPath, artifact.Name))
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	entryWriter, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:     artifact.Name,
		Method:   zip.Deflate,
		Modified: artifact.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(entryWriter, file)
	return err
}

// lookup validates name and returns its metadata, from the cache if present.
func (s *store) lookup(name string) (*Artifact, error) {
	if _, err := ParseArtifactName(name); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(name); ok {
		if artifact, ok := cached.(*Artifact); ok {
			return artifact, nil
		}
	}
	artifact, err := s.stat(name)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(name, artifact)
	return artifact, nil
}

func (s *store) stat(name string) (*Artifact, error) {
	artifact, err := ParseArtifactName(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(s.dirPath, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	artifact.Size = info.Size()
	return artifact, nil
}
