// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlstore

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlfifo"
	"github.com/bufdev/gainsctl/internal/gainsctl/gainsctlreport"
	"github.com/bufdev/gainsctl/internal/pkg/nilable"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 5, 12, 30, 45, 0, time.UTC)
	require.Equal(t, "output_nolimit_20240105_123045.csv", ArtifactName(0, now))
	require.Equal(t, "output_10days_20240105_123045.csv", ArtifactName(10, now))

	artifact, err := ParseArtifactName("output_10days_20240105_123045.csv")
	require.NoError(t, err)
	require.Equal(t, 10, artifact.DaysLimit)
	require.Equal(t, now, artifact.CreatedAt)
	artifact, err = ParseArtifactName("output_nolimit_20240105_123045.csv")
	require.NoError(t, err)
	require.Equal(t, 0, artifact.DaysLimit)

	for _, name := range []string{
		"",
		"../output_nolimit_20240105_123045.csv",
		"output_nolimit_20240105_123045.csv/..",
		"output_0days_20240105_123045.csv",
		"output_10days_2024010_123045.csv",
		"gainsctl.yaml",
	} {
		_, err := ParseArtifactName(name)
		require.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestSaveOpen(t *testing.T) {
	t.Parallel()
	dirPath := filepath.Join(t.TempDir(), "artifacts")
	store := NewStore(slog.New(slog.DiscardHandler), dirPath, time.Minute)
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	unrestricted, windowed, err := store.Save(newTestResult(), now)
	require.NoError(t, err)
	require.Equal(t, "output_nolimit_20240105_120000.csv", unrestricted.Name)
	require.Equal(t, "output_7days_20240105_120000.csv", windowed.Name)
	require.Positive(t, unrestricted.Size)

	file, artifact, err := store.Open(unrestricted.Name)
	require.NoError(t, err)
	defer func() { require.NoError(t, file.Close()) }()
	require.Equal(t, unrestricted, artifact)
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, gainsctlreport.Headers(), records[0])
	require.Equal(t, "ETH", records[1][0])
	require.Equal(t, "400.00", records[1][7])

	// No temporary files are left behind.
	entries, err := os.ReadDir(dirPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, _, err = store.Open("output_nolimit_20230105_120000.csv")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Open("../gainsctl.yaml")
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestListPrune(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	store := NewStore(slog.New(slog.DiscardHandler), dirPath, time.Minute)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := store.Save(newTestResult(), recent)
	require.NoError(t, err)
	_, _, err = store.Save(newTestResult(), old)
	require.NoError(t, err)
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dirPath, "notes.txt"), []byte("keep"), 0o600))

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 4)
	require.Equal(t, "output_nolimit_20240101_000000.csv", artifacts[0].Name)
	require.Equal(t, "output_7days_20240101_000000.csv", artifacts[1].Name)

	pruned, err := store.Prune(10*24*time.Hour, recent.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, pruned, 2)
	artifacts, err = store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	require.Equal(t, recent, artifacts[0].CreatedAt)
	_, _, err = store.Open("output_7days_20240101_000000.csv")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(dirPath, "notes.txt"))
	require.NoError(t, err)
}

func TestArchive(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	store := NewStore(slog.New(slog.DiscardHandler), dirPath, time.Minute)
	_, _, err := store.Save(newTestResult(), time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	var buffer bytes.Buffer
	require.NoError(t, store.Archive(&buffer))
	zipReader, err := zip.NewReader(bytes.NewReader(buffer.Bytes()), int64(buffer.Len()))
	require.NoError(t, err)
	var names []string
	for _, file := range zipReader.File {
		names = append(names, file.Name)
	}
	require.Equal(t, []string{"output_nolimit_20240105_120000.csv", "output_7days_20240105_120000.csv"}, names)
}

func TestArtifactHumanSize(t *testing.T) {
	t.Parallel()
	require.Equal(t, "1.5 kB", (&Artifact{Size: 1500}).HumanSize())
	require.Equal(t, "0 B", (&Artifact{}).HumanSize())
}

func newTestResult() *gainsctlreport.Result {
	row := &gainsctlfifo.Row{
		Kind:          gainsctlfifo.RowKindSettled,
		Asset:         "ETH",
		SellDate:      nilable.Of(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		SellAmount:    nilable.Of(decimal.NewFromInt(4)),
		BuyDate:       nilable.Of(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		BuyAmountUsed: nilable.Of(decimal.NewFromInt(4)),
		BuyPrice:      nilable.Of(decimal.NewFromInt(100)),
		SellPrice:     nilable.Of(decimal.NewFromInt(150)),
		CostBasis:     nilable.Of(decimal.NewFromInt(400)),
		Proceeds:      nilable.Of(decimal.NewFromInt(600)),
		ProfitLoss:    nilable.Of(decimal.NewFromInt(200)),
		TDS:           decimal.NewFromInt(2),
		Remark:        gainsctlfifo.RemarkDone,
	}
	return &gainsctlreport.Result{
		Unrestricted: &gainsctlreport.Report{Rows: []*gainsctlfifo.Row{row}},
		Windowed:     &gainsctlreport.Report{DaysLimit: 7, Rows: []*gainsctlfifo.Row{row}},
	}
}
