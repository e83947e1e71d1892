// Copyright 2026 Peter Edge
//
// All rights reserved.

package cliio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for input, want := range map[string]Format{
		"table": FormatTable,
		"CSV":   FormatCSV,
		"Json":  FormatJSON,
	} {
		format, err := ParseFormat(input)
		require.NoError(t, err)
		require.Equal(t, want, format)
	}
	_, err := ParseFormat("yaml")
	require.ErrorContains(t, err, `unknown format "yaml"`)
}

func TestWriteTableWithTotals(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(
		t,
		WriteTableWithTotals(
			&buffer,
			[]string{"ASSET", "Cost Basis"},
			[][]string{{"ETH", "400.00"}, {"BNB", "5.00"}},
			[]string{"TOTAL", "405.00"},
		),
	)
	require.Equal(
		t,
		"ASSET  Cost Basis\nETH    400.00\nBNB    5.00\n       \nTOTAL  405.00\n",
		buffer.String(),
	)
}

func TestWriteCSVRecords(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteCSVRecords(&buffer, [][]string{{"REMARK"}, {"ERROR - INSUFFICIENT BUY RECORDS (Available: 1.5)"}}))
	require.Equal(t, "REMARK\nERROR - INSUFFICIENT BUY RECORDS (Available: 1.5)\n", buffer.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteJSON(&buffer, map[string]string{"asset": "ETH"}, map[string]string{"asset": "TRX"}))
	require.Equal(t, "{\"asset\":\"ETH\"}\n{\"asset\":\"TRX\"}\n", buffer.String())
}
