package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &got
}

func TestReadCSV(t *testing.T) {
	warns := captureWarnings(t)
	in := "\uFEFFName,RT,Volume,Log P,Anchor\n" +
		"GD1(36:1;O2),7.0,120,2,T\n" +
		"\n" +
		"GM3(36:1;O2),9.5\n"

	table, err := ReadCSV(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "RT", "Volume", "Log P", "Anchor"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"GM3(36:1;O2)", "9.5", "", "", ""}, table.Rows[1])
	require.Len(t, *warns, 1)
	assert.Contains(t, (*warns)[0].Error(), "1 short row(s)")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), 0)
	require.Error(t, err)
	assert.Equal(t, errors.KindInput, errors.KindOf(err))
}

func TestReadFile_TSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Name\tRT\nGD1(36:1;O2)\t7.0\n"), 0o644))

	table, err := ReadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"GD1(36:1;O2)", "7.0"}}, table.Rows)
}

func TestReadXLSX(t *testing.T) {
	captureWarnings(t)
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Peaks"
	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)

	rows := [][]any{
		{"Name", "RT", "Volume", "LogP", "Anchor"},
		{"GD1(36:1;O2)", 7.0, 120, 2, "T"},
		{},
		{"GM1(36:1;O2)", 8.25, 80, 2.5, "F"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "peaks.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := ReadFile(path, sheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "RT", "Volume", "LogP", "Anchor"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "GD1(36:1;O2)", table.Rows[0][0])
	assert.Equal(t, "8.25", table.Rows[1][1])

	_, err = ReadXLSX(path, "Missing")
	assert.Error(t, err)
}
