// Package ingest reads analysis tables from CSV, TSV and XLSX files.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\uFEFF"

// ReadCSV reads a delimited table whose first record is the header.
// comma 0 means ','. Blank lines are skipped and short rows are padded
// with empty cells, which surface later as missing values.
func ReadCSV(r io.Reader, comma rune) (dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if comma != 0 {
		cr.Comma = comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return dataset.Table{}, errors.Wrap(err, "rtguard: read delimited table")
	}
	return toTable(records, "csv")
}

// ReadXLSX reads one worksheet. An empty sheet name selects the first sheet.
func ReadXLSX(path, sheet string) (dataset.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "rtguard: open workbook %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return dataset.Table{}, errors.NewInputError("sheet", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "rtguard: read sheet %q", sheet)
	}

	kept := rows[:0]
	for _, row := range rows {
		if !blank(row) {
			kept = append(kept, row)
		}
	}
	return toTable(kept, "xlsx")
}

// ReadFile dispatches on the file extension: .xlsx and .xlsm are read as
// workbooks, .tsv as tab-separated, anything else as CSV.
func ReadFile(path, sheet string) (dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "rtguard: open %s", path)
	}
	defer f.Close()

	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}
	return ReadCSV(f, comma)
}

func toTable(records [][]string, source string) (dataset.Table, error) {
	if len(records) == 0 {
		return dataset.Table{}, errors.NewInputError("header", "input has no header row")
	}
	header := append([]string(nil), records[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows := make([][]string, 0, len(records)-1)
	padded := 0
	for _, rec := range records[1:] {
		if len(rec) < len(header) {
			rec = append(append([]string(nil), rec...), make([]string, len(header)-len(rec))...)
			padded++
		}
		rows = append(rows, rec)
	}
	if padded > 0 {
		errors.Warn(errors.NewDataConversionWarning(source, "table",
			fmt.Sprintf("%d short row(s) padded with empty cells", padded)))
	}
	return dataset.Table{Header: header, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
