// Package dataset turns a rectangular input table into parsed compounds and
// partitions them into prefix groups.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
)

// Table is a rectangular record set: one header row and data rows of cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Required columns.
const (
	ColName   = "Name"
	ColRT     = "RT"
	ColVolume = "Volume"
	ColLogP   = "LogP"
	ColAnchor = "Anchor"
)

// columnAliases lists the accepted normalized header spellings per column.
var columnAliases = []struct {
	column  string
	aliases []string
}{
	{ColName, []string{"name", "compound"}},
	{ColRT, []string{"rt", "retentiontime"}},
	{ColVolume, []string{"volume", "peakvolume"}},
	{ColLogP, []string{"logp"}},
	{ColAnchor, []string{"anchor", "isanchor"}},
}

// normalizeHeader lower-cases h and strips whitespace and underscores, so
// "Log P", "log_p" and "LOGP" all compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '\t', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ColumnIndex resolves every required column to its position in header.
// A missing column is an InputError.
func ColumnIndex(header []string) (map[string]int, error) {
	byNorm := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := byNorm[n]; !dup {
			byNorm[n] = i
		}
	}

	idx := make(map[string]int, len(columnAliases))
	for _, c := range columnAliases {
		found := -1
		for _, a := range c.aliases {
			if i, ok := byNorm[a]; ok {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, errors.NewInputError(c.column, "required column is missing")
		}
		idx[c.column] = found
	}
	return idx, nil
}

// ParseAnchor accepts T/F/TRUE/FALSE in any case.
func ParseAnchor(s string) (bool, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "T", "TRUE":
		return true, true
	case "F", "FALSE":
		return false, true
	}
	return false, false
}

func parseNumber(s string) (float64, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "missing value"
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "not a number: " + strconv.Quote(s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "not a finite number: " + strconv.Quote(s)
	}
	return v, ""
}

// parseRow builds the compound for data row number row (1-based).
func parseRow(row int, cells []string, idx map[string]int) (compound.Compound, error) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	name := strings.TrimSpace(cell(ColName))
	if name == "" {
		return compound.Compound{}, errors.NewMalformedRecordError(row, name, ColName, "missing value")
	}

	var vals [3]float64
	for i, col := range []string{ColRT, ColVolume, ColLogP} {
		v, reason := parseNumber(cell(col))
		if reason != "" {
			return compound.Compound{}, errors.NewMalformedRecordError(row, name, col, reason)
		}
		vals[i] = v
	}
	rt, volume, logP := vals[0], vals[1], vals[2]
	if volume < 0 {
		return compound.Compound{}, errors.NewMalformedRecordError(row, name, ColVolume, "negative volume")
	}

	anchor, ok := ParseAnchor(cell(ColAnchor))
	if !ok {
		return compound.Compound{}, errors.NewMalformedRecordError(row, name, ColAnchor,
			"expected T, F, TRUE or FALSE, got "+strconv.Quote(cell(ColAnchor)))
	}

	return compound.New(row, name, rt, logP, volume, anchor)
}
