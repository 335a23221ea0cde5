package dataset

import (
	"testing"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Header: []string{"Name", "RT", "Volume", "Log P", "Anchor", "Comment"},
		Rows: [][]string{
			{"GD1(36:1;O2)", "12.0", "100", "5.0", "T", "x"},
			{"GD1+OAc(36:1;O2)", "12.4", "50", "5.2", "f", ""},
			{"GM3(36:1;O2)", "14.1", "80", "6.0", "TRUE", ""},
			{"GD1(38:1;O2)", "12.9", "70", "5.6", "false", ""},
			{"bogus", "1", "1", "1", "T", ""},
			{"GM3(34:1;O2)", "abc", "1", "1", "T", ""},
			{"GM3(38:1;O2)", "15", "1", "6.5", "yes", ""},
		},
	}
}

func TestLoad(t *testing.T) {
	ds, err := Load(sampleTable(), nil)
	require.NoError(t, err)

	require.Len(t, ds.Compounds, 4)
	require.Len(t, ds.Rejected, 3)
	assert.Equal(t, []int{5, 6, 7}, []int{ds.Rejected[0].Row, ds.Rejected[1].Row, ds.Rejected[2].Row})
	for _, r := range ds.Rejected {
		assert.Equal(t, errors.KindMalformedRecord, errors.KindOf(r.Err))
	}

	var mr *errors.MalformedRecordError
	require.True(t, errors.As(ds.Rejected[1].Err, &mr))
	assert.Equal(t, ColRT, mr.Field)
	require.True(t, errors.As(ds.Rejected[2].Err, &mr))
	assert.Equal(t, ColAnchor, mr.Field)

	require.Len(t, ds.Groups, 3)
	assert.Equal(t, "GD1", ds.Groups[0].Prefix)
	assert.Equal(t, []int{0, 3}, ds.Groups[0].Members)
	assert.Equal(t, []int{0}, ds.Groups[0].Anchors)
	assert.Equal(t, "GD1+OAc", ds.Groups[1].Prefix)
	assert.Equal(t, "GD1", ds.Groups[1].Family)
	assert.Equal(t, 0, ds.Groups[1].AnchorCount())
	assert.Equal(t, "GM3", ds.Groups[2].Prefix)
}

func TestLoad_EveryCompoundInExactlyOneGroup(t *testing.T) {
	ds, err := Load(sampleTable(), nil)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, g := range ds.Groups {
		for _, m := range g.Members {
			seen[m]++
			assert.Equal(t, g.Prefix, ds.Compounds[m].Prefix)
		}
	}
	assert.Len(t, seen, len(ds.Compounds))
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}
}

func TestLoad_FamilyOverride(t *testing.T) {
	ds, err := Load(sampleTable(), map[string]string{"GD1+OAc": "disialo"})
	require.NoError(t, err)
	assert.Equal(t, "GD1", ds.Groups[0].Family)
	assert.Equal(t, "disialo", ds.Groups[1].Family)
}

func TestLoad_MissingColumn(t *testing.T) {
	_, err := Load(Table{Header: []string{"Name", "RT", "Volume", "Anchor"}}, nil)
	require.Error(t, err)

	var ie *errors.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, ColLogP, ie.Column)
	assert.Equal(t, errors.KindInput, errors.KindOf(err))
}

func TestColumnIndex_Normalization(t *testing.T) {
	idx, err := ColumnIndex([]string{" anchor", "LOGP", "volume ", "r t", "NAME"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ColAnchor: 0, ColLogP: 1, ColVolume: 2, ColRT: 3, ColName: 4}, idx)
}

func TestParseAnchor(t *testing.T) {
	for _, s := range []string{"T", "t", "TRUE", "True", " true "} {
		v, ok := ParseAnchor(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"F", "f", "FALSE", "false"} {
		v, ok := ParseAnchor(s)
		assert.True(t, ok, s)
		assert.False(t, v, s)
	}
	for _, s := range []string{"", "1", "yes", "Y"} {
		_, ok := ParseAnchor(s)
		assert.False(t, ok, s)
	}
}

func TestParseRow_ShortAndNonFinite(t *testing.T) {
	idx, err := ColumnIndex([]string{"Name", "RT", "Volume", "LogP", "Anchor"})
	require.NoError(t, err)

	_, err = parseRow(3, []string{"GM3(36:1;O2)", "1"}, idx)
	var mr *errors.MalformedRecordError
	require.True(t, errors.As(err, &mr))
	assert.Equal(t, 3, mr.Row)
	assert.Equal(t, ColVolume, mr.Field)

	_, err = parseRow(4, []string{"GM3(36:1;O2)", "NaN", "1", "1", "T"}, idx)
	require.True(t, errors.As(err, &mr))
	assert.Equal(t, ColRT, mr.Field)

	_, err = parseRow(5, []string{"GM3(36:1;O2)", "1", "-2", "1", "T"}, idx)
	require.True(t, errors.As(err, &mr))
	assert.Equal(t, ColVolume, mr.Field)
}
