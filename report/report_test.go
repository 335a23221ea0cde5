package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/consolidate"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample(t *testing.T) *Report {
	t.Helper()
	gm, err := compound.New(1, "GM1(36:1;O2)", 8.0, 2, 10, true)
	require.NoError(t, err)
	gd, err := compound.New(3, "GD1(36:1;O2)", 7.95, 2, 30, false)
	require.NoError(t, err)

	ds := &dataset.Dataset{
		Compounds: []compound.Compound{gm, gd},
		Rejected: []dataset.Rejected{
			{Row: 2, Name: "bad", Err: errors.NewMalformedRecordError(2, "bad", "Name", "unknown series")},
		},
		Groups: []dataset.Group{
			{Prefix: "GM1", Family: "GM1", Members: []int{0}, Anchors: []int{0}},
			{Prefix: "GD1", Family: "GD1", Members: []int{1}},
		},
	}
	resolutions := []resolve.Resolution{
		{Group: ds.Groups[0], Tier: resolve.TierNone, Reason: resolve.ReasonNoCoverage,
			Errors: []error{errors.NewInsufficientAnchorsError("GM1", 1, 2)}},
		{Group: ds.Groups[1], Tier: resolve.TierNone, Reason: resolve.ReasonNoCoverage,
			Errors: []error{errors.NewInsufficientAnchorsError("GD1", 0, 2)}},
	}
	records := []validate.Record{
		{Status: validate.StatusFragment, Tier: 6, FragmentReason: "in-source fragment of GD1(36:1;O2)"},
		{Status: validate.StatusValid, Tier: 6},
	}
	return Build(Input{
		Dataset:       ds,
		Resolutions:   resolutions,
		Records:       records,
		Consolidation: consolidate.Result{Volumes: []float64{10, 40}},
	})
}

func TestBuild(t *testing.T) {
	r := sample(t)

	require.Len(t, r.Compounds, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{r.Compounds[0].Row, r.Compounds[1].Row, r.Compounds[2].Row})
	assert.Equal(t, validate.StatusMalformed, r.Compounds[1].Status)
	assert.Contains(t, r.Compounds[1].Reason, "unknown series")
	assert.Equal(t, "in-source fragment of GD1(36:1;O2)", r.Compounds[0].Reason)
	assert.Equal(t, 40.0, r.Compounds[2].ConsolidatedVolume)

	assert.Equal(t, "GD1", r.Groups[0].Prefix, "groups are sorted by prefix")
	assert.NotNil(t, r.Groups[0].Attempts)

	assert.Equal(t, 2, r.Errors[errors.KindInsufficientAnchors])
	assert.Equal(t, 1, r.Errors[errors.KindMalformedRecord])

	assert.Equal(t, Totals{Rows: 3, Parsed: 2, Anchors: 1, Groups: 2, Valid: 1, Fragment: 1, Malformed: 1}, r.Totals)

	require.Len(t, r.Categories, len(compound.ReportOrder))
	assert.Equal(t, CategoryCount{Category: compound.CategoryGM, Total: 1, Fragment: 1}, r.Categories[0])
	assert.Equal(t, CategoryCount{Category: compound.CategoryGD, Total: 1, Valid: 1}, r.Categories[1])
}

func TestWrite(t *testing.T) {
	r := sample(t)

	var js bytes.Buffer
	require.NoError(t, Write(&js, r, FormatJSON))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["clusters"])
	assert.Contains(t, js.String(), `"insufficient_anchors": 2`)

	var ym bytes.Buffer
	require.NoError(t, Write(&ym, r, FormatYAML))
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &back))
	assert.Contains(t, back, "totals")

	err := Write(&bytes.Buffer{}, r, "xml")
	require.Error(t, err)
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
}
