package validate

import (
	"testing"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/rtmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompound(t *testing.T, row int, name string, rt, logP float64) compound.Compound {
	t.Helper()
	c, err := compound.New(row, name, rt, logP, 1, false)
	require.NoError(t, err)
	return c
}

func TestClassifyOutliers(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GM3(34:1;O2)", 7.0, 2.0),  // residual 0
		mustCompound(t, 2, "GM3(36:1;O2)", 9.3, 3.0),  // residual +0.3, z = 3
		mustCompound(t, 3, "GM3(38:1;O2)", 10.8, 4.0), // residual -0.2, z = -2
		mustCompound(t, 4, "GD3(36:1;O2)", 8.0, 3.0),
	}
	ds := &dataset.Dataset{Compounds: cs, Groups: dataset.Partition(cs, nil)}
	require.Equal(t, "GD3", ds.Groups[0].Prefix)

	model := &rtmodel.Model{
		Coefficients: []rtmodel.Coefficient{{Feature: rtmodel.FeatureLogP, Value: 2}},
		Intercept:    3,
		ResidualStd:  0.1,
	}
	resolutions := []resolve.Resolution{
		{Group: ds.Groups[0], Tier: resolve.TierNone, Reason: resolve.ReasonNoCoverage},
		{Group: ds.Groups[1], Tier: resolve.TierOwnSmall, Model: model},
	}

	records, errs := ClassifyOutliers(ds, resolutions, config.Default())
	require.Empty(t, errs)
	require.Len(t, records, 4)

	assert.Equal(t, StatusValid, records[0].Status)
	assert.InDelta(t, 0, *records[0].StandardizedResidual, 1e-9)

	assert.Equal(t, StatusOutlier, records[1].Status)
	assert.InDelta(t, 3.0, *records[1].StandardizedResidual, 1e-9)
	assert.Contains(t, records[1].OutlierReason, "tier 3")
	assert.Contains(t, records[1].OutlierReason, "2.50")
	assert.Contains(t, records[1].OutlierReason, "+0.300")

	assert.Equal(t, StatusValid, records[2].Status)
	assert.InDelta(t, 11.0, *records[2].PredictedRT, 1e-9)

	assert.Equal(t, StatusOutlier, records[3].Status)
	assert.Nil(t, records[3].PredictedRT)
	assert.Contains(t, records[3].OutlierReason, resolve.ReasonNoCoverage)
	assert.Equal(t, resolve.TierNone, records[3].Tier)
}

func TestClassifyOutliers_ResidualStdFloor(t *testing.T) {
	cs := []compound.Compound{mustCompound(t, 1, "GM3(34:1;O2)", 7.1, 2.0)}
	ds := &dataset.Dataset{Compounds: cs, Groups: dataset.Partition(cs, nil)}
	model := &rtmodel.Model{
		Coefficients: []rtmodel.Coefficient{{Feature: rtmodel.FeatureLogP, Value: 2}},
		Intercept:    3,
		ResidualStd:  0,
	}
	records, _ := ClassifyOutliers(ds, []resolve.Resolution{{Group: ds.Groups[0], Tier: 1, Model: model}}, config.Default())
	// 0.1 / 0.05
	assert.InDelta(t, 2.0, *records[0].StandardizedResidual, 1e-9)
	assert.Equal(t, StatusValid, records[0].Status)
}

func TestClassifyOutliers_ManyGroups(t *testing.T) {
	prefixes := []string{"GM1", "GM2", "GM3", "GD1", "GD2", "GD3", "GT1", "GT3"}
	var cs []compound.Compound
	for _, p := range prefixes {
		cs = append(cs,
			mustCompound(t, len(cs)+1, p+"(36:1;O2)", 9.0, 3.0),
			mustCompound(t, len(cs)+2, p+"(38:1;O2)", 11.0, 4.0),
		)
	}
	ds := &dataset.Dataset{Compounds: cs, Groups: dataset.Partition(cs, nil)}
	require.Len(t, ds.Groups, len(prefixes))

	model := &rtmodel.Model{
		Coefficients: []rtmodel.Coefficient{{Feature: rtmodel.FeatureLogP, Value: 2}},
		Intercept:    3,
		ResidualStd:  0.1,
	}
	resolutions := make([]resolve.Resolution, len(ds.Groups))
	for i, g := range ds.Groups {
		resolutions[i] = resolve.Resolution{Group: g, Tier: resolve.TierOwnMedium, Model: model}
	}
	resolutions[0].Model = nil
	resolutions[0].Tier = resolve.TierNone

	records, errs := ClassifyOutliers(ds, resolutions, config.Default())
	require.Empty(t, errs)
	require.Len(t, records, len(cs))
	for gi, g := range ds.Groups {
		for _, idx := range g.Members {
			want := StatusValid
			if gi == 0 {
				want = StatusOutlier
			}
			assert.Equal(t, want, records[idx].Status, cs[idx].Name)
			assert.Equal(t, resolutions[gi].Tier, records[idx].Tier, cs[idx].Name)
		}
	}
}

func validRecords(n int) []Record {
	recs := make([]Record, n)
	for i := range recs {
		recs[i].Status = StatusValid
	}
	return recs
}

func TestValidateOAcetylation_PassAndInversion(t *testing.T) {
	base := mustCompound(t, 1, "GD1(36:1;O2)", 12.0, 5.0)
	mod := mustCompound(t, 2, "GD1+OAc(36:1;O2)", 12.4, 5.1)

	records := validRecords(2)
	checks, errs := ValidateOAcetylation([]compound.Compound{base, mod}, records)
	require.Empty(t, errs)
	require.Len(t, checks, 1)
	assert.Equal(t, OAcPass, checks[0].Result)
	assert.Equal(t, "GD1(36:1;O2)", checks[0].Base)
	assert.Equal(t, 12.0, *checks[0].BaseRT)
	assert.Equal(t, StatusValid, records[1].Status)

	// RT を入れ替えると FAIL になる
	base.RetentionTime, mod.RetentionTime = mod.RetentionTime, base.RetentionTime
	records = validRecords(2)
	checks, errs = ValidateOAcetylation([]compound.Compound{base, mod}, records)
	require.Len(t, errs, 1)
	assert.Equal(t, OAcFail, checks[0].Result)
	assert.Equal(t, errors.KindValidationFailure, errors.KindOf(errs[0]))
	assert.Equal(t, StatusOutlier, records[1].Status)
	assert.Contains(t, records[1].OutlierReason, RuleOAcetylation)
	assert.Equal(t, StatusValid, records[0].Status)
}

func TestValidateOAcetylation_EqualRTFails(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GD3(34:1;O2)", 10.0, 4.0),
		mustCompound(t, 2, "GD3+OAc(34:1;O2)", 10.0, 4.1),
	}
	checks, _ := ValidateOAcetylation(cs, validRecords(2))
	assert.Equal(t, OAcFail, checks[0].Result)
}

func TestValidateOAcetylation_Monotonicity(t *testing.T) {
	pairs := [][2]float64{{10, 10.5}, {8, 7.9}, {12.2, 12.21}, {5, 9}, {9, 5}}
	for _, p := range pairs {
		cs := []compound.Compound{
			mustCompound(t, 1, "GM1a(36:1;O2)", p[0], 5.0),
			mustCompound(t, 2, "GM1a+OAc(36:1;O2)", p[1], 5.0),
		}
		checks, _ := ValidateOAcetylation(cs, validRecords(2))
		require.Len(t, checks, 1)
		if checks[0].Result == OAcPass {
			assert.Greater(t, p[1], p[0])
		}

		cs[0].RetentionTime, cs[1].RetentionTime = p[1], p[0]
		flipped, _ := ValidateOAcetylation(cs, validRecords(2))
		if checks[0].Result == OAcPass {
			assert.Equal(t, OAcFail, flipped[0].Result, "pair %v", p)
		}
	}
}

func TestValidateOAcetylation_BaseSelection(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GD1(36:1;O2)", 12.0, 5.0),
		mustCompound(t, 2, "GD1(36:1;O2)", 13.0, 5.0),
		mustCompound(t, 3, "GD1+OAc(36:1;O2)", 12.5, 5.1),  // tie: row 1 wins
		mustCompound(t, 4, "GD1(38:1;O2)", 12.9, 5.5),      // other suffix
		mustCompound(t, 5, "GD1+OAc(38:1;O2)", 13.0, 5.6),  // pass vs row 4
		mustCompound(t, 6, "GD1a+OAc(36:1;O2)", 14.0, 5.6), // isomer differs: no base
		mustCompound(t, 7, "GD1+dHex(36:1;O2)", 11.0, 5.0), // outlier, still a base
		mustCompound(t, 8, "GD1+OAc+dHex(36:1;O2)", 12.0, 5.0),
	}
	records := validRecords(len(cs))
	records[6].Status = StatusOutlier

	checks, errs := ValidateOAcetylation(cs, records)
	require.Empty(t, errs)
	require.Len(t, checks, 4)

	assert.Equal(t, 1, checks[0].BaseRow)
	assert.Equal(t, OAcPass, checks[0].Result)
	assert.Equal(t, 4, checks[1].BaseRow)
	assert.Equal(t, OAcBaseNotFound, checks[2].Result)
	assert.Equal(t, "base not found", checks[2].Detail)
	assert.Equal(t, StatusValid, records[5].Status)
	assert.Equal(t, 7, checks[3].BaseRow)
	assert.Equal(t, OAcPass, checks[3].Result)
}

func TestValidateOAcetylation_OutlierBaseStillChecked(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GD1(36:1;O2)", 12.0, 5.0),
		mustCompound(t, 2, "GD1+OAc(36:1;O2)", 11.0, 5.1),
	}
	records := validRecords(2)
	records[0].Status = StatusOutlier

	checks, errs := ValidateOAcetylation(cs, records)
	require.Len(t, checks, 1)
	assert.Equal(t, OAcFail, checks[0].Result)
	assert.Equal(t, 1, checks[0].BaseRow)
	require.Len(t, errs, 1)
	assert.Equal(t, errors.KindValidationFailure, errors.KindOf(errs[0]))
	assert.Equal(t, StatusOutlier, records[1].Status)
}

func TestValidateOAcetylation_PrefersValidBase(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GD1(36:1;O2)", 11.9, 5.0), // closer, but an outlier
		mustCompound(t, 2, "GD1(36:1;O2)", 10.0, 5.0),
		mustCompound(t, 3, "GD1+OAc(36:1;O2)", 11.5, 5.1),
	}
	records := validRecords(3)
	records[0].Status = StatusOutlier

	checks, errs := ValidateOAcetylation(cs, records)
	require.Len(t, checks, 1)
	assert.Empty(t, errs)
	assert.Equal(t, 2, checks[0].BaseRow)
	assert.Equal(t, OAcPass, checks[0].Result)
}

func TestValidateOAcetylation_SkipsNonValid(t *testing.T) {
	cs := []compound.Compound{
		mustCompound(t, 1, "GD1(36:1;O2)", 12.0, 5.0),
		mustCompound(t, 2, "GD1+OAc(36:1;O2)", 11.0, 5.1),
	}
	records := validRecords(2)
	records[1].Status = StatusOutlier
	checks, errs := ValidateOAcetylation(cs, records)
	assert.Empty(t, checks)
	assert.Empty(t, errs)
}
