package pipeline

import (
	"bytes"
	"testing"

	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/pkg/log"
	"github.com/YuminosukeSato/rtguard/report"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gd1Table has a GD1 group on RT = 2*LogP + 3 and a GD1+OAc group with two
// anchors on the same line, so GD1+OAc resolves through the GD1 family.
func gd1Table(oacLogP, oacRT string) dataset.Table {
	return dataset.Table{
		Header: []string{"Name", "RT", "Volume", "Log P", "Anchor", "Comment"},
		Rows: [][]string{
			{"GD1(34:1;O2)", "5.0", "100", "1", "T", ""},
			{"GD1(36:1;O2)", "7.0", "120", "2", "T", ""},
			{"GD1(38:1;O2)", "9.0", "90", "3", "T", ""},
			{"GD1(40:1;O2)", "11.0", "60", "4", "T", ""},
			{"GD1(36:2;O2)", "8.0", "40", "2.5", "F", ""},
			{"GD1(42:1;O2)", "20.0", "10", "5", "F", "late"},
			{"GD1+OAc(34:1;O2)", "6.0", "30", "1.5", "T", ""},
			{"GD1+OAc(38:1;O2)", "10.0", "25", "3.5", "T", ""},
			{"GD1+OAc(36:1;O2)", oacRT, "20", oacLogP, "F", ""},
			{"XYZ(36:1)", "7.0", "5", "1", "F", ""},
			{"GM3(36:1;O2)", "abc", "5", "1", "F", ""},
		},
	}
}

func quiet() Option {
	return WithWarnFunc(func(error) {})
}

func TestRun_GD1AndOAcetylatedFamily(t *testing.T) {
	rep, err := Run(gd1Table("2.25", "7.5"), config.Default(), quiet())
	require.NoError(t, err)

	assert.Equal(t, 11, rep.Totals.Rows)
	assert.Equal(t, 9, rep.Totals.Parsed)
	assert.Equal(t, 2, rep.Totals.Malformed)
	assert.Equal(t, 1, rep.Totals.Outlier)
	assert.Equal(t, 8, rep.Totals.Valid)

	require.Len(t, rep.Compounds, 11)
	for i, c := range rep.Compounds {
		assert.Equal(t, i+1, c.Row)
	}
	assert.Equal(t, validate.StatusMalformed, rep.Compounds[9].Status)
	assert.Equal(t, validate.StatusMalformed, rep.Compounds[10].Status)
	assert.Equal(t, validate.StatusOutlier, rep.Compounds[5].Status)
	assert.Contains(t, rep.Compounds[5].Reason, "tier 2")

	oac := rep.Compounds[8]
	assert.Equal(t, validate.StatusValid, oac.Status)
	assert.Equal(t, rep.Compounds[1].Composition.TotalSugar, oac.Composition.TotalSugar)
	assert.Equal(t, 4, oac.Tier)
	require.NotNil(t, oac.PredictedRT)
	assert.InDelta(t, 7.5, *oac.PredictedRT, 1e-3)

	require.Len(t, rep.Groups, 2)
	assert.Equal(t, "GD1", rep.Groups[0].Prefix)
	assert.Equal(t, resolve.TierOwnMedium, rep.Groups[0].Tier)
	assert.Equal(t, "GD1+OAc", rep.Groups[1].Prefix)
	assert.Equal(t, resolve.TierFamily, rep.Groups[1].Tier)
	require.NotNil(t, rep.Groups[1].Model)
	assert.Equal(t, "GD1", rep.Groups[1].Model.Scope)

	require.Len(t, rep.OAcChecks, 3)
	for _, c := range rep.OAcChecks {
		assert.Equal(t, validate.OAcPass, c.Result, c.Compound)
	}
	assert.Equal(t, "GD1(36:1;O2)", rep.OAcChecks[2].Base)

	assert.Equal(t, 2, rep.Errors[errors.KindMalformedRecord])
	assert.Equal(t, 1, rep.Errors[errors.KindInsufficientAnchors])
	assert.Zero(t, rep.Errors[errors.KindValidationFailure])
	assert.Empty(t, rep.Warnings)
	assert.Empty(t, rep.Clusters)

	require.Len(t, rep.Categories, 6)
	assert.Equal(t, "GM", string(rep.Categories[0].Category))
	assert.Equal(t, 9, rep.Categories[1].Total)
	assert.Equal(t, 8, rep.Categories[1].Valid)
}

func TestRun_OAcInversionDemotes(t *testing.T) {
	// Predicted 2*1.9 + 3 = 6.8 fits the family model but elutes before
	// GD1(36:1;O2) at 7.0.
	rep, err := Run(gd1Table("1.9", "6.8"), config.Default(), quiet())
	require.NoError(t, err)

	oac := rep.Compounds[8]
	assert.Equal(t, validate.StatusOutlier, oac.Status)
	assert.Contains(t, oac.Reason, validate.RuleOAcetylation)
	assert.Equal(t, 1, rep.Errors[errors.KindValidationFailure])

	var failed int
	for _, c := range rep.OAcChecks {
		if c.Result == validate.OAcFail {
			failed++
			assert.Equal(t, "GD1+OAc(36:1;O2)", c.Compound)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRun_Idempotent(t *testing.T) {
	encode := func() []byte {
		rep, err := Run(gd1Table("2.25", "7.5"), config.Default(), quiet())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, report.Write(&buf, rep, report.FormatJSON))
		return buf.Bytes()
	}
	first := encode()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, encode())
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	cfg := config.Default()
	cfg.OutlierThreshold = -1

	rep, err := Run(gd1Table("2.25", "7.5"), cfg)
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
}

func TestRun_ZeroLogConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log = config.Log{}

	rep, err := Run(gd1Table("2.25", "7.5"), cfg, quiet())
	require.NoError(t, err)
	assert.Equal(t, 11, rep.Totals.Rows)
}

func TestRun_MissingColumn(t *testing.T) {
	table := dataset.Table{
		Header: []string{"Name", "RT", "Volume", "LogP"},
		Rows:   [][]string{{"GD1(36:1;O2)", "7", "1", "2"}},
	}
	_, err := Run(table, config.Default())
	require.Error(t, err)
	assert.Equal(t, errors.KindInput, errors.KindOf(err))
}

func TestRun_LogsAndWarnings(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	// GD1 anchors on a decreasing line give a negative LogP coefficient.
	table := dataset.Table{
		Header: []string{"Name", "RT", "Volume", "LogP", "Anchor"},
		Rows: [][]string{
			{"GD1(34:1;O2)", "11.0", "1", "1", "TRUE"},
			{"GD1(36:1;O2)", "9.0", "1", "2", "TRUE"},
			{"GD1(38:1;O2)", "7.0", "1", "3", "TRUE"},
			{"GD1(40:1;O2)", "5.0", "1", "4", "TRUE"},
		},
	}
	var warned []error
	rep, err := Run(table, config.Default(),
		WithLogger(logger),
		WithWarnFunc(func(w error) { warned = append(warned, w) }),
	)
	require.NoError(t, err)

	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, "coefficient_sign", rep.Warnings[0].Check)
	assert.Len(t, warned, 1)
	assert.True(t, logger.ContainsMessage("analysis finished"))
	assert.True(t, logger.ContainsMessage("table loaded"))
}

func TestRun_UncoveredGroupsCountAsInsufficientAnchors(t *testing.T) {
	// Both groups are too noisy for their own, family and global models.
	table := dataset.Table{
		Header: []string{"Name", "RT", "Volume", "LogP", "Anchor"},
		Rows: [][]string{
			{"GM3(34:1;O2)", "11.3", "1", "4.0", "T"},
			{"GM3(36:1;O2)", "11.7", "1", "4.5", "T"},
			{"GM3(38:1;O2)", "13.0", "1", "5.0", "T"},
			{"GT3(34:1;O2)", "13.0", "1", "4.0", "T"},
			{"GT3(36:1;O2)", "11.2", "1", "4.5", "T"},
			{"GT3(38:1;O2)", "12.1", "1", "5.0", "T"},
		},
	}
	rep, err := Run(table, config.Default(), quiet())
	require.NoError(t, err)

	require.Len(t, rep.Groups, 2)
	for _, g := range rep.Groups {
		assert.Equal(t, resolve.TierNone, g.Tier, g.Prefix)
	}
	assert.Equal(t, 2, rep.Errors[errors.KindInsufficientAnchors])
}
