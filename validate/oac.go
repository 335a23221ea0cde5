package validate

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
)

// RuleOAcetylation is the rule name carried by O-acetylation failures.
const RuleOAcetylation = "o-acetylation"

// OAcResult is the outcome of one O-acetylation check.
type OAcResult string

const (
	OAcPass         OAcResult = "pass"
	OAcFail         OAcResult = "fail"
	OAcBaseNotFound OAcResult = "base_not_found"
)

// OAcCheck compares an O-acetylated compound with its unmodified base.
type OAcCheck struct {
	Compound string    `json:"compound" yaml:"compound"`
	Row      int       `json:"row" yaml:"row"`
	RT       float64   `json:"rt" yaml:"rt"`
	Base     string    `json:"base,omitempty" yaml:"base,omitempty"`
	BaseRow  int       `json:"base_row,omitempty" yaml:"base_row,omitempty"`
	BaseRT   *float64  `json:"base_rt,omitempty" yaml:"base_rt,omitempty"`
	Result   OAcResult `json:"result" yaml:"result"`
	Detail   string    `json:"detail" yaml:"detail"`
}

// ValidateOAcetylation checks every valid O-acetylated compound against its
// base: same scaffold, isomer, suffix and non-OAc modifications, without OAc.
// O-acetylation must increase retention time. A failing compound is demoted
// to outlier in records and reported as a ValidationFailure.
//
// Any parsed base counts, whatever its status, but valid bases are preferred:
// the closest valid base in retention time is used, and only when none is
// valid the closest of the rest. Ties go to the earlier input row.
func ValidateOAcetylation(compounds []compound.Compound, records []Record) ([]OAcCheck, []error) {
	validBases := make(map[string][]int)
	otherBases := make(map[string][]int)
	for i, c := range compounds {
		if c.IsOAcetylated() {
			continue
		}
		if records[i].Status == StatusValid {
			validBases[c.BaseKey()] = append(validBases[c.BaseKey()], i)
		} else {
			otherBases[c.BaseKey()] = append(otherBases[c.BaseKey()], i)
		}
	}

	var (
		checks []OAcCheck
		errs   []error
	)
	for i, c := range compounds {
		if !c.IsOAcetylated() || records[i].Status != StatusValid {
			continue
		}
		check := OAcCheck{Compound: c.Name, Row: c.Row, RT: c.RetentionTime}

		bi := closestBase(compounds, validBases[c.BaseKey()], c.RetentionTime)
		if bi < 0 {
			bi = closestBase(compounds, otherBases[c.BaseKey()], c.RetentionTime)
		}
		if bi < 0 {
			check.Result = OAcBaseNotFound
			check.Detail = "base not found"
			checks = append(checks, check)
			continue
		}

		base := compounds[bi]
		check.Base = base.Name
		check.BaseRow = base.Row
		check.BaseRT = ptr(base.RetentionTime)

		if c.RetentionTime > base.RetentionTime {
			check.Result = OAcPass
			check.Detail = fmt.Sprintf("RT %.3f > base RT %.3f", c.RetentionTime, base.RetentionTime)
			checks = append(checks, check)
			continue
		}

		check.Result = OAcFail
		check.Detail = fmt.Sprintf("RT %.3f does not exceed base %s RT %.3f", c.RetentionTime, base.Name, base.RetentionTime)
		checks = append(checks, check)

		err := errors.NewValidationFailure(RuleOAcetylation, c.Name, check.Detail)
		errs = append(errs, err)
		records[i].Status = StatusOutlier
		records[i].OutlierReason = err.Error()
	}
	return checks, errs
}

// closestBase returns the candidate with the nearest retention time, or -1.
// Candidates are in input order, so the first minimum wins ties.
func closestBase(compounds []compound.Compound, candidates []int, rt float64) int {
	best := -1
	bestDist := math.Inf(1)
	for _, ci := range candidates {
		d := math.Abs(compounds[ci].RetentionTime - rt)
		if d < bestDist {
			best, bestDist = ci, d
		}
	}
	return best
}
