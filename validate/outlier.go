// Package validate classifies compounds against their resolved model and
// checks chemistry rules between related compounds.
package validate

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/core/parallel"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/resolve"
)

// Status is the final classification of a compound.
type Status string

const (
	StatusValid     Status = "valid"
	StatusOutlier   Status = "outlier"
	StatusFragment  Status = "fragment"
	StatusMalformed Status = "malformed"
)

// Record is the validation outcome of one compound. Prediction fields are
// nil when the compound's group has no model.
type Record struct {
	Status Status `json:"status" yaml:"status"`
	Tier   int    `json:"tier" yaml:"tier"`

	PredictedRT          *float64 `json:"predicted_rt,omitempty" yaml:"predicted_rt,omitempty"`
	Residual             *float64 `json:"residual,omitempty" yaml:"residual,omitempty"`
	StandardizedResidual *float64 `json:"standardized_residual,omitempty" yaml:"standardized_residual,omitempty"`

	OutlierReason  string `json:"outlier_reason,omitempty" yaml:"outlier_reason,omitempty"`
	FragmentReason string `json:"fragment_reason,omitempty" yaml:"fragment_reason,omitempty"`
}

// groupParallelThreshold is the group count above which groups are
// classified concurrently.
const groupParallelThreshold = 4

func ptr(v float64) *float64 { return &v }

// ClassifyOutliers returns one Record per compound of ds, indexed like
// ds.Compounds. A compound is an outlier when its standardized residual
// exceeds cfg.OutlierThreshold in magnitude; every member of a tier 6
// group is an outlier.
//
// A group whose classification panics is demoted to outliers and its
// recovered error is returned; other groups are unaffected.
func ClassifyOutliers(ds *dataset.Dataset, resolutions []resolve.Resolution, cfg config.Config) ([]Record, []error) {
	records := make([]Record, len(ds.Compounds))
	groupErrs := make([]error, len(resolutions))

	parallel.ParallelizeWithThreshold(len(resolutions), groupParallelThreshold, func(start, end int) {
		for gi := start; gi < end; gi++ {
			classifyGroup(ds, resolutions[gi], cfg, records, &groupErrs[gi])
		}
	})

	var errs []error
	for _, err := range groupErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return records, errs
}

// classifyGroup fills the records of one group's members. A recovered panic
// is stored in errp and demotes the whole group.
func classifyGroup(ds *dataset.Dataset, res resolve.Resolution, cfg config.Config, records []Record, errp *error) {
	err := errors.SafeExecute("classify group "+res.Group.Prefix, func() error {
		for _, idx := range res.Group.Members {
			records[idx] = classify(ds, idx, res, cfg)
		}
		return nil
	})
	if err == nil {
		return
	}
	*errp = err
	for _, idx := range res.Group.Members {
		records[idx] = Record{
			Status:        StatusOutlier,
			Tier:          res.Tier,
			OutlierReason: "classification failed: " + err.Error(),
		}
	}
}

func classify(ds *dataset.Dataset, idx int, res resolve.Resolution, cfg config.Config) Record {
	rec := Record{Tier: res.Tier}
	if res.Model == nil {
		rec.Status = StatusOutlier
		rec.OutlierReason = fmt.Sprintf("tier %d: %s", res.Tier, res.Reason)
		return rec
	}

	c := ds.Compounds[idx]
	pred := res.Model.Predict(c)
	residual := c.RetentionTime - pred
	z := residual / errors.FloorAbs(res.Model.ResidualStd, cfg.ResidualStdFloor)

	rec.PredictedRT = ptr(pred)
	rec.Residual = ptr(residual)
	rec.StandardizedResidual = ptr(z)

	if math.Abs(z) > cfg.OutlierThreshold {
		rec.Status = StatusOutlier
		rec.OutlierReason = fmt.Sprintf("tier %d: |z| = %.2f exceeds %.2f (residual %+.3f min)",
			res.Tier, math.Abs(z), cfg.OutlierThreshold, residual)
		return rec
	}
	rec.Status = StatusValid
	return rec
}
