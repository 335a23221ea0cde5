// Package audit runs advisory chemistry checks over a finished analysis.
// Findings are returned as warnings and never change compound statuses.
package audit

import (
	"fmt"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/metrics"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/rtmodel"
	"github.com/YuminosukeSato/rtguard/validate"
)

// Check names.
const (
	CheckCoefficientSign = "coefficient_sign"
	CheckCategoryOrder   = "category_order"
	CheckSugarRT         = "sugar_rt_correlation"
)

// expectedSign は各特徴量の係数に期待される符号（+1 または -1）
var expectedSign = map[string]float64{
	rtmodel.FeatureLogP:         1,
	rtmodel.FeatureCarbon:       1,
	rtmodel.FeatureUnsaturation: -1,
}

// Run audits models and valid compounds. The returned warnings are ordered
// by check, then by the order models and categories are encountered.
func Run(compounds []compound.Compound, records []validate.Record, resolutions []resolve.Resolution, cfg config.Config) []*errors.PlausibilityWarning {
	var out []*errors.PlausibilityWarning
	out = append(out, CoefficientSigns(resolutions)...)

	byCat := validByCategory(compounds, records)
	out = append(out, CategoryOrder(byCat, cfg.CategoryOrderTolerance)...)
	out = append(out, SugarCorrelation(byCat, cfg.SugarCorrelationTolerance)...)
	return out
}

// CoefficientSigns checks each distinct model once. Shared family and
// global models are reported under their own scope.
func CoefficientSigns(resolutions []resolve.Resolution) []*errors.PlausibilityWarning {
	var out []*errors.PlausibilityWarning
	seen := make(map[*rtmodel.Model]bool)
	for _, r := range resolutions {
		m := r.Model
		if m == nil || seen[m] {
			continue
		}
		seen[m] = true
		for _, c := range m.Coefficients {
			want, ok := expectedSign[c.Feature]
			if !ok || c.Value*want > 0 {
				continue
			}
			sign := "positive"
			if want < 0 {
				sign = "negative"
			}
			out = append(out, errors.NewPlausibilityWarning(
				CheckCoefficientSign,
				fmt.Sprintf("%s model %s", m.Provenance, m.Scope),
				fmt.Sprintf("%s coefficient %.4f is not %s", c.Feature, c.Value, sign),
				map[string]float64{"coefficient": c.Value},
			))
		}
	}
	return out
}

type categoryData struct {
	rt    []float64
	sugar []float64
}

func validByCategory(compounds []compound.Compound, records []validate.Record) map[compound.Category]*categoryData {
	out := make(map[compound.Category]*categoryData)
	for i, c := range compounds {
		if records[i].Status != validate.StatusValid {
			continue
		}
		d := out[c.Category]
		if d == nil {
			d = &categoryData{}
			out[c.Category] = d
		}
		d.rt = append(d.rt, c.RetentionTime)
		d.sugar = append(d.sugar, float64(c.SugarCount()))
	}
	return out
}

// CategoryOrder compares median RT between consecutive present categories
// of compound.ElutionOrder. A later category may not elute earlier than
// its predecessor by more than tolerance.
func CategoryOrder(byCat map[compound.Category]*categoryData, tolerance float64) []*errors.PlausibilityWarning {
	type present struct {
		cat    compound.Category
		median float64
		count  int
	}
	var seq []present
	for _, cat := range compound.ElutionOrder {
		d := byCat[cat]
		if d == nil || len(d.rt) == 0 {
			continue
		}
		med, err := metrics.Median(d.rt)
		if err != nil {
			continue
		}
		seq = append(seq, present{cat: cat, median: med, count: len(d.rt)})
	}

	var out []*errors.PlausibilityWarning
	for i := 1; i < len(seq); i++ {
		early, late := seq[i-1], seq[i]
		if early.median <= late.median+tolerance {
			continue
		}
		out = append(out, errors.NewPlausibilityWarning(
			CheckCategoryOrder,
			fmt.Sprintf("%s/%s", early.cat, late.cat),
			fmt.Sprintf("median RT of %s (%.3f) exceeds %s (%.3f) by more than %.3f",
				early.cat, early.median, late.cat, late.median, tolerance),
			map[string]float64{
				"median_" + string(early.cat): early.median,
				"median_" + string(late.cat):  late.median,
				"count_" + string(early.cat):  float64(early.count),
				"count_" + string(late.cat):   float64(late.count),
			},
		))
	}
	return out
}

// SugarCorrelation flags categories where RT grows with sugar count.
// Categories need at least three valid compounds and two distinct sugar
// counts.
func SugarCorrelation(byCat map[compound.Category]*categoryData, tolerance float64) []*errors.PlausibilityWarning {
	var out []*errors.PlausibilityWarning
	for _, cat := range compound.ReportOrder {
		d := byCat[cat]
		if d == nil || len(d.rt) < 3 || distinct(d.sugar) < 2 {
			continue
		}
		r, err := metrics.Pearson(d.sugar, d.rt)
		if err != nil || r <= tolerance {
			continue
		}
		out = append(out, errors.NewPlausibilityWarning(
			CheckSugarRT,
			string(cat),
			fmt.Sprintf("sugar count correlates positively with RT (r = %.3f > %.3f)", r, tolerance),
			map[string]float64{"pearson_r": r, "count": float64(len(d.rt))},
		))
	}
	return out
}

func distinct(x []float64) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		seen[v] = struct{}{}
	}
	return len(seen)
}
