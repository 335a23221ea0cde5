// Package report assembles the results of one analysis run into a single
// deterministic document.
package report

import (
	"sort"

	"github.com/YuminosukeSato/rtguard/compound"
	"github.com/YuminosukeSato/rtguard/consolidate"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/rtmodel"
	"github.com/YuminosukeSato/rtguard/validate"
)

// CompoundResult is the outcome for one input row, parsed or not.
type CompoundResult struct {
	Row    int             `json:"row" yaml:"row"`
	Name   string          `json:"name" yaml:"name"`
	Status validate.Status `json:"status" yaml:"status"`
	// Reason explains any status other than valid.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	Prefix        string                `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix        string                `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Category      compound.Category     `json:"category,omitempty" yaml:"category,omitempty"`
	Composition   *compound.Composition `json:"composition,omitempty" yaml:"composition,omitempty"`
	Modifications string                `json:"modifications,omitempty" yaml:"modifications,omitempty"`

	RetentionTime      float64 `json:"rt" yaml:"rt"`
	LogP               float64 `json:"logp" yaml:"logp"`
	Volume             float64 `json:"volume" yaml:"volume"`
	ConsolidatedVolume float64 `json:"consolidated_volume" yaml:"consolidated_volume"`
	Anchor             bool    `json:"anchor" yaml:"anchor"`

	Tier                 int      `json:"tier,omitempty" yaml:"tier,omitempty"`
	PredictedRT          *float64 `json:"predicted_rt,omitempty" yaml:"predicted_rt,omitempty"`
	Residual             *float64 `json:"residual,omitempty" yaml:"residual,omitempty"`
	StandardizedResidual *float64 `json:"standardized_residual,omitempty" yaml:"standardized_residual,omitempty"`
}

// GroupSummary describes how one prefix group was resolved.
type GroupSummary struct {
	Prefix   string            `json:"prefix" yaml:"prefix"`
	Family   string            `json:"family" yaml:"family"`
	Members  int               `json:"members" yaml:"members"`
	Anchors  int               `json:"anchors" yaml:"anchors"`
	Tier     int               `json:"tier" yaml:"tier"`
	Model    *rtmodel.Model    `json:"model,omitempty" yaml:"model,omitempty"`
	Attempts []resolve.Attempt `json:"attempts" yaml:"attempts"`
	Reason   string            `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CategoryCount is the status breakdown of one category.
type CategoryCount struct {
	Category compound.Category `json:"category" yaml:"category"`
	Total    int               `json:"total" yaml:"total"`
	Valid    int               `json:"valid" yaml:"valid"`
	Outlier  int               `json:"outlier" yaml:"outlier"`
	Fragment int               `json:"fragment" yaml:"fragment"`
}

// Totals summarizes the run.
type Totals struct {
	Rows      int `json:"rows" yaml:"rows"`
	Parsed    int `json:"parsed" yaml:"parsed"`
	Anchors   int `json:"anchors" yaml:"anchors"`
	Groups    int `json:"groups" yaml:"groups"`
	Valid     int `json:"valid" yaml:"valid"`
	Outlier   int `json:"outlier" yaml:"outlier"`
	Fragment  int `json:"fragment" yaml:"fragment"`
	Malformed int `json:"malformed" yaml:"malformed"`
}

// Report is the full result of an analysis run.
type Report struct {
	Compounds  []CompoundResult              `json:"compounds" yaml:"compounds"`
	Groups     []GroupSummary                `json:"groups" yaml:"groups"`
	Categories []CategoryCount               `json:"categories" yaml:"categories"`
	OAcChecks  []validate.OAcCheck           `json:"oac_checks" yaml:"oac_checks"`
	Clusters   []consolidate.Cluster         `json:"clusters" yaml:"clusters"`
	Warnings   []*errors.PlausibilityWarning `json:"warnings" yaml:"warnings"`
	Errors     map[errors.ErrorKind]int      `json:"errors" yaml:"errors"`
	Totals     Totals                        `json:"totals" yaml:"totals"`
}

// Input gathers the stage outputs Build needs.
type Input struct {
	Dataset     *dataset.Dataset
	Resolutions []resolve.Resolution
	// Records is indexed like Dataset.Compounds.
	Records       []validate.Record
	OAcChecks     []validate.OAcCheck
	Consolidation consolidate.Result
	Warnings      []*errors.PlausibilityWarning
	// Errors are stage errors not already held by Dataset.Rejected or the
	// resolutions.
	Errors []error
}

// Build assembles the report. Compounds are ordered by input row, groups
// by prefix and categories by compound.ReportOrder.
func Build(in Input) *Report {
	ds := in.Dataset
	r := &Report{
		Compounds:  make([]CompoundResult, 0, len(ds.Compounds)+len(ds.Rejected)),
		Groups:     make([]GroupSummary, 0, len(in.Resolutions)),
		OAcChecks:  nonNil(in.OAcChecks),
		Clusters:   nonNil(in.Consolidation.Clusters),
		Warnings:   nonNil(in.Warnings),
		Errors:     make(map[errors.ErrorKind]int),
		Categories: make([]CategoryCount, 0, len(compound.ReportOrder)),
	}

	counts := make(map[compound.Category]*CategoryCount, len(compound.ReportOrder))
	for _, cat := range compound.ReportOrder {
		counts[cat] = &CategoryCount{Category: cat}
	}

	for i, c := range ds.Compounds {
		rec := in.Records[i]
		comp := c.Composition
		res := CompoundResult{
			Row:                  c.Row,
			Name:                 c.Name,
			Status:               rec.Status,
			Reason:               reasonOf(rec),
			Prefix:               c.Prefix,
			Suffix:               c.Suffix,
			Category:             c.Category,
			Composition:          &comp,
			Modifications:        c.Modifications.String(),
			RetentionTime:        c.RetentionTime,
			LogP:                 c.LogP,
			Volume:               c.Volume,
			ConsolidatedVolume:   c.Volume,
			Anchor:               c.IsAnchor,
			Tier:                 rec.Tier,
			PredictedRT:          rec.PredictedRT,
			Residual:             rec.Residual,
			StandardizedResidual: rec.StandardizedResidual,
		}
		if i < len(in.Consolidation.Volumes) {
			res.ConsolidatedVolume = in.Consolidation.Volumes[i]
		}
		r.Compounds = append(r.Compounds, res)

		if c.IsAnchor {
			r.Totals.Anchors++
		}
		cc := counts[c.Category]
		cc.Total++
		switch rec.Status {
		case validate.StatusValid:
			cc.Valid++
			r.Totals.Valid++
		case validate.StatusOutlier:
			cc.Outlier++
			r.Totals.Outlier++
		case validate.StatusFragment:
			cc.Fragment++
			r.Totals.Fragment++
		}
	}

	for _, rej := range ds.Rejected {
		r.Compounds = append(r.Compounds, CompoundResult{
			Row:    rej.Row,
			Name:   rej.Name,
			Status: validate.StatusMalformed,
			Reason: rej.Err.Error(),
		})
		r.Totals.Malformed++
		r.count(rej.Err)
	}
	sort.SliceStable(r.Compounds, func(a, b int) bool {
		return r.Compounds[a].Row < r.Compounds[b].Row
	})

	for _, res := range in.Resolutions {
		r.Groups = append(r.Groups, GroupSummary{
			Prefix:   res.Group.Prefix,
			Family:   res.Group.Family,
			Members:  len(res.Group.Members),
			Anchors:  res.Group.AnchorCount(),
			Tier:     res.Tier,
			Model:    res.Model,
			Attempts: nonNil(res.Attempts),
			Reason:   res.Reason,
		})
		for _, err := range res.Errors {
			r.count(err)
		}
	}
	sort.SliceStable(r.Groups, func(a, b int) bool {
		return r.Groups[a].Prefix < r.Groups[b].Prefix
	})

	for _, err := range in.Errors {
		r.count(err)
	}
	for _, cat := range compound.ReportOrder {
		r.Categories = append(r.Categories, *counts[cat])
	}

	r.Totals.Rows = len(ds.Compounds) + len(ds.Rejected)
	r.Totals.Parsed = len(ds.Compounds)
	r.Totals.Groups = len(in.Resolutions)
	return r
}

func (r *Report) count(err error) {
	if err == nil {
		return
	}
	r.Errors[errors.KindOf(err)]++
}

func reasonOf(rec validate.Record) string {
	switch rec.Status {
	case validate.StatusOutlier:
		return rec.OutlierReason
	case validate.StatusFragment:
		return rec.FragmentReason
	default:
		return ""
	}
}

// nonNil keeps empty sections as [] rather than null in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
