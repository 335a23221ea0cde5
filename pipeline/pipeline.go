// Package pipeline runs a complete retention-time analysis over one table.
//
// The stages run in a fixed order: parse and partition, resolve a model per
// prefix group, classify outliers, check O-acetylation, consolidate
// fragments, audit plausibility and build the report. Run is a pure
// function of its table and configuration; identical inputs produce
// identical reports.
package pipeline

import (
	"time"

	"github.com/YuminosukeSato/rtguard/audit"
	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/consolidate"
	"github.com/YuminosukeSato/rtguard/dataset"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/pkg/log"
	"github.com/YuminosukeSato/rtguard/report"
	"github.com/YuminosukeSato/rtguard/resolve"
	"github.com/YuminosukeSato/rtguard/validate"
)

type options struct {
	logger log.Logger
	warn   func(error)
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger used by every stage. The default discards output.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWarnFunc replaces errors.Warn as the sink for plausibility warnings.
// Warnings are always attached to the report as well.
func WithWarnFunc(fn func(error)) Option {
	return func(o *options) {
		o.warn = fn
	}
}

// Run analyses table under cfg. It fails only on an invalid configuration
// or a table missing a required column; every per-row and per-group
// problem is recorded in the report instead.
func Run(table dataset.Table, cfg config.Config, opts ...Option) (*report.Report, error) {
	o := options{logger: log.Nop(), warn: errors.Warn}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(log.ComponentKey, "pipeline")

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.ErrAttrKey, err)
		return nil, err
	}

	start := time.Now()
	ds, err := dataset.Load(table, cfg.Families)
	if err != nil {
		logger.Error("cannot load table", log.ErrAttrKey, err)
		return nil, err
	}
	for _, rej := range ds.Rejected {
		logger.Warn("malformed row", log.RowKey, rej.Row, log.ErrAttrKey, rej.Err)
	}
	logger.Info("table loaded",
		log.CompoundsKey, len(ds.Compounds),
		log.GroupsKey, len(ds.Groups),
	)

	resolutions, err := resolve.New(cfg, o.logger).Resolve(ds)
	if err != nil {
		return nil, errors.Wrap(err, "rtguard: resolve models")
	}

	var stageErrs []error
	records, errs := validate.ClassifyOutliers(ds, resolutions, cfg)
	stageErrs = append(stageErrs, errs...)

	checks, errs := validate.ValidateOAcetylation(ds.Compounds, records)
	stageErrs = append(stageErrs, errs...)
	for _, err := range errs {
		logger.Warn("validation rule failed", log.ErrAttrKey, err)
	}

	cons := consolidate.Consolidate(ds.Compounds, records, cfg.RTTolerance)
	logger.Debug("fragments consolidated", log.OperationKey, log.OperationConsolidate, "clusters", len(cons.Clusters))

	warnings := audit.Run(ds.Compounds, records, resolutions, cfg)
	for _, w := range warnings {
		if o.warn != nil {
			o.warn(w)
		}
	}

	rep := report.Build(report.Input{
		Dataset:       ds,
		Resolutions:   resolutions,
		Records:       records,
		OAcChecks:     checks,
		Consolidation: cons,
		Warnings:      warnings,
		Errors:        stageErrs,
	})

	logger.Info("analysis finished",
		"valid", rep.Totals.Valid,
		"outlier", rep.Totals.Outlier,
		"fragment", rep.Totals.Fragment,
		"malformed", rep.Totals.Malformed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return rep, nil
}
