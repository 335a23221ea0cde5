// Package rtguard validates liquid-chromatography retention times of
// ganglioside identifications, designed for batch analysis of lipidomics
// peak tables.
//
// rtguard fits a ridge-regularized retention-time model for every compound
// prefix (for example "GD1" or "GD1+OAc") from the anchor compounds the
// analyst trusts, and judges every other compound against it.
//
// # Features
//
// - Hierarchical fallback: own model (tiers 1-3), pooled family model (tier 4), global model (tier 5)
// - Honest validation: exact leave-one-out for small anchor sets, seeded k-fold otherwise
// - Outlier detection on standardized residuals with a residual floor
// - O-acetylation ordering check against the unmodified base compound
// - In-source fragment consolidation with volume conservation
// - Advisory chemical plausibility audit
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//	    "os"
//
//	    "github.com/YuminosukeSato/rtguard/config"
//	    "github.com/YuminosukeSato/rtguard/ingest"
//	    "github.com/YuminosukeSato/rtguard/pipeline"
//	    "github.com/YuminosukeSato/rtguard/report"
//	)
//
//	func main() {
//	    table, err := ingest.ReadFile("peaks.xlsx", "")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    rep, err := pipeline.Run(table, config.Default())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = report.Write(os.Stdout, rep, report.FormatJSON)
//	}
//
// # Packages
//
//   - compound: name parsing, sugar composition, modifications and categories
//   - dataset: table validation and prefix grouping
//   - linear: RidgeCV with exact leave-one-out alpha selection
//   - crossval: k-fold and leave-one-out out-of-fold predictions
//   - preprocessing: feature standardization
//   - metrics: R², residual statistics, Pearson correlation, medians
//   - rtmodel: retention-time model fitting and equations
//   - resolve: the tier ladder
//   - validate: outlier classification and the O-acetylation rule
//   - consolidate: fragment clustering
//   - audit: plausibility warnings
//   - report: the result document
//   - pipeline: the end-to-end run
//   - config: defaults, validation and YAML/env loading
//   - ingest: CSV, TSV and XLSX readers
//   - core/parallel: bounded fan-out
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// The rtguard command (cmd/rtguard) wraps the pipeline for the shell.
package rtguard
