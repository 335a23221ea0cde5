package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/ingest"
	"github.com/YuminosukeSato/rtguard/pipeline"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/pkg/log"
	"github.com/YuminosukeSato/rtguard/report"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runEnvelope wraps a report with the invocation details.
type runEnvelope struct {
	RunID  string         `json:"run_id" yaml:"run_id"`
	Input  string         `json:"input" yaml:"input"`
	Sheet  string         `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Report *report.Report `json:"report" yaml:"report"`
}

type analyzeFlags struct {
	format           string
	out              string
	sheet            string
	outlierThreshold float64
	rtTolerance      float64
	seed             int
}

func newAnalyzeCmd(root *rootFlags) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a CSV, TSV or XLSX peak table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			applyOverrides(cmd, f, &cfg)

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			logger = logger.With(log.RunIDKey, runID)

			path := args[0]
			table, err := ingest.ReadFile(path, f.sheet)
			if err != nil {
				return err
			}
			rep, err := pipeline.Run(table, cfg, pipeline.WithLogger(logger))
			if err != nil {
				return err
			}

			env := runEnvelope{RunID: runID, Input: filepath.Base(path), Sheet: f.sheet, Report: rep}
			return writeOutput(cmd.OutOrStdout(), f.out, env, f.format)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", report.FormatJSON, "output format: json or yaml")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "worksheet name for XLSX input (default: first sheet)")
	cmd.Flags().Float64Var(&f.outlierThreshold, "outlier-threshold", 0, "standardized residual limit (overrides config)")
	cmd.Flags().Float64Var(&f.rtTolerance, "rt-tolerance", 0, "fragment co-elution window in minutes (overrides config)")
	cmd.Flags().IntVar(&f.seed, "seed", 0, "k-fold shuffle seed (overrides config)")
	return cmd
}

func applyOverrides(cmd *cobra.Command, f *analyzeFlags, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("outlier-threshold") {
		cfg.OutlierThreshold = f.outlierThreshold
	}
	if fl.Changed("rt-tolerance") {
		cfg.RTTolerance = f.rtTolerance
	}
	if fl.Changed("seed") {
		cfg.RandomSeed = f.seed
	}
}

func writeOutput(stdout io.Writer, path string, v any, format string) error {
	if path == "" {
		return report.Write(stdout, v, format)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "rtguard: create output directory")
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "rtguard: create %s", path)
	}
	if err := report.Write(out, v, format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
