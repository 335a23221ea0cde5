package main

import (
	"io"
	"log/slog"

	"github.com/YuminosukeSato/rtguard/config"
	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/YuminosukeSato/rtguard/pkg/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	cfgFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "rtguard",
		Short:         "Retention-time validation for ganglioside identifications",
		Long:          `rtguard fits retention-time models per compound prefix, falls back through family and global models when anchors are scarce, flags outliers, checks O-acetylation ordering and merges in-source fragments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "YAML config file (defaults and RTGUARD_* env otherwise)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(newAnalyzeCmd(flags), newConfigCmd(flags))
	return root
}

// loadConfig reads the config file and applies the --log-level override.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

// newLogger builds the run logger and routes library warnings into it.
func newLogger(w io.Writer, c config.Log) (log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.NewConfigurationError("log.level", err.Error(), c.Level)
	}

	var logger log.Logger
	switch c.Format {
	case "text":
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})
		logger = log.NewSlogLogger(log.WrapByErrFmtHandler(h))
	case "console":
		logger = log.NewZerologLogger(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
	default:
		logger = log.NewZerologLogger(w, level)
	}

	if zl, ok := log.Zerolog(logger); ok {
		errors.SetZerologWarnFunc(func(warning error) {
			ev := zl.Warn()
			if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
				ev = ev.EmbedObject(m)
			}
			ev.Msg(warning.Error())
		})
	} else {
		errors.SetWarningHandler(func(warning error) {
			logger.Warn(warning.Error())
		})
	}
	return logger, nil
}
