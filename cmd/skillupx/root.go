package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/internal/config"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: slog.Default()}

	root := &cobra.Command{
		Use:   "skillupx",
		Short: "Wrap practice submissions into runnable programs",
		Long: `skillupx - Turn a bare solution function into a complete program.

A submission is just the function (or a Solution class) for a problem. The
wrapper adds imports, reads the problem's input from stdin, calls the
function and prints its result, for python, javascript, java and cpp.

Programs can be executed on Docker, a Judge0 server or in-process WASI
interpreters, from the command line or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from SKILLUPX_LOG_LEVEL or info)")
	root.PersistentFlags().String("env-file", ".env", "Environment file to load before reading settings")

	root.AddCommand(
		newWrapCmd(a),
		newNameCmd(a),
		newRunCmd(a),
		newServeCmd(a),
		newReplCmd(a),
		newProblemsCmd(a),
		newFetchCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}))
}
