package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavanmanishd/cds/internal/stress"
)

var (
	runConfig = stress.DefaultConfig()
	runCmd    = &cobra.Command{
		Use:   "run",
		Short: "Run stress scenarios",
		Long: `Run the selected stress scenarios one after another and print a report.
The command fails when any scenario breaks a property or times out.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	defaults := stress.DefaultConfig()

	key := "scenarios"
	runCmd.Flags().String(key, strings.Join(defaults.Scenarios, ","), WrapString("Comma-separated list of scenarios to run (see 'cdsstress scenarios')"))
	key = "workers"
	runCmd.Flags().Int(key, defaults.Workers, WrapString("Number of goroutines per scenario"))
	key = "iterations"
	runCmd.Flags().Int(key, defaults.Iterations, WrapString("Operations per goroutine"))
	key = "elements"
	runCmd.Flags().Int(key, defaults.Elements, WrapString("Number of elements in every container"))
	key = "fail-rate"
	runCmd.Flags().Float64(key, defaults.FailRate, WrapString("Probability that an element copy fails in the rollback scenario"))
	key = "seed"
	runCmd.Flags().Uint64(key, defaults.Seed, WrapString("Seed of the failure injection"))
	key = "lock"
	runCmd.Flags().String(key, defaults.Lock, WrapString("Lock strategy of every container (rwmutex, reader-biased, sharded)"))
	key = "shards"
	runCmd.Flags().Int(key, defaults.Shards, WrapString("Shard count of the sharded lock (0 sizes it to GOMAXPROCS)"))
	key = "allocator"
	runCmd.Flags().String(key, defaults.Allocator, WrapString("Backing allocator for pointer-free elements (heap, arena)"))
	key = "timeout"
	runCmd.Flags().Duration(key, defaults.Timeout, WrapString("Time limit per scenario; a scenario that does not finish in time, e.g. because of a deadlock, fails"))
	key = "format"
	runCmd.Flags().String(key, stress.FormatText, WrapString("Report format (text, json, yaml)"))
	key = "output"
	runCmd.Flags().String(key, "", WrapString("Write the report to this file instead of stdout"))
	key = "prometheus"
	runCmd.Flags().String(key, "", WrapString("Write the allocator counters in Prometheus text format to this file ('-' for stdout)"))
}

// processConfig reads the flags and environment variables into runConfig.
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	runConfig.Scenarios = nil
	for _, name := range strings.Split(viper.GetString("scenarios"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			runConfig.Scenarios = append(runConfig.Scenarios, name)
		}
	}
	runConfig.Workers = viper.GetInt("workers")
	runConfig.Iterations = viper.GetInt("iterations")
	runConfig.Elements = viper.GetInt("elements")
	runConfig.FailRate = viper.GetFloat64("fail-rate")
	runConfig.Seed = viper.GetUint64("seed")
	runConfig.Lock = viper.GetString("lock")
	runConfig.Shards = viper.GetInt("shards")
	runConfig.Allocator = viper.GetString("allocator")
	runConfig.Timeout = viper.GetDuration("timeout")

	switch viper.GetString("format") {
	case stress.FormatText, stress.FormatJSON, stress.FormatYAML:
	default:
		return fmt.Errorf("invalid format %s (expected text, json or yaml)", viper.GetString("format"))
	}
	return runConfig.Validate()
}

func run(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return err
	}

	env := stress.NewEnv(runConfig, logger)
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := stress.Run(ctx, env)
	if err != nil {
		return err
	}

	if err := writeTo(cmd.OutOrStdout(), viper.GetString("output"), func(w io.Writer) error {
		return stress.WriteReport(w, report, viper.GetString("format"))
	}); err != nil {
		return err
	}
	if path := viper.GetString("prometheus"); path != "" {
		if path == "-" {
			path = ""
		}
		if err := writeTo(cmd.OutOrStdout(), path, func(w io.Writer) error {
			env.Counters.WritePrometheus(w)
			return nil
		}); err != nil {
			return err
		}
	}

	if !report.Passed() {
		return errors.New("stress run failed")
	}
	return nil
}

// writeTo runs write against the file at path, or against stdout when
// path is empty.
func writeTo(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// newLogger builds the slog logger selected by the log flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %s (expected debug, info, warn or error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %s (expected text or json)", format)
	}
}
