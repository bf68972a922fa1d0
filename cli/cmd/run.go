package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FS94/psychopy/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run <experiment.yaml>",
	Short: "Run an experiment flow to completion and print the summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		realtime, _ := cmd.Flags().GetBool("realtime")
		sets, _ := cmd.Flags().GetStringArray("set")

		program, err := runtime.LoadExperiment(args[0])
		if err != nil {
			return err
		}

		variables, err := parseVariables(sets)
		if err != nil {
			return err
		}

		logger := runtime.SetupLogger()

		var clock runtime.Clock
		if realtime {
			clock = runtime.NewTickerClock(program.Experiment.Settings.FrameRate)
		} else {
			clock = runtime.NewVirtualClock(program.Experiment.Settings.FrameRate)
		}

		run := runtime.NewRun(cmd.Context(), program.Experiment, variables)
		seq := runtime.NewSequencer(logger, runtime.NewEvaluator(), clock)

		summary, err := seq.Run(run, program)
		if err != nil {
			return err
		}

		fmt.Println(summary.String())
		return nil
	},
}

// parseVariables turns --set key=value pairs into environment seeds,
// coercing numeric and boolean values so expressions can use them directly.
func parseVariables(sets []string) (map[string]any, error) {
	variables := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, found := strings.Cut(s, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", s)
		}
		variables[key] = coerce(value)
	}
	return variables, nil
}

func coerce(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func init() {
	runCmd.Flags().Bool("realtime", false, "Pace frames against wall time instead of the virtual clock")
	runCmd.Flags().StringArray("set", nil, "Seed an environment variable (key=value), repeatable")
}
