package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FS94/psychopy/runtime"
)

var validateCmd = &cobra.Command{
	Use:   "validate <experiment.yaml>",
	Short: "Check an experiment definition without running it",
	Long: `Loads and links the experiment: routine references, loop bracket
structure, component kinds and condition tables are all checked. Repetition
expressions are only checked for syntax at run time, since their values may
depend on variables set during the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		program, err := runtime.LoadExperiment(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s: ok (%d routines, %d top-level flow entries)\n",
			program.Experiment.ID, len(program.Routines), len(program.Entries))
		return nil
	},
}
