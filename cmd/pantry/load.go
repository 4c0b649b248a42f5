package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/summary"
)

// errLoadFailed is returned by --strict loads when no strategy succeeds.
var errLoadFailed = errors.New("no strategy could load the file")

func newLoadCmd(a *app) *cobra.Command {
	var (
		description string
		field       string
		sample      int
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "load PATH",
		Short: "Load one file and summarize it",
		Long: `Load PATH with each strategy in turn, print one line per attempt, and
summarize the dataset from the first strategy that succeeds. A file no
strategy can read is reported but is not an error unless --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if description == "" {
				description = path
			}
			if !cmd.Flags().Changed("field") {
				field = a.cfg.SampleField
			}
			if !cmd.Flags().Changed("sample") {
				sample = a.cfg.SampleSize
			}

			out := cmd.OutOrStdout()
			res := a.newLoader(out).Load(path, description)
			if !res.OK() {
				if strict {
					return fmt.Errorf("%w: %s (%s)", errLoadFailed, path, res.Cause())
				}
				return nil
			}
			if err := summary.Describe(res.Data(), field, sample).Render(out, description); err != nil {
				return asSysError(fmt.Errorf("writing summary: %w", err))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "label used in diagnostics (default: PATH)")
	cmd.Flags().StringVarP(&field, "field", "f", "", "column to sample in the summary (default: sample_field)")
	cmd.Flags().IntVarP(&sample, "sample", "n", 0, "number of leading values to sample (default: sample_size)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the file cannot be loaded")
	return cmd
}
