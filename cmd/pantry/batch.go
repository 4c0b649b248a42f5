package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/batch"
	"github.com/mesh-intelligence/pantry/internal/manifest"
)

func newBatchCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "batch [MANIFEST]",
		Short: "Load every file listed in a manifest",
		Long: `Load every file a TOML or YAML manifest lists, summarize each one that
loads, and print a closing report. Without MANIFEST the Gene Ontology
annotation files deepgo/bp.pkl, deepgo/mf.pkl and deepgo/cc.pkl under the
data directory are loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := manifest.Default(a.dataDir)
			if len(args) == 1 {
				var err error
				m, err = manifest.Load(args[0], a.dataDir)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			runner := batch.NewRunner(a.newLoader(out), out,
				batch.WithSummaryField(a.cfg.SampleField),
				batch.WithSampleSize(a.cfg.SampleSize),
			)
			rep, err := runner.Run(m)
			if err != nil {
				return asSysError(err)
			}
			if err := rep.Render(out); err != nil {
				return asSysError(err)
			}
			if strict && rep.Loaded < rep.Total {
				return fmt.Errorf("%w: %d of %d files", errLoadFailed, rep.Total-rep.Loaded, rep.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any file cannot be loaded")
	return cmd
}
