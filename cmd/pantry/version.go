package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the pantry release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/pantry"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pantry version",
		// version needs no configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pantry v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
