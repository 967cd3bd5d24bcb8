package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dispatchd",
		Short:         "Route requests to handler actions inside filter chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newRoutesCmd(),
		newMigrateCmd(),
	)
	return cmd
}
