package main

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the server CLI. Running it without a subcommand
// serves HTTP.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Study planner backend",
		Long:          "Serves the study planner front end and its API on top of a Supabase project.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewBuildEnvCommand())
	cmd.AddCommand(NewCheckEnvCommand())

	return cmd
}
