package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"study-planner-lite/internal/config"
)

type buildEnvOptions struct {
	out string
}

// NewBuildEnvCommand writes the deploy-time secrets from the build
// environment into an env file that serve reads at startup.
func NewBuildEnvCommand() *cobra.Command {
	opts := &buildEnvOptions{}

	cmd := &cobra.Command{
		Use:   "build-env",
		Short: "Write injected secrets to an env file",
		Long: `Write SUPABASE_URL, SUPABASE_ANON_KEY, OPENAI_API_KEY and
SUPABASE_JWT_SECRET from the current environment into an env file.

serve layers that file under the process environment (ENV_CONFIG_FILE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildEnv(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "env-config.env", "output file")
	return cmd
}

func runBuildEnv(cmd *cobra.Command, opts *buildEnvOptions) error {
	values, err := config.WriteEnvFile(opts.out, config.OSEnv())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "wrote %s\n", opts.out)
	for _, key := range config.InjectedKeys {
		state := "set"
		if config.IsPlaceholder(values[key]) {
			state = "missing"
		}
		fmt.Fprintf(w, "  %s: %s\n", key, state)
	}
	return nil
}
