package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"study-planner-lite/internal/config"
)

type checkEnvOptions struct {
	describe bool
	strict   bool
	jsonOut  bool
}

type envReport struct {
	Env                string        `json:"env"`
	Source             config.Source `json:"source"`
	SupabaseConfigured bool          `json:"supabaseConfigured"`
	OpenAIConfigured   bool          `json:"openaiConfigured"`
	ClientReady        bool          `json:"clientReady"`
	ClientError        string        `json:"clientError,omitempty"`
}

var errNotConfigured = errors.New("supabase is not configured")

func NewCheckEnvCommand() *cobra.Command {
	opts := &checkEnvOptions{}

	cmd := &cobra.Command{
		Use:   "check-env",
		Short: "Report which integrations the environment configures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckEnv(cmd, opts, config.OSEnv())
		},
	}

	cmd.Flags().BoolVar(&opts.describe, "describe", false, "list the settings the server reads")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when supabase is not configured")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	return cmd
}

func runCheckEnv(cmd *cobra.Command, opts *checkEnvOptions, process config.Env) error {
	w := cmd.OutOrStdout()
	if opts.describe {
		text, err := config.Describe()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger, process)
	if err != nil {
		return err
	}

	settings := a.loader.Load(cmd.Context())
	report := envReport{
		Env:                cfg.Env,
		Source:             a.loader.Source(),
		SupabaseConfigured: settings.SupabaseConfigured(),
		OpenAIConfigured:   settings.OpenAIConfigured(),
	}
	if _, err := a.accessor.Client(cmd.Context()); err != nil {
		report.ClientError = err.Error()
	} else {
		report.ClientReady = true
	}

	if opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "env:                 %s\n", report.Env)
		fmt.Fprintf(w, "source:              %s\n", report.Source)
		fmt.Fprintf(w, "supabase configured: %t\n", report.SupabaseConfigured)
		fmt.Fprintf(w, "openai configured:   %t\n", report.OpenAIConfigured)
		fmt.Fprintf(w, "client ready:        %t\n", report.ClientReady)
	}

	if opts.strict && !report.ClientReady {
		return errNotConfigured
	}
	return nil
}
