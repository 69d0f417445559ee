package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-relay/pkg/config"
)

const version = "0.1.0"

type rootOptions struct {
	configPath string
	noEnv      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "relay",
		Short:   "Survey respondent routing relay",
		Version: version,
		Long: `Issues tracking identifiers when respondents enter a survey and maps vendor
completion statuses back to redirect URLs, firing analytics, spreadsheet logging
and vendor postbacks in the background.`,
		Example: `  # Serve HTTP with settings from the environment
  $ relay serve

  # Serve with a config file
  $ relay serve --config relay.yaml

  # Show where a terminate for gomr would go
  $ relay resolve --status t --src gomr --rid R9`,
		SilenceUsage: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVar(&opts.noEnv, "no-env", false, "ignore environment overrides")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newStartCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	var loadOpts []config.LoadOption
	if !o.noEnv {
		loadOpts = append(loadOpts, config.FromEnv())
	}
	return config.LoadFile(o.configPath, loadOpts...)
}
