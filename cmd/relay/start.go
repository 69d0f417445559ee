package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-relay/pkg/relay"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	var cell, src string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Mint an identifier and print the cell start URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			mod, err := relay.NewModule(relay.ModuleOptions{Config: cfg, SkipConfiguredAdapters: true})
			if err != nil {
				return err
			}
			rid, location, err := mod.Resolver().ResolveStart(cell, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rid:      %s\nlocation: %s\n", rid, location)
			return nil
		},
	}
	cmd.Flags().StringVar(&cell, "cell", "", "cell key")
	cmd.Flags().StringVar(&src, "src", "", "vendor key forwarded as src")
	_ = cmd.MarkFlagRequired("cell")
	return cmd
}
