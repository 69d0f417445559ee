package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-relay/pkg/relay"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var st, rid, src string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the exit URL for a status without side effects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			mod, err := relay.NewModule(relay.ModuleOptions{Config: cfg, SkipConfiguredAdapters: true})
			if err != nil {
				return err
			}
			res, err := mod.Service().Plan(relay.ExitRequest{
				Status: st,
				Source: src,
				Lookup: func(name string) string {
					if name == "rid" {
						return rid
					}
					return ""
				},
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:   %s\n", res.Status)
			fmt.Fprintf(out, "location: %s\n", res.Location)
			if res.Postback != nil {
				fmt.Fprintf(out, "postback: %s\n", res.Postback)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&st, "status", "", "raw status token (c, term, qf, ...)")
	cmd.Flags().StringVar(&rid, "rid", "", "respondent id")
	cmd.Flags().StringVar(&src, "src", "", "vendor key")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
