package main

import (
	"fmt"

	"cpolarstatus/internal/render"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		output string
		record bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Log in if needed and list the online tunnels",
		Long: `Fetch the dashboard status page and print the online tunnels.

The stored session is reused when it is still valid. Otherwise the command logs in
with account.login_name and account.password and stores the new session.

Usage:
  cpolar-status status
  cpolar-status status --output json
  cpolar-status status --record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !render.ValidFormat(output) {
				return fmt.Errorf("unknown output format %q", output)
			}
			if record {
				a.cfg.History.Enabled = true
			}

			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			list, err := c.Service.FetchTunnels(cmd.Context())
			if err != nil {
				return err
			}
			return render.Tunnels(cmd.OutOrStdout(), list, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", render.FormatTable, "output format: table or json")
	cmd.Flags().BoolVar(&record, "record", false, "store this result in the local history even if history.enabled is false")
	return cmd
}
