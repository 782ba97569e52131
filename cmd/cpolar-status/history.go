package main

import (
	"fmt"

	"cpolarstatus/internal/render"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the locally recorded tunnel snapshots",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			// 读取历史不依赖 history.enabled
			a.cfg.History.Enabled = true
			return nil
		},
	}
	cmd.AddCommand(newHistoryListCmd(a))
	cmd.AddCommand(newHistoryShowCmd(a))
	cmd.AddCommand(newHistoryPruneCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !render.ValidFormat(output) {
				return fmt.Errorf("unknown output format %q", output)
			}
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			items, total, err := c.Service.ListSnapshots(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render.Snapshots(cmd.OutOrStdout(), items, total, output)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of snapshots to show")
	cmd.Flags().StringVarP(&output, "output", "o", render.FormatTable, "output format: table or json")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Show the tunnels recorded in one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !render.ValidFormat(output) {
				return fmt.Errorf("unknown output format %q", output)
			}
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			snap, err := c.Service.GetSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render.Snapshot(cmd.OutOrStdout(), snap, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", render.FormatTable, "output format: table or json")
	return cmd
}

func newHistoryPruneCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the given number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Snapshots.CleanupOld(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d snapshots\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "retention in days")
	return cmd
}
