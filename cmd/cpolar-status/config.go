package main

import (
	"fmt"
	"path/filepath"

	"cpolarstatus/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				dir, err := config.DefaultDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.FileName+".yaml")
			}

			if err := config.Write(path, config.NewConfig(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "set account.login_name and account.password, or CPOLAR_ACCOUNT_LOGIN_NAME and CPOLAR_ACCOUNT_PASSWORD")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
