package main

import (
	"cpolarstatus/internal/httpapi"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tunnel list and history as a local JSON API",
		Long: `Start a read-only HTTP API:

  GET /healthz
  GET /api/tunnels
  GET /api/history?limit=N
  GET /api/history/{id}

Usage:
  cpolar-status serve
  cpolar-status serve --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Serve.Listen
			}
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			return httpapi.NewServer(c.Service, a.log).ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default serve.listen)")
	return cmd
}
