package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cpolarstatus/internal/browser"
	"cpolarstatus/internal/config"
	"cpolarstatus/internal/dashboard"
	"cpolarstatus/pkg/domain"

	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or manage the stored dashboard session",
	}
	cmd.AddCommand(newSessionShowCmd(a))
	cmd.AddCommand(newSessionClearCmd(a))
	cmd.AddCommand(newSessionImportCmd(a))
	return cmd
}

func newSessionShowCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored session value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			value, err := c.Store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store:   %s\n", describeStore(a.cfg))
			if value == "" {
				fmt.Fprintln(out, "session: (none)")
				return nil
			}
			if !reveal {
				value = maskValue(value)
			}
			fmt.Fprintf(out, "session: %s\n", value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full value instead of a masked one")
	return cmd
}

func newSessionClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored session so the next status call logs in again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}
}

func newSessionImportCmd(a *app) *cobra.Command {
	var (
		devtoolsURL string
		launch      bool
		wait        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the session cookie from a browser that is logged in to the dashboard",
		Long: `Read the "session" cookie of the dashboard from a Chrome instance exposing the
DevTools protocol and store it, so the next status call skips the login form.
The cookie is only imported after the dashboard accepts it as logged in; with
--launch the command keeps polling until you finish logging in.

Usage:
  cpolar-status session import --devtools http://localhost:9222
  cpolar-status session import --launch --wait 3m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.build()
			if err != nil {
				return err
			}
			defer c.Close()

			base := strings.TrimRight(a.cfg.Dashboard.BaseURL, "/")
			if launch {
				b, err := browser.Start(ctx, browser.Options{StartURL: base + dashboard.PathLogin})
				if err != nil {
					return err
				}
				defer b.Stop(2 * time.Second)
				devtoolsURL = b.DevToolsURL
				fmt.Fprintln(cmd.ErrOrStderr(), "log in to the dashboard in the opened browser window")
			}

			im := browser.NewImporter(browser.ImporterOptions{
				Reader:   browser.NewDevToolsReader(devtoolsURL, base, a.log),
				Verifier: c.Client,
				Logger:   a.log,
			})
			tok, err := importToken(ctx, im, launch, wait)
			if err != nil {
				return err
			}
			if err := c.Store.Save(ctx, tok.Value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session imported (%s)\n", maskValue(tok.Value))
			return nil
		},
	}

	cmd.Flags().StringVar(&devtoolsURL, "devtools", config.GetDefaultSettings().DevToolsURL, "DevTools HTTP endpoint of a running browser")
	cmd.Flags().BoolVar(&launch, "launch", false, "start a new Chrome window on the login page and wait for the login")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "how long to wait for the login when --launch is set")
	return cmd
}

// importToken 启动新浏览器时轮询等待用户登录，否则只读取一次
func importToken(ctx context.Context, im *browser.Importer, poll bool, wait time.Duration) (domain.SessionToken, error) {
	if !poll {
		return im.Import(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return im.Wait(waitCtx, time.Second)
}

// describeStore 描述当前使用的会话存储
func describeStore(cfg *config.Config) string {
	switch cfg.Session.Store {
	case config.StoreFile:
		return "file " + cfg.Session.File
	case config.StoreRedis:
		return fmt.Sprintf("redis %s key=%s", cfg.Session.RedisAddr, cfg.Session.RedisKey)
	default:
		return cfg.Session.Store
	}
}

// maskValue 只保留首尾各 4 个字符
func maskValue(v string) string {
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-8) + v[len(v)-4:]
}
