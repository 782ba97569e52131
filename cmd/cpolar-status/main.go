package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cpolarstatus/internal/config"
	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/service"
	"cpolarstatus/pkg/errx"

	"github.com/spf13/cobra"
)

var version = "dev"

// app 命令共享的运行时状态，在 PersistentPreRunE 中初始化
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgPath  string
	log      logger.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	rootCmd := newRootCmd(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code := errx.CodeOf(err); code != "" {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cpolar-status",
		Short:         "Show the tunnels currently online in the cpolar dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// config init 需要在配置文件缺失或损坏时也能运行
			if cmd.Annotations["skipConfig"] == "true" {
				a.log = logger.Nop()
				return nil
			}
			return a.loadConfig()
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("cpolar-status %s\n", version))
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./cpolar.yaml or ~/.cpolar-status/cpolar.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newSessionCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	return rootCmd
}

func (a *app) loadConfig() error {
	cfg, path, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.cfgPath = path
	a.log = logger.NewZeroLogger(cfg)
	if path != "" {
		a.log.Debug("使用配置文件", "file", path)
	}
	return nil
}

// build 按当前配置装配组件，调用方负责 Close
func (a *app) build() (*service.Components, error) {
	return service.Build(a.cfg, a.log)
}
