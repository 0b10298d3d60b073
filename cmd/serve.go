package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brogergvhs/pagetidy/internal/server"
	"github.com/brogergvhs/pagetidy/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagListen   string
	flagUpstream string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a cleaning reverse proxy in front of the recipe site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, usedPath, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logSvc := ui.NewLogger(cfg.Debug)
		defer logSvc.Sync()

		if usedPath != "" {
			logSvc.Infof("config file: %s", usedPath)
		}
		if cfg.Upstream == "" {
			logSvc.Warnf("no upstream set, only %s/clean and %s/health are served", server.RoutePrefix, server.RoutePrefix)
		}

		cleaner, err := cfg.NewCleaner()
		if err != nil {
			return err
		}

		srv, err := server.New(server.Config{
			Listen:   cfg.Listen,
			Upstream: cfg.Upstream,
			Debug:    cfg.Debug,
		}, cleaner, logSvc)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "address to listen on (default \":8080\")")
	serveCmd.Flags().StringVar(&flagUpstream, "upstream", "", "site to proxy, e.g. http://localhost:5000")
	addRuleFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}
