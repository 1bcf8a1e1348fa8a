// Package cmd holds the stayscout command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/config"
	"github.com/JakeFAU/stayscout/internal/server"
	"github.com/JakeFAU/stayscout/internal/tools"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what subcommands need from the application. Tests swap the factory
// below to point it at a local origin.
type App interface {
	Close()
	Logger() *zap.Logger
	Dispatcher() *tools.Dispatcher
	Run(ctx context.Context) error
}

var newApp = func(cfg config.Config) (App, error) {
	return server.Build(cfg, Version)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stayscout",
		Short: "Listing search and detail tools for AI assistants.",
		Long: `stayscout exposes two tools, search and detail, that fetch public
vacation-rental pages, honor robots.txt, and return structured JSON. The tools
are served over MCP (stdio or streamable HTTP) and a small REST API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyFlagOverrides(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			appInstance, err := newApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); environment variables override it")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newToolsCmd())
	return cmd
}

// applyFlagOverrides copies explicitly set command flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if f := cmd.Flags().Lookup("transport"); f != nil && f.Changed {
		cfg.Server.Transport = f.Value.String()
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		port, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --port: %w", err)
		}
		cfg.Server.Port = port
	}
	if f := cmd.Flags().Lookup("ignore-robots"); f != nil && f.Changed {
		cfg.Crawler.IgnoreRobots = f.Value.String() == "true"
	}
	return nil
}

func appFrom(cmd *cobra.Command) (App, error) {
	appInstance, ok := cmd.Context().Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger := zap.L()
		if logger.Core().Enabled(zap.FatalLevel) {
			logger.Fatal("command execution failed", zap.Error(err))
		}
		// No logger yet, e.g. the config failed to load.
		fmt.Fprintln(os.Stderr, "stayscout:", err)
		os.Exit(1)
	}
}
