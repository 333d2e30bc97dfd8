// Package main is the entry point for the voxscribe CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/voxscribe/internal/config"
	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "voxscribe",
		Short:         "Transcribe chat voice messages with SaluteSpeech",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), initCmd(), serviceCmd(), historyCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "voxscribe %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, mod := range core.GetModules() {
				fmt.Fprintf(out, "  %s\n", mod.ID)
			}
		},
	}
}

func runParams(cmd *cobra.Command) app.RunParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return app.RunParams{
		ConfigPath: cfgPath,
		LogLevel:   logLevel,
		DataDir:    dataDir,
		Version:    version,
		Commit:     commit,
		Date:       date,
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	cmd.Flags().String("data-dir", "", "Directory for persistent data")
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start voxscribe with all configured modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), runParams(cmd))
		},
	}
	addRunFlags(cmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration and provision every module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return checkConfig(cmd.OutOrStdout(), path, cmd.ErrOrStderr())
		},
	})
	return cmd
}

// checkConfig loads and validates the configuration, then provisions the
// modules without starting them.
func checkConfig(out io.Writer, path string, logOut io.Writer) error {
	cfg, source, err := app.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := app.NewLogger(config.LogConfig{Level: "warn"}, logOut, security.NewRedactor())
	if err != nil {
		return err
	}
	dataDir, err := os.MkdirTemp("", "voxscribe-check-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dataDir) }()

	appCtx := core.NewAppContext(logger, dataDir).WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService(core.ServiceRedactor, security.NewRedactor())

	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		return err
	}
	// Modules were provisioned only: release what they opened.
	for _, id := range application.ModuleIDs() {
		mod, _ := application.Module(id)
		if s, ok := mod.(core.Stopper); ok {
			_ = s.Stop(context.Background())
		}
	}

	fmt.Fprintf(out, "Configuration OK: %s (%d modules)\n", source, len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}
