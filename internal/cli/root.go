// Package cli wires the kestrel commands: inventory loading, plugin
// execution, cache inspection and the completion-signal watcher.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrelscan/kestrel/internal/cache"
	"github.com/kestrelscan/kestrel/internal/config"
	"github.com/kestrelscan/kestrel/internal/launch"
	"github.com/kestrelscan/kestrel/internal/logging"
)

// App carries the state shared by all commands, resolved once before any
// command runs.
type App struct {
	ConfigPath string
	Config     *config.Config
	Logger     *slog.Logger
}

// NewRootCommand builds the kestrel command tree.
func NewRootCommand(version string) *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Kestrel - vulnerability scanner plugin engine",
		Long: `Kestrel loads vulnerability-check plugins into a persistent metadata
cache and executes them against target hosts in isolated processes,
signaling completion to a controller over a control socket.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "path to configuration file")

	rootCmd.AddCommand(newLoadCommand(app))
	rootCmd.AddCommand(newLaunchCommand(app))
	rootCmd.AddCommand(newPluginsCommand(app))
	rootCmd.AddCommand(newWatchCommand(app))
	rootCmd.AddCommand(newWorkerCommand(app))

	return rootCmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openCache opens the configured metadata cache.
func (a *App) openCache() (*cache.Store, error) {
	return cache.NewStore(a.Config.CachePath, a.Logger)
}

// settings maps configuration to the child runtime's flag bundle.
func (a *App) settings() launch.Settings {
	return launch.Settings{
		BeNice:               a.Config.BeNice,
		NiceIncrement:        a.Config.NiceIncrement,
		NoSignatureCheck:     a.Config.NoSignatureCheck,
		DropPrivileges:       a.Config.DropPrivileges,
		DropPrivilegesUser:   a.Config.DropPrivilegesUser,
		DropPrivilegesStrict: a.Config.DropPrivilegesStrict,
	}
}

// workerArgs builds the argument vector that re-executes this binary in
// worker mode with the same configuration.
func (a *App) workerArgs() []string {
	args := []string{"worker"}
	if a.ConfigPath != "" {
		args = append(args, "--config", a.ConfigPath)
	}
	return args
}
