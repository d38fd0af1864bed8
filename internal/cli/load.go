package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelscan/kestrel/internal/interp"
	"github.com/kestrelscan/kestrel/internal/loader"
	"github.com/kestrelscan/kestrel/internal/prefs"
)

func newLoadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load [plugin...]",
		Short: "Build the plugin inventory",
		Long: `Load plugins into the metadata cache. With no arguments every plugin
script in the configured plugin folder is loaded; otherwise only the named
files are. Plugins whose description cannot be extracted are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			prefStore := prefs.NewStore()
			ldr := loader.New(
				store,
				loader.NewDescriptionExtractor(
					interp.New(app.Config.Interpreter, app.Logger),
					app.Config.NoSignatureCheck,
				),
				loader.NewTimestampGuard(app.Logger),
				prefs.NewRegistrar(prefStore),
				app.Logger,
			)

			summary := loader.Summary{}
			if len(args) == 0 {
				summary, err = ldr.LoadAll(cmd.Context(), app.Config.PluginsDir)
				if err != nil {
					return err
				}
			} else {
				for _, name := range args {
					if err := ldr.Load(cmd.Context(), app.Config.PluginsDir, name); err != nil {
						app.Logger.Warn("plugin skipped", "name", name, "error", err)
						summary.Failed = append(summary.Failed, name)
						continue
					}
					summary.Loaded++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d plugins (%d preferences registered)\n",
				summary.Loaded, prefStore.Len())
			for _, name := range summary.Failed {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped: %s\n", name)
			}
			return nil
		},
	}
}
