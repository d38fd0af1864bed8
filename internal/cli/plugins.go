package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	pluginHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	pluginOIDStyle    = lipgloss.NewStyle().Faint(true)
	pluginCatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func newPluginsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the plugin inventory",
	}
	cmd.AddCommand(newPluginsListCommand(app))
	return cmd
}

func newPluginsListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			plugins, err := store.List()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(plugins))
			for name := range plugins {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, pluginHeaderStyle.Render(
				fmt.Sprintf("%d cached plugins", len(names))))
			for _, name := range names {
				meta := plugins[name]
				fmt.Fprintf(out, "%s  %s  %s  (%d prefs)\n",
					pluginOIDStyle.Render(meta.OID),
					name,
					pluginCatStyle.Render(meta.Category.String()),
					len(meta.Preferences))
			}
			return nil
		},
	}
}
