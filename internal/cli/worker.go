package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelscan/kestrel/internal/interp"
	"github.com/kestrelscan/kestrel/internal/kb"
	"github.com/kestrelscan/kestrel/internal/launch"
)

// newWorkerCommand is the hidden entry point the launcher re-executes. It
// reads an execution context from stdin, picks up the control socket at the
// inherited descriptor, and runs the child runtime to completion.
func newWorkerCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, err := launch.ReadContext(os.Stdin)
			if err != nil {
				return err
			}

			sock := os.NewFile(uintptr(launch.ControlFD), "ctrl")
			if sock == nil {
				return fmt.Errorf("control socket descriptor %d not inherited", launch.ControlFD)
			}
			defer sock.Close()

			store, err := app.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			runtime := &launch.ChildRuntime{
				Cache:    store,
				KB:       kb.NewMemory(),
				Interp:   interp.New(app.Config.Interpreter, app.Logger),
				Dropper:  launch.UnixDropper{},
				Tracker:  launch.NewTracker(),
				Settings: app.settings(),
				Logger:   app.Logger,
			}
			runtime.Run(cmd.Context(), ec, sock)
			return nil
		},
	}
}
