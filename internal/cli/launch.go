package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kestrelscan/kestrel/internal/comm"
	"github.com/kestrelscan/kestrel/internal/core/domain"
	"github.com/kestrelscan/kestrel/internal/launch"
)

// LaunchFlags holds the command-line flags for the launch command.
type LaunchFlags struct {
	Target     string
	Address    string
	CtrlSocket string
}

func newLaunchCommand(app *App) *cobra.Command {
	flags := &LaunchFlags{}

	cmd := &cobra.Command{
		Use:   "launch <plugin>",
		Short: "Execute a loaded plugin against a target host",
		Long: `Execute one plugin in an isolated process. The plugin must already be in
the metadata cache (see "kestrel load"). The spawned process signals
completion over a control socket; without --ctrl-socket an internal
socket pair is used and this command waits for the completion frame.

Examples:
  kestrel launch --target scanme.example.org check_ssh.nasl
  kestrel launch --target 10.0.0.5 --ctrl-socket /run/kestrel.sock check_ssh.nasl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), app, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.Target, "target", "", "target hostname (required)")
	cmd.Flags().StringVar(&flags.Address, "address", "", "resolved target address")
	cmd.Flags().StringVar(&flags.CtrlSocket, "ctrl-socket", "", "unix socket of a running controller (see \"kestrel watch\")")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runLaunch(ctx context.Context, app *App, flags *LaunchFlags, pluginName string) error {
	store, err := app.openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	meta, ok := store.Get(pluginName)
	if !ok {
		return fmt.Errorf("plugin %s is not in the metadata cache, run \"kestrel load\" first", pluginName)
	}

	sock, reader, err := controlChannel(flags.CtrlSocket)
	if err != nil {
		return err
	}

	tracker := launch.NewTracker()
	launcher, err := launch.SelfLauncher(app.workerArgs(), tracker, app.Logger)
	if err != nil {
		sock.Close()
		return err
	}

	ec := launch.NewExecutionContext(
		domain.Host{Name: flags.Target, Address: flags.Address},
		map[string]string{},
		pluginName,
		filepath.Join(app.Config.PluginsDir, pluginName),
		meta.OID,
	)

	pid, err := launcher.Launch(ctx, ec, sock)
	sock.Close()
	if err != nil {
		if reader != nil {
			reader.Close()
		}
		return err
	}

	if reader != nil {
		waitForCompletion(app, reader)
		reader.Close()
	}
	if err := tracker.Wait(pid); err != nil {
		app.Logger.Debug("execution process exited with error", "pid", pid, "error", err)
	}
	app.Logger.Info("plugin execution finished", "plugin", pluginName, "host", flags.Target, "pid", pid)
	return nil
}

// controlChannel resolves the control socket for a launch: either a
// connection to a running controller, or an internal pair whose read side
// this command drains itself.
func controlChannel(ctrlSocket string) (sock *os.File, reader io.ReadCloser, err error) {
	if ctrlSocket != "" {
		conn, err := net.Dial("unix", ctrlSocket)
		if err != nil {
			return nil, nil, fmt.Errorf("dial controller socket: %w", err)
		}
		f, err := conn.(*net.UnixConn).File()
		conn.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("extract controller socket descriptor: %w", err)
		}
		return f, nil, nil
	}
	return newControlPair()
}

func waitForCompletion(app *App, r io.Reader) {
	for {
		msg, err := comm.ReadMessage(r)
		if err != nil {
			if err != io.EOF {
				app.Logger.Warn("control channel read failed", "error", err)
			}
			return
		}
		if msg.Finished() {
			return
		}
	}
}
