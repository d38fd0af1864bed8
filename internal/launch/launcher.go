package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// ControlFD is the descriptor number at which the spawned execution process
// finds the control socket: the first entry of ExtraFiles.
const ControlFD = 3

// Launcher spawns one isolated process per execution request by re-executing
// the scanner binary in worker mode. The context crosses the process boundary
// as an owned JSON copy on stdin, never as a reference into the parent's
// memory.
type Launcher struct {
	// ExePath is the scanner binary to re-execute
	ExePath string

	// WorkerArgs are the arguments selecting worker mode
	WorkerArgs []string

	tracker *Tracker
	logger  *slog.Logger
}

// NewLauncher returns a launcher re-executing exePath with workerArgs.
// Started processes are recorded in tracker.
func NewLauncher(exePath string, workerArgs []string, tracker *Tracker, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{ExePath: exePath, WorkerArgs: workerArgs, tracker: tracker, logger: logger}
}

// SelfLauncher returns a launcher that re-executes the current binary.
func SelfLauncher(workerArgs []string, tracker *Tracker, logger *slog.Logger) (*Launcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve scanner binary: %w", err)
	}
	return NewLauncher(exe, workerArgs, tracker, logger), nil
}

// Launch starts an isolated execution of ec with sock as its control socket
// and returns the child PID. The parent retains no ownership of ec or of the
// passed socket file; the caller tracks the PID for reaping.
func (l *Launcher) Launch(ctx context.Context, ec *ExecutionContext, sock *os.File) (int, error) {
	payload, err := json.Marshal(ec)
	if err != nil {
		return 0, fmt.Errorf("encode execution context: %w", err)
	}

	cmd := exec.CommandContext(ctx, l.ExePath, l.WorkerArgs...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{sock}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn execution process: %w", err)
	}
	if l.tracker != nil {
		l.tracker.Add(cmd)
	}
	l.logger.Debug("launched plugin execution",
		"id", ec.ID, "plugin", ec.PluginName, "host", ec.Host.Name, "pid", cmd.Process.Pid)
	return cmd.Process.Pid, nil
}

// ReadContext decodes an execution context from r. Used by the worker entry
// point to take ownership of the context the parent serialized.
func ReadContext(r *os.File) (*ExecutionContext, error) {
	var ec ExecutionContext
	if err := json.NewDecoder(r).Decode(&ec); err != nil {
		return nil, fmt.Errorf("decode execution context: %w", err)
	}
	if ec.Globals == nil {
		ec.Globals = make(map[string]string)
	}
	return &ec, nil
}
