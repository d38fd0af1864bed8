// Package interp adapts the external script interpreter binary to the
// ports.Interpreter interface. The interpreter's own control flow is opaque:
// this package builds the invocation, runs it, and for description mode
// decodes the metadata the interpreter prints.
package interp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/kestrelscan/kestrel/internal/core/domain"
	"github.com/kestrelscan/kestrel/internal/core/ports"
)

// ControlSocketEnv names the environment variable through which the
// interpreter learns the file descriptor number of the inherited control
// socket.
const ControlSocketEnv = "KESTREL_CTRL_FD"

// description is the JSON document the interpreter prints in description
// mode.
type description struct {
	OID         string              `json:"oid"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Preferences []domain.Preference `json:"preferences"`
}

// NASL invokes an external NASL interpreter binary.
type NASL struct {
	// Path is the interpreter binary
	Path string

	logger *slog.Logger
}

// New returns an interpreter adapter for the binary at path.
func New(path string, logger *slog.Logger) *NASL {
	if logger == nil {
		logger = slog.Default()
	}
	return &NASL{Path: path, logger: logger}
}

// Describe runs the script in description-only mode and decodes the metadata
// it declares. A script that exits before declaring itself yields a record
// without an OID, which is a valid terminal outcome, not an error.
func (n *NASL) Describe(ctx context.Context, path string, mode ports.ExecMode) (*domain.PluginMetadata, error) {
	if err := checkScript(path); err != nil {
		return nil, err
	}

	args := append(modeArgs(mode), path)
	cmd := exec.CommandContext(ctx, n.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("interpreter aborted on %s: %w (stderr: %s)",
			path, err, bytes.TrimSpace(stderr.Bytes()))
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		// The script exited before declaring itself.
		return &domain.PluginMetadata{}, nil
	}
	var desc description
	if err := json.Unmarshal(out, &desc); err != nil {
		n.logger.Debug("undecodable description output, treating plugin as undiscoverable",
			"path", path, "error", err)
		return &domain.PluginMetadata{}, nil
	}
	return &domain.PluginMetadata{
		OID:         desc.OID,
		Name:        desc.Name,
		Category:    domain.ParseCategory(desc.Category),
		Preferences: desc.Preferences,
	}, nil
}

// Run executes the full script body against the request's target. The
// interpreter inherits the control socket, when present, as its first extra
// file descriptor.
func (n *NASL) Run(ctx context.Context, req ports.RunRequest) error {
	if err := checkScript(req.Path); err != nil {
		return err
	}

	args := modeArgs(req.Mode)
	if req.Target.Name != "" {
		args = append(args, "--target", req.Target.Name)
	}
	if req.OID != "" {
		args = append(args, "--oid", req.OID)
	}
	args = append(args, req.Path)

	cmd := exec.CommandContext(ctx, n.Path, args...)
	cmd.Env = buildEnv(req.Globals)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if req.Socket != nil {
		// ExtraFiles start at fd 3 in the interpreter.
		cmd.ExtraFiles = []*os.File{req.Socket}
		cmd.Env = append(cmd.Env, ControlSocketEnv+"="+strconv.Itoa(3))
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("interpreter failed on %s: %w", req.Path, err)
	}
	return nil
}

func modeArgs(mode ports.ExecMode) []string {
	var args []string
	if mode&ports.ModeDescription != 0 {
		args = append(args, "--description")
	}
	if mode&ports.ModeAlwaysSigned != 0 {
		args = append(args, "--always-signed")
	}
	return args
}

func buildEnv(globals map[string]string) []string {
	env := os.Environ()
	for k, v := range globals {
		env = append(env, k+"="+v)
	}
	return env
}

func checkScript(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("plugin file check failed: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("plugin %s is not a regular file", path)
	}
	return nil
}
