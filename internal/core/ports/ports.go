// Package ports defines the interfaces between the plugin subsystem and its
// external collaborators: the metadata cache store, the script interpreter,
// the knowledge base and the privilege reduction facility. Implementations
// live under internal/infrastructure-style packages; the core depends only on
// these interfaces so every collaborator can be faked in tests.
package ports

import (
	"context"
	"os"

	"github.com/kestrelscan/kestrel/internal/core/domain"
)

// ExecMode carries the mode flags passed to the script interpreter.
type ExecMode uint32

const (
	// ModeDescription runs the script in description-only mode: it declares
	// its identity and preferences without performing the actual check.
	ModeDescription ExecMode = 1 << iota

	// ModeAlwaysSigned treats the script as signed and trusted, bypassing
	// signature verification.
	ModeAlwaysSigned
)

// MetadataStore is the persistent plugin metadata cache, keyed by plugin
// filename.
//
// Get reports a miss for any failure: a corrupt or unreachable store degrades
// loading to always re-extracting, it never aborts it.
type MetadataStore interface {
	// Get returns the cached metadata for a plugin filename, or false on miss.
	Get(name string) (*domain.PluginMetadata, bool)

	// Add persists a valid record under the given filename, replacing any
	// prior entry. The store may normalize fields on insert.
	Add(meta *domain.PluginMetadata, name string) error

	// Reset re-establishes a fresh connection to the backing store. Required
	// once inside every spawned execution process: connections are not safely
	// inherited across process boundaries.
	Reset() error

	// Close releases the backing connection.
	Close() error
}

// RunRequest bundles the inputs for a full script execution.
type RunRequest struct {
	// Path is the plugin file to execute
	Path string

	// OID is the plugin's identifier, empty during description extraction
	OID string

	// Mode carries the execution mode flags
	Mode ExecMode

	// Target is the host under test
	Target domain.Host

	// Globals is the shared name/value environment handed to the script layer
	Globals map[string]string

	// Socket is the control socket inherited by the interpreter, nil when the
	// execution has no controller
	Socket *os.File
}

// Interpreter invokes the external script interpreter. The interpreter's
// internal control flow is opaque to this subsystem.
type Interpreter interface {
	// Describe runs the script in description-only mode and returns the
	// metadata it declared. A returned record without an OID is a valid
	// terminal outcome (the script exited before declaring itself); an error
	// means the interpreter aborted entirely.
	Describe(ctx context.Context, path string, mode ExecMode) (*domain.PluginMetadata, error)

	// Run executes the full script body. Callers on the execution path do not
	// inspect the result beyond logging.
	Run(ctx context.Context, req RunRequest) error
}

// KnowledgeBase is the per-scan key-value store handle. The store engine is
// external; only the handle surface is modeled here.
type KnowledgeBase interface {
	Get(key string) (string, bool)
	Set(key, value string)

	// Reset rebinds the handle to the current execution. Called once inside
	// every spawned execution process before the script runs.
	Reset() error
}

// DropResult is the outcome of a privilege drop attempt.
type DropResult int

const (
	// DropOK means privileges were reduced
	DropOK DropResult = iota

	// DropNotPrivileged means the process was never privileged; nothing to do
	DropNotPrivileged

	// DropFailed means the drop was attempted and failed
	DropFailed
)

// PrivilegeDropper reduces the privileges of the calling process.
type PrivilegeDropper interface {
	// Drop reduces privileges to the given user ("" selects the default
	// unprivileged user). The error carries detail when the result is
	// DropFailed.
	Drop(user string) (DropResult, error)
}
