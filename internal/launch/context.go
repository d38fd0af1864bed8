// Package launch spawns one isolated process per plugin execution and runs
// the child-side sequence that ends, on every path, with a completion frame
// on the control socket.
package launch

import (
	"github.com/google/uuid"

	"github.com/kestrelscan/kestrel/internal/core/domain"
)

// ExecutionContext is the per-launch input bundle. It is built by the
// launcher, serialized into the spawned process, and exclusively owned by it
// afterwards: the parent keeps no reference, so mutating one context can
// never be observed by another execution.
//
// The control socket travels out of band as an inherited file descriptor; the
// descriptor number is injected into Globals by the child runtime so the
// script layer can reach the controller.
type ExecutionContext struct {
	// ID identifies this launch in logs and bookkeeping
	ID string `json:"id"`

	// Host is the target of this execution
	Host domain.Host `json:"host"`

	// Globals is the child's private copy of the shared scan globals
	Globals map[string]string `json:"globals"`

	// PluginName is the plugin's filename, used for display and logging
	PluginName string `json:"plugin_name"`

	// PluginPath is the full path handed to the interpreter
	PluginPath string `json:"plugin_path"`

	// PluginOID is the plugin's identifier
	PluginOID string `json:"plugin_oid"`
}

// NewExecutionContext builds a context with a fresh launch ID. The globals
// map is copied: the child owns its view and sibling executions must never
// observe each other's mutations.
func NewExecutionContext(host domain.Host, globals map[string]string, pluginName, pluginPath, oid string) *ExecutionContext {
	owned := make(map[string]string, len(globals))
	for k, v := range globals {
		owned[k] = v
	}
	return &ExecutionContext{
		ID:         uuid.NewString(),
		Host:       host,
		Globals:    owned,
		PluginName: pluginName,
		PluginPath: pluginPath,
		PluginOID:  oid,
	}
}
