package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScriptExtension selects which files in the plugin folder are plugins.
const ScriptExtension = ".nasl"

// Summary reports the outcome of an inventory build.
type Summary struct {
	Loaded int
	Failed []string
}

// LoadAll loads every plugin script under folder, sequentially and in name
// order. Per-plugin failures are collected, not fatal: an unloadable plugin
// is simply absent from the inventory.
func (l *Loader) LoadAll(ctx context.Context, folder string) (Summary, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return Summary{}, fmt.Errorf("read plugin folder %s: %w", folder, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExtension {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var summary Summary
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := l.Load(ctx, folder, name); err != nil {
			summary.Failed = append(summary.Failed, name)
			continue
		}
		summary.Loaded++
	}
	return summary, nil
}
