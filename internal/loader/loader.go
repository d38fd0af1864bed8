// Package loader builds the plugin inventory: for each plugin file it
// resolves metadata from the cache or by description extraction, keeps the
// cache fresh, and merges the plugin's preferences into the scanner
// preference store.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kestrelscan/kestrel/internal/core/domain"
	"github.com/kestrelscan/kestrel/internal/core/ports"
	"github.com/kestrelscan/kestrel/internal/prefs"
)

// Loader performs the "ensure plugin is known and valid" operation.
type Loader struct {
	cache     ports.MetadataStore
	extractor *DescriptionExtractor
	guard     *TimestampGuard
	registrar *prefs.Registrar
	logger    *slog.Logger
}

// New wires a loader from its collaborators.
func New(cache ports.MetadataStore, extractor *DescriptionExtractor, guard *TimestampGuard, registrar *prefs.Registrar, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cache:     cache,
		extractor: extractor,
		guard:     guard,
		registrar: registrar,
		logger:    logger,
	}
}

// Load makes the plugin at <folder>/<name> known to the scanner.
//
// The cache is consulted first; on a miss the plugin is description-extracted
// and, if it declared an identifier, inserted into the cache and read back so
// downstream consumers see the cached representation rather than the
// in-memory one (the store may normalize fields on insert). Plugins that
// never declare an identifier are discarded. On success the plugin's
// preferences are merged into the preference store.
func (l *Loader) Load(ctx context.Context, folder, name string) error {
	fullname := filepath.Join(folder, name)

	meta, ok := l.cache.Get(name)
	if !ok {
		fresh, err := l.extractor.Extract(ctx, fullname)
		if err != nil {
			l.logger.Debug("plugin could not be loaded", "path", fullname, "error", err)
			return fmt.Errorf("load %s: %w", name, err)
		}

		l.guard.Clamp(fullname)

		if fresh.Valid() {
			meta = l.store(fresh, name)
		} else {
			// Most likely an exit was hit before the description was declared.
			l.logger.Debug("plugin could not be added to the cache and will stay invisible",
				"name", name)
		}
	}

	if !meta.Valid() {
		return fmt.Errorf("load %s: no plugin identifier", name)
	}

	l.registrar.Register(meta)
	return nil
}

// store inserts freshly extracted metadata and reads it back. If the cache is
// unavailable the in-memory record is used directly; loading degrades, it
// does not fail.
func (l *Loader) store(fresh *domain.PluginMetadata, name string) *domain.PluginMetadata {
	if err := l.cache.Add(fresh, name); err != nil {
		l.logger.Warn("metadata cache unavailable, using extracted record directly",
			"name", name, "error", err)
		return fresh
	}
	cached, ok := l.cache.Get(name)
	if !ok {
		l.logger.Warn("metadata cache readback missed, using extracted record directly",
			"name", name)
		return fresh
	}
	return cached
}
