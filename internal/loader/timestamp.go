package loader

import (
	"log/slog"
	"os"
	"time"
)

// TimestampGuard clamps a plugin file's timestamps so they never appear to be
// from the future. A future mtime would make the cache-freshness comparison
// ("is the cached entry older than the file?") chase a moving target, so the
// guard rewrites both access and modification time to one second before now.
//
// Clamping is advisory: on a read-only filesystem a single run still works,
// only repeat-run cache efficiency suffers.
type TimestampGuard struct {
	logger *slog.Logger

	// now is replaceable for tests
	now func() time.Time
}

// NewTimestampGuard returns a guard using the wall clock.
func NewTimestampGuard(logger *slog.Logger) *TimestampGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimestampGuard{logger: logger, now: time.Now}
}

// Clamp rewrites the file's atime/mtime to now-1s when its mtime is strictly
// later than that. Failures are logged, never returned.
func (g *TimestampGuard) Clamp(path string) {
	cutoff := g.now().Add(-time.Second)
	info, err := os.Stat(path)
	if err != nil {
		g.logger.Debug("could not stat plugin for timestamp check", "path", path, "error", err)
		return
	}
	if !info.ModTime().After(cutoff) {
		return
	}
	if err := os.Chtimes(path, cutoff, cutoff); err != nil {
		g.logger.Debug("timestamp is from the future and could not be fixed",
			"path", path, "error", err)
		return
	}
	g.logger.Debug("timestamp was from the future, fixed", "path", path)
}
