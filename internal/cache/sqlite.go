// Package cache implements the persistent plugin metadata cache on SQLite.
// The cache is the single source of truth for "is this plugin already known";
// a corrupt or unreachable cache degrades lookups to misses so loading falls
// back to re-extracting, it never becomes fatal.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"

	"github.com/kestrelscan/kestrel/internal/core/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS plugins (
		name        TEXT PRIMARY KEY,
		oid         TEXT NOT NULL,
		plugin_name TEXT NOT NULL,
		category    INTEGER NOT NULL,
		preferences TEXT NOT NULL,
		cached_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plugins_oid ON plugins(oid);
`

// Store is a SQLite-backed metadata cache. The connection pool is guarded by
// a mutex because Reset swaps it: every spawned execution process must
// re-establish its own connection rather than reuse the parent's.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore opens (creating if necessary) the cache database at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, logger: logger}, nil
}

func open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize metadata cache schema: %w", err)
	}
	return db, nil
}

// Get returns the cached metadata for a plugin filename. Any failure (closed
// pool, corrupt row, undecodable preferences) is reported as a miss.
func (s *Store) Get(name string) (*domain.PluginMetadata, bool) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, false
	}

	var (
		meta     domain.PluginMetadata
		category int
		prefsRaw string
	)
	row := db.QueryRow(
		`SELECT oid, plugin_name, category, preferences FROM plugins WHERE name = ?`, name)
	if err := row.Scan(&meta.OID, &meta.Name, &category, &prefsRaw); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Debug("metadata cache lookup failed, treating as miss",
				"name", name, "error", err)
		}
		return nil, false
	}
	meta.Category = domain.Category(category)
	if err := json.Unmarshal([]byte(prefsRaw), &meta.Preferences); err != nil {
		s.logger.Debug("metadata cache entry undecodable, treating as miss",
			"name", name, "error", err)
		return nil, false
	}
	return &meta, true
}

// Add persists a valid record keyed by plugin filename, overwriting any prior
// entry. OID and plugin name are trimmed of surrounding whitespace on insert;
// this normalization is why loaders re-read after writing.
func (s *Store) Add(meta *domain.PluginMetadata, name string) error {
	if !meta.Valid() {
		return fmt.Errorf("refusing to cache metadata without OID for %q", name)
	}
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("metadata cache is closed")
	}

	prefsRaw, err := json.Marshal(prefsOrEmpty(meta.Preferences))
	if err != nil {
		return fmt.Errorf("encode preferences for %q: %w", name, err)
	}
	_, err = db.Exec(`
		INSERT INTO plugins (name, oid, plugin_name, category, preferences, cached_at)
		VALUES (?, ?, ?, ?, ?, strftime('%s','now'))
		ON CONFLICT(name) DO UPDATE SET
			oid = excluded.oid,
			plugin_name = excluded.plugin_name,
			category = excluded.category,
			preferences = excluded.preferences,
			cached_at = excluded.cached_at`,
		name, strings.TrimSpace(meta.OID), strings.TrimSpace(meta.Name),
		int(meta.Category), string(prefsRaw))
	if err != nil {
		return fmt.Errorf("cache metadata for %q: %w", name, err)
	}
	return nil
}

// List returns every cached record keyed by plugin filename, ordered by
// filename. Used by inventory listings, never by the load path.
func (s *Store) List() (map[string]*domain.PluginMetadata, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("metadata cache is closed")
	}

	rows, err := db.Query(
		`SELECT name, oid, plugin_name, category, preferences FROM plugins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list metadata cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.PluginMetadata)
	for rows.Next() {
		var (
			name     string
			meta     domain.PluginMetadata
			category int
			prefsRaw string
		)
		if err := rows.Scan(&name, &meta.OID, &meta.Name, &category, &prefsRaw); err != nil {
			return nil, fmt.Errorf("scan metadata cache row: %w", err)
		}
		meta.Category = domain.Category(category)
		if err := json.Unmarshal([]byte(prefsRaw), &meta.Preferences); err != nil {
			s.logger.Debug("skipping undecodable cache entry", "name", name, "error", err)
			continue
		}
		out[name] = &meta
	}
	return out, rows.Err()
}

// Reset closes the inherited connection pool and opens a fresh one. Mandatory
// inside every spawned execution process before any cache access.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	db, err := open(s.path)
	if err != nil {
		return fmt.Errorf("reset metadata cache connection: %w", err)
	}
	s.db = db
	return nil
}

// Close releases the backing connection. Subsequent lookups miss.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func prefsOrEmpty(prefs []domain.Preference) []domain.Preference {
	if prefs == nil {
		return []domain.Preference{}
	}
	return prefs
}
