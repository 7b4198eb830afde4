package pkgenv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"paramit/internal/logging"
)

// Cache maps package-descriptor hashes to virtualenv paths in a small
// SQLite database under the user's config directory.
type Cache struct {
	db *sql.DB
}

// DefaultCachePath returns the per-user cache database location.
func DefaultCachePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, "paramit", "environments.db"), nil
}

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.EnvDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.EnvDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS environments (
		hash       TEXT PRIMARY KEY,
		venv_path  TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize environment cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached environment for a descriptor hash. Rows whose
// virtualenv no longer exists on disk are evicted and reported as misses.
func (c *Cache) Lookup(hash string) (Env, bool, error) {
	var venvPath string
	err := c.db.QueryRow("SELECT venv_path FROM environments WHERE hash = ?", hash).Scan(&venvPath)
	if err == sql.ErrNoRows {
		return Env{}, false, nil
	}
	if err != nil {
		return Env{}, false, fmt.Errorf("environment cache lookup failed: %w", err)
	}

	if _, statErr := os.Stat(venvPath); statErr != nil {
		logging.EnvDebug("evicting stale environment %s (%s)", hash, venvPath)
		if _, delErr := c.db.Exec("DELETE FROM environments WHERE hash = ?", hash); delErr != nil {
			return Env{}, false, fmt.Errorf("failed to evict stale environment: %w", delErr)
		}
		return Env{}, false, nil
	}
	return Env{VenvPath: venvPath}, true, nil
}

// Store records a descriptor hash -> environment mapping.
func (c *Cache) Store(hash string, env Env) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO environments (hash, venv_path, created_at) VALUES (?, ?, ?)",
		hash, env.VenvPath, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record environment: %w", err)
	}
	return nil
}
