package repomap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultCacheDir is the tags cache directory created under the map root
const DefaultCacheDir = ".codecrew.tags.cache"

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS tags (
		fname TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		tags  TEXT NOT NULL
	)`

// Cache stores the tags of each file keyed by path and modification time
type Cache struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// OpenCache opens or creates the tags database in dir
func OpenCache(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tags cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "tags.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tags cache: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := conn.Exec(cacheSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize tags cache: %w", err)
	}
	return &Cache{conn: conn, logger: logger, dbPath: dbPath}, nil
}

// Path returns the database file path
func (c *Cache) Path() string {
	return c.dbPath
}

// Close closes the database
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Get returns the cached tags of fname when they were stored for mtime
func (c *Cache) Get(ctx context.Context, fname string, mtime int64) ([]Tag, bool, error) {
	var (
		stored int64
		data   string
	)
	err := c.conn.QueryRowContext(ctx, "SELECT mtime, tags FROM tags WHERE fname = ?", fname).Scan(&stored, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if stored != mtime {
		return nil, false, nil
	}
	var tags []Tag
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, false, err
	}
	return tags, true, nil
}

// Put stores the tags of fname for mtime
func (c *Cache) Put(ctx context.Context, fname string, mtime int64, tags []Tag) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = c.conn.ExecContext(ctx,
		"INSERT INTO tags (fname, mtime, tags) VALUES (?, ?, ?) ON CONFLICT(fname) DO UPDATE SET mtime = excluded.mtime, tags = excluded.tags",
		fname, mtime, string(data))
	return err
}

// CachedTagger serves tags from a Cache, extracting them with Tagger on a miss
type CachedTagger struct {
	Tagger Tagger
	Cache  *Cache
}

var _ Tagger = (*CachedTagger)(nil)

func (t *CachedTagger) Tags(ctx context.Context, fname string, relFname string) ([]Tag, error) {
	info, err := os.Stat(fname)
	if err != nil {
		return nil, err
	}
	mtime := info.ModTime().UnixNano()
	if tags, ok, err := t.Cache.Get(ctx, fname, mtime); err != nil {
		t.Cache.logger.Warn("tags cache read failed", slog.String("fname", fname), slog.Any("error", err))
	} else if ok {
		return tags, nil
	}
	tags, err := t.Tagger.Tags(ctx, fname, relFname)
	if err != nil {
		return nil, err
	}
	if err := t.Cache.Put(ctx, fname, mtime, tags); err != nil {
		t.Cache.logger.Warn("tags cache write failed", slog.String("fname", fname), slog.Any("error", err))
	}
	return tags, nil
}
