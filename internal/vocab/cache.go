package vocab

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Cache stores downloaded vocabularies in SQLite with their fetch time
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenCache opens (or creates) the cache database at path
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// WithClock replaces the time source used for freshness checks.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS vocab_cache (
			source TEXT PRIMARY KEY,
			entries_json TEXT NOT NULL,
			entry_count INTEGER NOT NULL,
			fetched_utc TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate vocab cache: %w", err)
		}
	}
	return nil
}

// Put replaces the cached entries for source
func (c *Cache) Put(ctx context.Context, source string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO vocab_cache (source, entries_json, entry_count, fetched_utc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			entries_json = excluded.entries_json,
			entry_count = excluded.entry_count,
			fetched_utc = excluded.fetched_utc
	`, source, string(data), len(entries), c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cached vocabulary: %w", err)
	}
	return nil
}

// Get returns the cached entries for source when they are younger than maxAge.
// The boolean is false for a miss or a stale copy.
func (c *Cache) Get(ctx context.Context, source string, maxAge time.Duration) ([]Entry, bool, error) {
	var raw, fetched string
	err := c.db.QueryRowContext(ctx,
		`SELECT entries_json, fetched_utc FROM vocab_cache WHERE source = ?`, source,
	).Scan(&raw, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached vocabulary: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, fetched)
	if err != nil {
		return nil, false, fmt.Errorf("parse cache timestamp: %w", err)
	}
	if c.now().Sub(fetchedAt) >= maxAge {
		return nil, false, nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached vocabulary: %w", err)
	}
	return entries, true, nil
}

// CachedProvider serves a fresh cached copy of its upstream, refreshing the
// cache when the copy is missing or expired.
type CachedProvider struct {
	cache    *Cache
	upstream Provider
	maxAge   time.Duration
	logger   *logrus.Entry
}

func NewCachedProvider(cache *Cache, upstream Provider, maxAge time.Duration, logger *logrus.Entry) *CachedProvider {
	return &CachedProvider{
		cache:    cache,
		upstream: upstream,
		maxAge:   maxAge,
		logger:   logger.WithField("component", "vocab_cache"),
	}
}

func (p *CachedProvider) Name() string { return "cached-" + p.upstream.Name() }

func (p *CachedProvider) Load(ctx context.Context) ([]Entry, error) {
	entries, fresh, err := p.cache.Get(ctx, p.upstream.Name(), p.maxAge)
	if err != nil {
		p.logger.WithError(err).Warn("Vocabulary cache unreadable")
	}
	if fresh {
		return entries, nil
	}

	entries, err = p.upstream.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Put(ctx, p.upstream.Name(), entries); err != nil {
		p.logger.WithError(err).Warn("Failed to update vocabulary cache")
	}
	return entries, nil
}
