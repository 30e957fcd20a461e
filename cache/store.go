// Package cache keeps compilation results in a SQLite database keyed by the
// fingerprint of everything that determines them. A hit returns the stored
// code, source map and diagnostics together with the registry as it stood
// after the unit, so builds that thread a registry from file to file can
// skip unchanged files.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/compiler/hash"
)

// ErrNotFound indicates the key has no stored entry.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one stored compilation result.
type Entry struct {
	File        string
	Code        string
	SourceMap   []byte
	Diagnostics []*diag.Diagnostic
	// Registry is the snapshot of the registry after the unit.
	Registry []byte
	// Failed records that the unit reported errors.
	Failed  bool
	Created time.Time
	Hits    int
}

// Stats summarises the store.
type Stats struct {
	Entries int
	Hits    int
	Bytes   int64
}

// Store is a SQLite-backed result cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	log  commonlog.Logger
	mu   sync.Mutex
	now  func() time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key         TEXT PRIMARY KEY,
	file        TEXT NOT NULL,
	code        TEXT NOT NULL,
	source_map  BLOB,
	diagnostics BLOB NOT NULL,
	registry    BLOB,
	failed      INTEGER NOT NULL,
	created     INTEGER NOT NULL,
	hits        INTEGER NOT NULL DEFAULT 0
)`

// Open opens or creates the cache database at path. The special path
// ":memory:" keeps the cache in memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cache: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating table: %w", err)
	}

	return &Store{
		db:   db,
		path: path,
		log:  commonlog.GetLogger("objjc.cache"),
		now:  time.Now,
	}, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the entry stored under key and counts the hit.
func (s *Store) Get(ctx context.Context, key hash.Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		e       Entry
		diags   []byte
		failed  int
		created int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT file, code, source_map, diagnostics, registry, failed, created, hits FROM entries WHERE key = ?`,
		key.String())
	err := row.Scan(&e.File, &e.Code, &e.SourceMap, &diags, &e.Registry, &failed, &created, &e.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: loading %s: %w", key, err)
	}
	if e.Diagnostics, err = UnmarshalDiagnostics(diags); err != nil {
		return nil, err
	}
	e.Failed = failed != 0
	e.Created = time.Unix(0, created)

	if _, err := s.db.ExecContext(ctx, `UPDATE entries SET hits = hits + 1 WHERE key = ?`, key.String()); err != nil {
		return nil, fmt.Errorf("cache: counting hit: %w", err)
	}
	e.Hits++
	s.log.Debugf("hit %s (%s)", key, e.File)
	return &e, nil
}

// Put stores e under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key hash.Key, e *Entry) error {
	diags, err := MarshalDiagnostics(e.Diagnostics)
	if err != nil {
		return fmt.Errorf("cache: marshal diagnostics: %w", err)
	}
	failed := 0
	if e.Failed {
		failed = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (key, file, code, source_map, diagnostics, registry, failed, created, hits)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		key.String(), e.File, e.Code, e.SourceMap, diags, e.Registry, failed, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("cache: storing %s: %w", key, err)
	}
	s.log.Debugf("stored %s (%s)", key, e.File)
	return nil
}

// Delete removes the entry stored under key, if any.
func (s *Store) Delete(ctx context.Context, key hash.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key.String()); err != nil {
		return fmt.Errorf("cache: deleting %s: %w", key, err)
	}
	return nil
}

// Prune removes entries created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE created < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache: pruning: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: pruning: %w", err)
	}
	if n > 0 {
		s.log.Infof("pruned %d entries", n)
	}
	return n, nil
}

// Stats reports the number of entries, total hits and stored bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(hits), 0),
		COALESCE(SUM(LENGTH(code) + LENGTH(COALESCE(source_map, '')) + LENGTH(diagnostics) + LENGTH(COALESCE(registry, ''))), 0)
		FROM entries`)
	if err := row.Scan(&st.Entries, &st.Hits, &st.Bytes); err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	return st, nil
}
