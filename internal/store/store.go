// Package store implements MemoryStore (spec §4.1): the persistent,
// content-addressed memory/trick/goal/face/room/conversation record store
// with full-text recall, backed by SQLite (mattn/go-sqlite3, built with the
// fts5 driver tag) the way the teacher's internal/store/local_core.go opens
// and migrates its own SQLite-backed shards.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joeunion/pidog/internal/cogerr"
	"github.com/joeunion/pidog/internal/logging"
)

// Store is the MemoryStore implementation. Every operation except Stats,
// read or write, holds mu, so reads are serialized with each other as well
// as with mutations; they do not run concurrently.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	closed bool
}

// Open creates (if needed) and migrates the SQLite database at path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, cogerr.NewStorage("open", fmt.Errorf("mkdir %s: %w", dir, err))
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, cogerr.NewStorage("open", err)
	}
	// A single connection keeps writer serialization trivial and matches
	// the teacher's choice for its own embedded SQLite store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryStore).Warn("pragma %q failed: %v", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, cogerr.NewStorage("migrate", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			subject TEXT NOT NULL,
			content TEXT NOT NULL,
			importance REAL NOT NULL DEFAULT 0.5,
			created_at DATETIME NOT NULL,
			last_accessed DATETIME NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			subject, content, content='memories', content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
			INSERT INTO memories_fts(rowid, subject, content) VALUES (new.id, new.subject, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, subject, content) VALUES ('delete', old.id, old.subject, old.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, subject, content) VALUES ('delete', old.id, old.subject, old.content);
			INSERT INTO memories_fts(rowid, subject, content) VALUES (new.id, new.subject, new.content);
		END`,
		`CREATE INDEX IF NOT EXISTS idx_memories_subject ON memories(subject)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance)`,
		`CREATE TABLE IF NOT EXISTS tricks (
			name TEXT PRIMARY KEY,
			trigger_phrase TEXT NOT NULL,
			actions TEXT NOT NULL,
			times_performed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			priority INTEGER NOT NULL,
			status TEXT NOT NULL,
			progress TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS faces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			encoding BLOB NOT NULL,
			image_hash TEXT NOT NULL DEFAULT '',
			times_seen INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_faces_name ON faces(name)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			landmarks TEXT NOT NULL DEFAULT '[]',
			image_hash TEXT NOT NULL DEFAULT '',
			times_visited INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			summary TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the underlying connection. Idempotent: subsequent calls
// return nil, but any operation issued after Close fails with a StorageError.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return cogerr.NewStorage("op", fmt.Errorf("store is closed"))
	}
	return nil
}

// Stats returns a table -> row count map.
func (s *Store) Stats() (map[string]int64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	tables := []string{"memories", "tricks", "goals", "faces", "rooms", "conversations"}
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
			return nil, cogerr.NewStorage("stats", err)
		}
		out[t] = n
	}
	return out, nil
}
