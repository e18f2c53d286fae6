// Package store persists a queryable archive of capture runs to SQLite,
// alongside the JSON artifacts on disk. Writes are asynchronous and batched
// so archiving never backpressures the capture sequence.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the archive tables. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS api_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_ts TEXT NOT NULL,
	step TEXT NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	content_type TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_calls_session ON api_calls(session_ts, step);

CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_ts TEXT NOT NULL,
	step TEXT NOT NULL,
	url TEXT NOT NULL,
	element_count INTEGER NOT NULL,
	api_call_count INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_ts);
`

// Entry is one archive row, either an API call or a page capture summary.
type Entry struct {
	SessionTS    string
	Step         string
	Method       string // api call only
	URL          string
	Status       int    // api call only
	ContentType  string // api call only
	ElementCount int    // page only
	ApiCallCount int    // page only
	IsPage       bool
	Timestamp    int64 // unix microseconds
}

// Store persists archive entries to SQLite asynchronously.
type Store struct {
	db     *sql.DB
	ch     chan *Entry
	done   chan struct{}
	once   sync.Once
	ownsDB bool
}

// NewStore creates an archive store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Open opens (or creates) an archive database at the given path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := NewStore(db)
	s.ownsDB = true
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the archive tables if they don't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	if err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// RecordAsync queues an entry for async persistence. Non-blocking; drops if
// the buffer is full.
func (s *Store) RecordAsync(e *Entry) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMicro()
	}
	select {
	case s.ch <- e:
	default:
		// buffer full, drop rather than stall the run
	}
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
		if s.ownsDB {
			s.db.Close()
		}
	})
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("store: begin tx", "error", err)
		return
	}

	for _, e := range batch {
		if e.IsPage {
			_, err = tx.Exec(
				`INSERT INTO pages (session_ts, step, url, element_count, api_call_count, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
				e.SessionTS, e.Step, e.URL, e.ElementCount, e.ApiCallCount, e.Timestamp)
		} else {
			_, err = tx.Exec(
				`INSERT INTO api_calls (session_ts, step, method, url, status, content_type, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.SessionTS, e.Step, e.Method, e.URL, e.Status, e.ContentType, e.Timestamp)
		}
		if err != nil {
			slog.Error("store: insert entry", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("store: commit batch", "error", err)
	}
}
