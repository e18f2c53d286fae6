package store

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Force single connection so the in-memory DB is shared by all callers.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndDrain(t *testing.T) {
	db := testDB(t)
	s := NewStore(db)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	s.RecordAsync(&Entry{
		SessionTS: "2026-08-30T10-00-00", Step: "home",
		Method: "GET", URL: "https://app.example.com/api/projects",
		Status: 200, ContentType: "application/json",
	})
	s.RecordAsync(&Entry{
		SessionTS: "2026-08-30T10-00-00", Step: "home",
		URL: "https://app.example.com/app/home",
		ElementCount: 42, ApiCallCount: 1, IsPage: true,
	})

	// Close drains the buffer synchronously.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	var calls, pages int
	if err := db.QueryRow(`SELECT COUNT(*) FROM api_calls`).Scan(&calls); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&pages); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || pages != 1 {
		t.Errorf("expected 1 call and 1 page, got %d and %d", calls, pages)
	}

	var status int
	var ct string
	if err := db.QueryRow(`SELECT status, content_type FROM api_calls`).Scan(&status, &ct); err != nil {
		t.Fatal(err)
	}
	if status != 200 || ct != "application/json" {
		t.Errorf("unexpected row: status=%d content_type=%q", status, ct)
	}
}

func TestCloseIdempotent(t *testing.T) {
	db := testDB(t)
	s := NewStore(db)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
