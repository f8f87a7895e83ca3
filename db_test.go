package main

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "statussync-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteStoreAppendAndLookup(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t))

	app := JobApplication{
		CompanyName:   "Acme",
		PositionTitle: "Software Engineer",
		Status:        StatusApplied,
		Location:      "Berlin",
		ActionDate:    "2026-08-20",
		Confidence:    0.9,
	}
	if err := store.Append(app); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	stored, ok, err := store.Lookup(app.UniqueKey())
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("appended row not found")
	}
	if stored.CompanyName != "Acme" || stored.Status != StatusApplied || stored.Location != "Berlin" {
		t.Errorf("got %+v", stored)
	}
}

func TestSQLiteStoreLookupMissingKey(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t))

	_, ok, err := store.Lookup("nobody|nothing")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Fatal("found a row that was never stored")
	}
}

func TestSQLiteStoreUpdateKeepsKnownFields(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t))

	if err := store.Append(JobApplication{
		CompanyName:   "Acme",
		PositionTitle: "Software Engineer",
		Status:        StatusApplied,
		Location:      "Berlin",
		ActionDate:    "2026-08-20",
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	update := JobApplication{
		CompanyName:   "Acme",
		PositionTitle: "Software Engineer",
		Status:        StatusInterviewScheduled,
		Location:      "unknown",
		ActionDate:    "2026-08-28",
		Confidence:    0.85,
	}
	if err := store.UpdateStatus(update.UniqueKey(), update); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	stored, ok, err := store.Lookup(update.UniqueKey())
	if err != nil || !ok {
		t.Fatalf("Lookup after update: ok=%t err=%v", ok, err)
	}
	if stored.Status != StatusInterviewScheduled {
		t.Errorf("status not updated: %+v", stored)
	}
	if stored.Location != "Berlin" {
		t.Errorf("unknown location overwrote stored value: %+v", stored)
	}
	if stored.ActionDate != "2026-08-28" {
		t.Errorf("action date not updated: %+v", stored)
	}
}

func TestSQLiteStoreUpdateMissingKeyAppends(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t))

	app := JobApplication{
		CompanyName:   "Acme",
		PositionTitle: "Software Engineer",
		Status:        StatusOffer,
		Location:      "unknown",
		ActionDate:    "unknown",
	}
	if err := store.UpdateStatus(app.UniqueKey(), app); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	_, ok, err := store.Lookup(app.UniqueKey())
	if err != nil || !ok {
		t.Fatalf("row not appended: ok=%t err=%v", ok, err)
	}
}

func TestProcessedLedger(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t))

	done, err := store.WasProcessed("m1")
	if err != nil {
		t.Fatalf("WasProcessed failed: %v", err)
	}
	if done {
		t.Fatal("unseen email reported as processed")
	}

	if err := store.MarkProcessed("m1"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	// Marking twice must not fail.
	if err := store.MarkProcessed("m1"); err != nil {
		t.Fatalf("repeat MarkProcessed failed: %v", err)
	}

	done, err = store.WasProcessed("m1")
	if err != nil {
		t.Fatalf("WasProcessed failed: %v", err)
	}
	if !done {
		t.Fatal("marked email not reported as processed")
	}
}
