package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS applications (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		unique_key  TEXT NOT NULL UNIQUE,
		company     TEXT NOT NULL,
		position    TEXT NOT NULL,
		status      TEXT NOT NULL,
		location    TEXT DEFAULT 'unknown',
		action_date TEXT DEFAULT 'unknown',
		confidence  REAL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);

	CREATE TABLE IF NOT EXISTS processed_emails (
		email_id     TEXT PRIMARY KEY,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteStore is the local ReconciliationStore backend. It also serves
// as the processed-email ledger regardless of which application store
// backend is active.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Lookup(key string) (StoredApplication, bool, error) {
	var stored StoredApplication
	err := s.db.QueryRow(
		`SELECT company, position, status, location, action_date
		 FROM applications WHERE unique_key = ?`,
		key,
	).Scan(&stored.CompanyName, &stored.PositionTitle, &stored.Status,
		&stored.Location, &stored.ActionDate)
	if err == sql.ErrNoRows {
		return StoredApplication{}, false, nil
	}
	if err != nil {
		return StoredApplication{}, false, err
	}
	return stored, true, nil
}

func (s *SQLiteStore) Append(app JobApplication) error {
	_, err := s.db.Exec(
		`INSERT INTO applications (unique_key, company, position, status, location, action_date, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		app.UniqueKey(), app.CompanyName, app.PositionTitle, string(app.Status),
		app.Location, app.ActionDate, app.Confidence,
	)
	return err
}

// UpdateStatus rewrites the stored row for key, keeping old values
// where the extracted ones are "unknown".
func (s *SQLiteStore) UpdateStatus(key string, app JobApplication) error {
	stored, ok, err := s.Lookup(key)
	if err != nil {
		return err
	}
	if !ok {
		return s.Append(app)
	}
	_, err = s.db.Exec(
		`UPDATE applications
		 SET status = ?, location = ?, action_date = ?, confidence = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE unique_key = ?`,
		string(app.Status),
		resolveField(app.Location, stored.Location),
		resolveField(app.ActionDate, stored.ActionDate),
		app.Confidence,
		key,
	)
	return err
}

func (s *SQLiteStore) WasProcessed(emailID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_emails WHERE email_id = ?`, emailID).Scan(&count)
	return count > 0, err
}

func (s *SQLiteStore) MarkProcessed(emailID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO processed_emails (email_id) VALUES (?)`,
		emailID,
	)
	return err
}
