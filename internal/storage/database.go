package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MonthRecord is an archived Hijri month summary
type MonthRecord struct {
	HijriYear  int    `json:"hijri_year"`
	HijriMonth int    `json:"hijri_month"`
	MonthName  string `json:"month_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Workdays   int    `json:"workdays"`
	Allowance  int    `json:"allowance"`
	Used       int    `json:"used"`
	ArchivedAt string `json:"archived_at"`
}

// EntryRecord is an archived permission entry
type EntryRecord struct {
	ID         int64  `json:"id"`
	HijriYear  int    `json:"hijri_year"`
	HijriMonth int    `json:"hijri_month"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Minutes    int    `json:"minutes"`
	Note       string `json:"note,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// Database stores archived months in sqlite
type Database struct {
	db *sql.DB
}

// New opens (and if needed initializes) the archive database
func New(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	database := &Database{db: db}
	if err := database.createTables(); err != nil {
		return nil, err
	}

	return database, nil
}

func (d *Database) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS month_summaries (
			hijri_year INTEGER NOT NULL,
			hijri_month INTEGER NOT NULL,
			month_name TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			workdays INTEGER NOT NULL,
			allowance INTEGER NOT NULL,
			used INTEGER NOT NULL,
			archived_at TEXT NOT NULL,
			PRIMARY KEY (hijri_year, hijri_month)
		)`,
		`CREATE TABLE IF NOT EXISTS permission_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hijri_year INTEGER NOT NULL,
			hijri_month INTEGER NOT NULL,
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			minutes INTEGER NOT NULL,
			note TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_month ON permission_entries(hijri_year, hijri_month)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database
func (d *Database) Close() error {
	return d.db.Close()
}

// ArchiveMonth stores a finished month and its entries in one transaction.
// Re-archiving the same (hijri_year, hijri_month) replaces the summary and
// its entries.
func (d *Database) ArchiveMonth(month MonthRecord, entries []EntryRecord) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO month_summaries
		 (hijri_year, hijri_month, month_name, start_date, end_date, workdays, allowance, used, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		month.HijriYear, month.HijriMonth, month.MonthName,
		month.StartDate, month.EndDate, month.Workdays,
		month.Allowance, month.Used, month.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert month summary: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM permission_entries WHERE hijri_year = ? AND hijri_month = ?`,
		month.HijriYear, month.HijriMonth,
	)
	if err != nil {
		return fmt.Errorf("failed to clear old entries: %w", err)
	}

	for _, entry := range entries {
		_, err = tx.Exec(
			`INSERT INTO permission_entries
			 (hijri_year, hijri_month, date, kind, minutes, note, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			month.HijriYear, month.HijriMonth,
			entry.Date, entry.Kind, entry.Minutes, entry.Note, entry.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	return tx.Commit()
}

// ListMonths returns archived month summaries, most recent first
func (d *Database) ListMonths(limit int) ([]MonthRecord, error) {
	if limit <= 0 {
		limit = 12
	}

	rows, err := d.db.Query(
		`SELECT hijri_year, hijri_month, month_name, start_date, end_date, workdays, allowance, used, archived_at
		 FROM month_summaries
		 ORDER BY hijri_year DESC, hijri_month DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query month summaries: %w", err)
	}
	defer rows.Close()

	var months []MonthRecord
	for rows.Next() {
		var m MonthRecord
		if err := rows.Scan(&m.HijriYear, &m.HijriMonth, &m.MonthName,
			&m.StartDate, &m.EndDate, &m.Workdays,
			&m.Allowance, &m.Used, &m.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan month summary: %w", err)
		}
		months = append(months, m)
	}

	return months, rows.Err()
}

// EntriesForMonth returns the archived entries of one Hijri month
func (d *Database) EntriesForMonth(hijriYear, hijriMonth int) ([]EntryRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, hijri_year, hijri_month, date, kind, minutes, COALESCE(note, ''), recorded_at
		 FROM permission_entries
		 WHERE hijri_year = ? AND hijri_month = ?
		 ORDER BY date, id`, hijriYear, hijriMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryRecord
	for rows.Next() {
		var e EntryRecord
		if err := rows.Scan(&e.ID, &e.HijriYear, &e.HijriMonth,
			&e.Date, &e.Kind, &e.Minutes, &e.Note, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
