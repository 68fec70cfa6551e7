package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jtolonen/stroll/pkg/api"
)

// SQLiteStore is a RecordStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// The record is stored relationally: one row per finished tour plus a small
// metadata table, so other tooling on the same database can query tour
// status directly.
type SQLiteStore struct {
	db *sql.DB
}

var _ RecordStore = (*SQLiteStore)(nil)

const (
	statusCompleted = "completed"
	statusSkipped   = "skipped"

	metaLastCompletedAt = "last_completed_at"
)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tour_status (
			tour_id TEXT PRIMARY KEY,
			status TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tour_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Load() (api.Record, error) {
	rows, err := s.db.Query(`SELECT tour_id, status FROM tour_status`)
	if err != nil {
		return api.Record{}, fmt.Errorf("load tour record: %w", err)
	}
	defer rows.Close()

	var rec api.Record
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return api.Record{}, err
		}
		switch status {
		case statusCompleted:
			rec.Completed = append(rec.Completed, id)
		case statusSkipped:
			rec.Skipped = append(rec.Skipped, id)
		}
	}
	if err := rows.Err(); err != nil {
		return api.Record{}, err
	}

	var tsStr string
	err = s.db.QueryRow(`SELECT value FROM tour_meta WHERE key = ?`, metaLastCompletedAt).Scan(&tsStr)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No completion recorded yet.
	case err != nil:
		return api.Record{}, err
	default:
		t, perr := time.Parse(time.RFC3339, tsStr)
		if perr != nil {
			return api.Record{}, fmt.Errorf("load tour record timestamp: %w", perr)
		}
		rec.LastCompletedAt = &t
	}

	return Normalize(rec), nil
}

// Save replaces the whole stored record in one transaction. The record is
// tiny (tens of rows at most), so rewrite-on-save is simpler and safer than
// diffing.
func (s *SQLiteStore) Save(rec api.Record) error {
	rec = Normalize(rec)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save tour record: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tour_status`); err != nil {
		return err
	}
	for _, id := range rec.Completed {
		if _, err := tx.Exec(`INSERT INTO tour_status (tour_id, status) VALUES (?, ?)`, id, statusCompleted); err != nil {
			return err
		}
	}
	for _, id := range rec.Skipped {
		if _, err := tx.Exec(`INSERT INTO tour_status (tour_id, status) VALUES (?, ?)`, id, statusSkipped); err != nil {
			return err
		}
	}

	if rec.LastCompletedAt != nil {
		ts := rec.LastCompletedAt.UTC().Format(time.RFC3339)
		_, err = tx.Exec(`
			INSERT INTO tour_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			metaLastCompletedAt, ts,
		)
	} else {
		_, err = tx.Exec(`DELETE FROM tour_meta WHERE key = ?`, metaLastCompletedAt)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}
