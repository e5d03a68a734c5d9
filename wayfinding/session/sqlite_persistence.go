package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

const createSessionsStatement = `CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	layout_id TEXT NOT NULL,
	layout TEXT NOT NULL,
	vehicle_label TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL
);`

const upsertSessionStatement = `INSERT INTO sessions (id, layout_id, layout, vehicle_label, created_at, last_accessed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	layout_id = excluded.layout_id,
	layout = excluded.layout,
	vehicle_label = excluded.vehicle_label,
	last_accessed_at = excluded.last_accessed_at;`

const selectSessionStatement = `SELECT id, layout_id, layout, vehicle_label, created_at, last_accessed_at FROM sessions WHERE id = ?;`

// SQLitePersistence implements SessionPersistence on a single SQLite table
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens (or creates) the database at path. Use ":memory:"
// for a throwaway store.
func NewSQLitePersistence(path string) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSessionsStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLitePersistence{db: db}, nil
}

// Close releases the database
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}

// Save inserts or updates a session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	layout, err := json.Marshal(session.Layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	_, err = sp.db.Exec(upsertSessionStatement,
		strings.ToLower(session.ID),
		session.LayoutID,
		string(layout),
		session.VehicleLabel,
		session.CreatedAt.UnixNano(),
		session.LastAccessedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Load retrieves a session row by ID
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	var data PersistedSessionData
	var layout string
	var created, accessed int64

	err := sp.db.QueryRow(selectSessionStatement, strings.ToLower(id)).
		Scan(&data.ID, &data.LayoutID, &layout, &data.VehicleLabel, &created, &accessed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(layout), &data.Layout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layout of session %s: %w", id, err)
	}
	data.CreatedAt = time.Unix(0, created)
	data.LastAccessedAt = time.Unix(0, accessed)

	session, err := data.session()
	if err != nil {
		return nil, fmt.Errorf("session %s has a bad layout: %w", id, err)
	}
	return session, nil
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	res, err := sp.db.Exec("DELETE FROM sessions WHERE id = ?;", strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := sp.db.Query("SELECT id FROM sessions ORDER BY created_at;")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session row exists
func (sp *SQLitePersistence) Exists(id string) bool {
	var one int
	err := sp.db.QueryRow("SELECT 1 FROM sessions WHERE id = ?;", strings.ToLower(id)).Scan(&one)
	return err == nil
}
