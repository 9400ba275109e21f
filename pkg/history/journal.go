package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/transform"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by a journal used after Close.
var ErrClosed = errors.New("history: journal closed")

const journalSchema = `
CREATE TABLE IF NOT EXISTS transforms (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid        TEXT    NOT NULL,
	mode        TEXT    NOT NULL,
	before_json TEXT    NOT NULL,
	after_json  TEXT    NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transforms_uuid ON transforms(uuid);
`

// Entry is one journal row.
type Entry struct {
	ID         int64
	UUID       string
	Mode       transform.Mode
	Before     scene.Snapshot
	After      scene.Snapshot
	RecordedAt time.Time
}

// Journal persists transform records to SQLite.
type Journal struct {
	conn *sql.DB
	now  func() time.Time
}

var _ Recorder = (*Journal)(nil)

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}
	return &Journal{conn: conn, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}
	err := j.conn.Close()
	j.conn = nil
	return err
}

// Record appends rec to the journal.
func (j *Journal) Record(rec transform.Record) error {
	if j.conn == nil {
		return ErrClosed
	}
	before, err := json.Marshal(rec.PreviousValues)
	if err != nil {
		return fmt.Errorf("marshaling previous values: %w", err)
	}
	after, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("marshaling values: %w", err)
	}
	_, err = j.conn.Exec(
		`INSERT INTO transforms (uuid, mode, before_json, after_json, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.UUID, rec.Type.String(), string(before), string(after), j.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting transform for %s: %w", rec.UUID, err)
	}
	return nil
}

// Entries returns the most recent entries, newest first. An empty uuid
// lists every object. limit <= 0 means no limit.
func (j *Journal) Entries(uuid string, limit int) ([]Entry, error) {
	if j.conn == nil {
		return nil, ErrClosed
	}
	q := `SELECT id, uuid, mode, before_json, after_json, recorded_at FROM transforms`
	var args []any
	if uuid != "" {
		q += ` WHERE uuid = ?`
		args = append(args, uuid)
	}
	q += ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e             Entry
			mode          string
			before, after string
			at            int64
		)
		if err := rows.Scan(&e.ID, &e.UUID, &mode, &before, &after, &at); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if e.Mode, err = transform.ParseMode(mode); err != nil {
			return nil, fmt.Errorf("journal row %d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(before), &e.Before); err != nil {
			return nil, fmt.Errorf("journal row %d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(after), &e.After); err != nil {
			return nil, fmt.Errorf("journal row %d: %w", e.ID, err)
		}
		e.RecordedAt = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
