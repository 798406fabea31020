package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Registers the "sqlite" driver.

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// MaxLimit caps the number of entries returned by Recent.
const MaxLimit = 500

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	state       TEXT    NOT NULL,
	previous    TEXT    NOT NULL DEFAULT '',
	target      TEXT    NOT NULL DEFAULT '',
	truncated   INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles (started_at);
`

// Entry is one stored cycle report.
type Entry struct {
	ID        int64          `json:"id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"-"`
	State     types.State    `json:"state"`
	Previous  types.ImageTag `json:"previous,omitempty"`
	Target    types.ImageTag `json:"target,omitempty"`
	Truncated bool           `json:"truncated"`
	Error     string         `json:"error,omitempty"`
}

// MarshalJSON encodes the duration in milliseconds, matching the cycle report.
func (e Entry) MarshalJSON() ([]byte, error) {
	type entry Entry

	return json.Marshal(struct {
		entry
		DurationMS int64 `json:"duration_ms"`
	}{entry(e), e.Duration.Milliseconds()})
}

// UnmarshalJSON reads the millisecond duration written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type entry Entry

	var aux struct {
		entry
		DurationMS int64 `json:"duration_ms"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = Entry(aux.entry)
	e.Duration = time.Duration(aux.DurationMS) * time.Millisecond

	return nil
}

// Store records cycle reports. It implements types.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
//
// Parameters:
//   - ctx: Context for schema creation.
//   - path: Database file path, or ":memory:".
//
// Returns:
//   - *Store: Ready store.
//   - error: Non-nil if the database cannot be opened or initialized.
func Open(ctx context.Context, path string) (*Store, error) {
	clog := logrus.WithField("path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errOpenFailed, path, err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %s: %w", errSchemaFailed, path, err)
	}

	clog.Debug("Opened cycle history database")

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing history database: %w", err)
	}

	return nil
}

// Record stores one cycle report.
func (s *Store) Record(ctx context.Context, report types.CycleReport) error {
	var errText string
	if report.Err != nil {
		errText = report.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (started_at, duration_ms, state, previous, target, truncated, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.StartedAt.UnixMilli(),
		report.Duration.Milliseconds(),
		string(report.State),
		string(report.Previous),
		string(report.Target),
		report.Truncated,
		errText,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errInsertFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"state":  report.State,
		"target": report.Target,
	}).Trace("Recorded cycle report")

	return nil
}

// Recent returns up to limit entries, newest first.
//
// Parameters:
//   - ctx: Query context.
//   - limit: Maximum number of entries, capped at MaxLimit.
//
// Returns:
//   - []Entry: Stored entries, newest first.
//   - error: Non-nil on a non-positive limit or query failure.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidLimit, limit)
	}

	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, state, previous, target, truncated, error
		 FROM cycles ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errQueryFailed, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)

	for rows.Next() {
		var (
			entry      Entry
			startedAt  int64
			durationMS int64
			state      string
			previous   string
			target     string
		)

		if err := rows.Scan(&entry.ID, &startedAt, &durationMS, &state, &previous, &target,
			&entry.Truncated, &entry.Error); err != nil {
			return nil, fmt.Errorf("%w: %w", errQueryFailed, err)
		}

		entry.StartedAt = time.UnixMilli(startedAt).UTC()
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.State = types.State(state)
		entry.Previous = types.ImageTag(previous)
		entry.Target = types.ImageTag(target)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errQueryFailed, err)
	}

	return entries, nil
}
