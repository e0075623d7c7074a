// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

const defaultBatchSize = 100

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	device     TEXT NOT NULL,
	started_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	time_ns     INTEGER NOT NULL,
	ax REAL NOT NULL, ay REAL NOT NULL, az REAL NOT NULL,
	wx REAL NOT NULL, wy REAL NOT NULL, wz REAL NOT NULL,
	roll REAL NOT NULL, pitch REAL NOT NULL, yaw REAL NOT NULL,
	temp_c REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_session_time ON samples(session_id, time_ns);
`

const insertSampleSQL = `
INSERT INTO samples (session_id, time_ns, ax, ay, az, wx, wy, wz, roll, pitch, yaw, temp_c)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLite stores samples in a session table, committing in batches.
type SQLite struct {
	db        *sql.DB
	sessionID string
	batch     []imu.Sample
	batchSize int
}

// WithBatchSize sets how many samples are committed per transaction.
func WithBatchSize(n int) func(*SQLite) {
	return func(s *SQLite) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// OpenSQLite opens (or creates) the database at path and starts a new session
// for device.
func OpenSQLite(path, device string, options ...func(*SQLite)) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "_journal_mode=WAL&_synchronous=NORMAL"))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if _, err = db.Exec(initSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := &SQLite{
		db:        db,
		sessionID: uuid.NewString(),
		batchSize: defaultBatchSize,
	}
	for _, option := range options {
		option(s)
	}

	if _, err = db.Exec(`INSERT INTO sessions (id, device, started_at) VALUES (?, ?, ?)`,
		s.sessionID, device, time.Now().UnixNano()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}

// SessionID returns the id of the session rows are written under.
func (s *SQLite) SessionID() string { return s.sessionID }

// DB exposes the handle for readers in the same process.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Write(sample imu.Sample) error {
	s.batch = append(s.batch, sample)
	if len(s.batch) < s.batchSize {
		return nil
	}
	return s.Flush()
}

// Flush commits the pending batch.
func (s *SQLite) Flush() error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertSampleSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.batch {
		if _, err := stmt.Exec(s.sessionID, r.Time.UnixNano(),
			r.Ax, r.Ay, r.Az, r.Wx, r.Wy, r.Wz, r.Roll, r.Pitch, r.Yaw, r.Temperature); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}

func (s *SQLite) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}
