// Package history is a SQLite log of the snapshots the monitor received from
// the feeder. The monitor only appends to it; its view is never restored
// from the log.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Reading is a single received snapshot
type Reading struct {
	ID         int64
	Moisture   int
	PumpOn     bool
	ReceivedAt time.Time
}

// Store persists readings in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	s, err := NewStore(db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS readings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			moisture    INTEGER NOT NULL,
			pump        INTEGER NOT NULL,
			received_at INTEGER NOT NULL
		)
	`)

	return err
}

// Record appends a reading.
func (s *Store) Record(ctx context.Context, moisture int, pumpOn bool, at time.Time) error {
	pump := 0
	if pumpOn {
		pump = 1
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO readings (moisture, pump, received_at) VALUES (?, ?, ?)`,
		moisture,
		pump,
		at.UnixMilli(),
	)

	return err
}

// Recent returns up to n readings, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Reading, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, moisture, pump, received_at FROM readings ORDER BY id DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := []Reading{}
	for rows.Next() {
		var (
			r          Reading
			pump       int
			receivedAt int64
		)
		if err := rows.Scan(&r.ID, &r.Moisture, &pump, &receivedAt); err != nil {
			return nil, err
		}

		r.PumpOn = pump == 1
		r.ReceivedAt = time.UnixMilli(receivedAt).UTC()

		readings = append(readings, r)
	}

	return readings, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
