// Package sqlite persists decoded uplink messages in a SQLite database.
//
// The store owns one connection and one prepared insert for the process
// lifetime. Each Insert is an independent single-row write; there is no
// batching, no upsert, and no uniqueness constraint.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ttnrec/internal/logging"
	"ttnrec/internal/uplink"
)

// Store is the SQLite persistence sink for uplink records.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
	path   string
	logger *slog.Logger
}

// NewStore opens (or creates) the database at path, ensures the data table
// exists, and prepares the insert statement. Any failure here is a startup
// failure; callers are expected to treat it as fatal.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	logger = logging.Default(logger).With("component", "store")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer by construction; a second connection would only add
	// lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	insert, err := db.Prepare(`INSERT INTO data
		(app_id, dev_id, hardware_serial, port, counter,
		 time, lon, lat, alt, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	logger.Info("store opened", "path", path)

	return &Store{db: db, insert: insert, path: path, logger: logger}, nil
}

// Insert writes one uplink message as one row.
func (s *Store) Insert(msg *uplink.UplinkMessage) error {
	_, err := s.insert.Exec(
		msg.AppID, msg.DevID, msg.HardwareSerial, msg.Port, msg.Counter,
		msg.Metadata.Time, msg.Metadata.Longitude, msg.Metadata.Latitude, msg.Metadata.Altitude,
		msg.Payload.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("insert uplink record: %w", err)
	}
	return nil
}

// Count returns the number of persisted uplink records.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM data").Scan(&n); err != nil {
		return 0, fmt.Errorf("count uplink records: %w", err)
	}
	return n, nil
}

// Close releases the prepared statement and the database handle.
func (s *Store) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}
