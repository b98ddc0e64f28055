package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/mutker/kettlectl/internal/errors"
	"codeberg.org/mutker/kettlectl/internal/logger"
)

const (
	schemaVersion  = 1
	defaultDirPerm = 0o755

	// Telemetry rows buffered before a batched insert.
	sampleBatchSize = 60

	setpointKey = "heating_setpoint"
)

const createTablesSQL = `
   CREATE TABLE IF NOT EXISTS schema_versions (
       version     INTEGER PRIMARY KEY,
       applied_at  TEXT NOT NULL
   );
   CREATE TABLE IF NOT EXISTS settings (
       key         TEXT PRIMARY KEY,
       value       INTEGER NOT NULL,
       updated_at  TEXT NOT NULL
   );
   CREATE TABLE IF NOT EXISTS samples (
       timestamp      INTEGER NOT NULL,
       temp_current   INTEGER NOT NULL,
       temp_target    INTEGER NOT NULL,
       heating        INTEGER NOT NULL CHECK (heating IN (0, 1))
   );`

type sample struct {
	at      time.Time
	current int16
	target  int16
	heating bool
}

type sqliteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	buffer []sample
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (Store, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.WithMessage(errors.ErrStoreInit, "database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(errors.ErrStoreInit, err)
	}

	dsn := path + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrStoreInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", path).
		Int("schema_version", schemaVersion).
		Msg("State store opened")

	return &sqliteStore{
		db:     db,
		buffer: make([]sample, 0, sampleBatchSize),
	}, nil
}

func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(errors.ErrStoreInit, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback schema transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(errors.ErrStoreInit, err)
	}
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		schemaVersion, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return errFactory.Wrap(errors.ErrStoreInit, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(errors.ErrStoreInit, err)
	}
	committed = true

	return nil
}

func (s *sqliteStore) LoadSetpoint() (int16, bool, error) {
	var value int64
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, setpointKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.New().Wrap(errors.ErrStoreRead, err)
	}

	return int16(value), true, nil
}

func (s *sqliteStore) SaveSetpoint(value int16) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		setpointKey, int64(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.New().Wrap(errors.ErrStoreWrite, err)
	}

	return nil
}

func (s *sqliteStore) RecordSample(at time.Time, current, target int16, heating bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, sample{at: at, current: current, target: target, heating: heating})
	if len(s.buffer) < sampleBatchSize {
		return nil
	}

	return s.flush()
}

// flush writes the buffered samples in one transaction. Caller holds the
// mutex.
func (s *sqliteStore) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}
	errFactory := errors.New()

	tx, err := s.db.Begin()
	if err != nil {
		return errFactory.Wrap(errors.ErrStoreWrite, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO samples (timestamp, temp_current, temp_target, heating) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errFactory.Wrap(errors.ErrStoreWrite, err)
	}
	defer stmt.Close()

	for i := range s.buffer {
		row := &s.buffer[i]
		heating := 0
		if row.heating {
			heating = 1
		}
		if _, err := stmt.Exec(row.at.Unix(), int64(row.current), int64(row.target), heating); err != nil {
			tx.Rollback()
			return errFactory.Wrap(errors.ErrStoreWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(errors.ErrStoreWrite, err)
	}

	logger.Debug().Int("rows", len(s.buffer)).Msg("Flushed telemetry samples")
	s.buffer = s.buffer[:0]

	return nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	errFactory := errors.New()

	if err := s.flush(); err != nil {
		logger.Warn().Err(err).Msg("Failed to flush samples on close")
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		logger.Debug().Err(err).Msg("WAL checkpoint failed on close")
	}
	if err := s.db.Close(); err != nil {
		return errFactory.Wrap(errors.ErrStoreClose, err)
	}

	return nil
}
