package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownSession is returned when ending a session that was never started.
var ErrUnknownSession = errors.New("unknown session")

// Store is the SQLite usage journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StartSession records the start of an engine session.
func (s *Store) StartSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_ns) VALUES (?, ?)`,
		id, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EndSession marks a session as finished.
func (s *Store) EndSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_ns = ? WHERE id = ?`,
		at.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrUnknownSession)
	}
	return nil
}

// RecordUsage counts one commit of text for code.
func (s *Store) RecordUsage(ctx context.Context, session, code, text string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO usage (code, text, hits, last_used_ns) VALUES (?, ?, 1, ?)
		ON CONFLICT(code, text) DO UPDATE SET
			hits = hits + 1,
			last_used_ns = MAX(last_used_ns, excluded.last_used_ns)`,
		code, text, at.UnixNano(),
	); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	if session != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET commits = commits + 1 WHERE id = ?`, session,
		); err != nil {
			return fmt.Errorf("count commit: %w", err)
		}
	}

	return tx.Commit()
}

// TopUsage returns the most used entries, most hits first.
func (s *Store) TopUsage(ctx context.Context, limit int) ([]Usage, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, text, hits, last_used_ns FROM usage
		ORDER BY hits DESC, last_used_ns DESC, code
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var u Usage
		var lastNs int64
		if err := rows.Scan(&u.Code, &u.Text, &u.Hits, &lastNs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.LastUsed = time.Unix(0, lastNs)
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetSession returns a session, or nil if it does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var (
		sess    Session
		started int64
		ended   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_ns, ended_ns, commits FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &started, &ended, &sess.Commits)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.Started = time.Unix(0, started)
	if ended.Valid {
		t := time.Unix(0, ended.Int64)
		sess.Ended = &t
	}
	return &sess, nil
}

// Verify runs SQLite's integrity check and the schema check.
func (s *Store) Verify(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return ValidateSchema(s.db)
}
