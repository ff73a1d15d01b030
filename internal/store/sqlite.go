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

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Expansion is one recorded render pass.
type Expansion struct {
	ID        int64
	Timestamp time.Time
	Trigger   string
	Source    string
	OK        bool
	Error     string
	OutputLen int
	Variables int
	Duration  time.Duration
}

// Stats summarises the history of one trigger.
type Stats struct {
	Trigger  string
	Count    int
	Failures int
	Last     time.Time
}

// Store represents the SQLite history store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The render path records from one goroutine at a time; a single
	// connection avoids SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// Record inserts e and returns its ID.
func (s *Store) Record(ctx context.Context, e *Expansion) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO expansions (timestamp_ns, trigger_text, source, ok, error, output_len, duration_ns, variables)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UnixNano(), e.Trigger, e.Source, e.OK, nullString(e.Error), e.OutputLen, int64(e.Duration), e.Variables,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expansion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	return id, nil
}

// Recent returns up to limit expansions, newest first. A non-empty
// trigger restricts the result to that trigger.
func (s *Store) Recent(ctx context.Context, trigger string, limit int) ([]Expansion, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, timestamp_ns, trigger_text, COALESCE(source, ''), ok, COALESCE(error, ''), output_len, variables, duration_ns
		FROM expansions`
	args := []any{}
	if trigger != "" {
		query += ` WHERE trigger_text = ?`
		args = append(args, trigger)
	}
	query += ` ORDER BY timestamp_ns DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expansions: %w", err)
	}
	defer rows.Close()

	var out []Expansion
	for rows.Next() {
		var (
			e       Expansion
			ts, dur int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Trigger, &e.Source, &e.OK, &e.Error, &e.OutputLen, &e.Variables, &dur); err != nil {
			return nil, fmt.Errorf("scan expansion: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.Duration = time.Duration(dur)
		out = append(out, e)
	}
	return out, rows.Err()
}

// TriggerStats aggregates the history per trigger, most used first.
func (s *Store) TriggerStats(ctx context.Context) ([]Stats, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT trigger_text, COUNT(*), SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), MAX(timestamp_ns)
		FROM expansions
		GROUP BY trigger_text
		ORDER BY COUNT(*) DESC, trigger_text`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var (
			st   Stats
			last int64
		)
		if err := rows.Scan(&st.Trigger, &st.Count, &st.Failures, &last); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Last = time.Unix(0, last)
		out = append(out, st)
	}
	return out, rows.Err()
}

// Prune deletes expansions older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM expansions WHERE timestamp_ns < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune expansions: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
