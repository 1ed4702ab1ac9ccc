package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite history store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and runs pending
// migrations. Use ":memory:" for an in-memory database. Parent directories
// of a file path are created as needed.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("opening history database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func generateID() string {
	return uuid.New().String()
}

// CreatePass records the start of a reconciliation pass.
func (s *SQLiteStore) CreatePass(target, driver string) (*Pass, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	p := &Pass{
		ID:        generateID(),
		Target:    target,
		Driver:    driver,
		Status:    PassStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating pass", slog.String("id", p.ID), slog.String("target", target))

	_, err := s.db.Exec(
		`INSERT INTO passes (id, target, driver, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Target, p.Driver, string(p.Status), p.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}
	return p, nil
}

// CompletePass marks a pass as finished with the given status and totals.
func (s *SQLiteStore) CompletePass(id string, status PassStatus, tables, statements int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE passes SET status = ?, completed_at = ?, tables = ?, statements = ?, error = ? WHERE id = ?`,
		string(status), now, tables, statements, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete pass: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("pass not found: %s", id)
	}
	return nil
}

// RecordStatement records one executed (or failed) DDL statement.
func (s *SQLiteStore) RecordStatement(passID, table, kind, sqlText string, success bool, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO statements (id, pass_id, table_name, kind, sql_text, success, error, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		generateID(), passID, table, kind, sqlText, success, errMsg, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record statement: %w", err)
	}
	return nil
}

// GetPass retrieves a pass by ID.
func (s *SQLiteStore) GetPass(id string) (*Pass, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, target, driver, status, started_at, completed_at, error, tables, statements
		 FROM passes WHERE id = ?`, id,
	)
	p, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pass not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return p, nil
}

// ListPasses returns the most recent passes, newest first.
// A limit of 0 or less returns all passes.
func (s *SQLiteStore) ListPasses(limit int) ([]*Pass, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT id, target, driver, status, started_at, completed_at, error, tables, statements
		 FROM passes ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list passes: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListStatements returns the statements of a pass in execution order.
func (s *SQLiteStore) ListStatements(passID string) ([]*StatementRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, pass_id, table_name, kind, sql_text, success, error, executed_at
		 FROM statements WHERE pass_id = ? ORDER BY executed_at, id`, passID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*StatementRecord
	for rows.Next() {
		var (
			r       StatementRecord
			errText sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.PassID, &r.Table, &r.Kind, &r.SQL, &r.Success, &errText, &r.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to list statements: %w", err)
		}
		r.Error = errText.String
		out = append(out, &r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (*Pass, error) {
	var (
		p         Pass
		status    string
		completed sql.NullTime
		errText   sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Target, &p.Driver, &status, &p.StartedAt, &completed, &errText, &p.Tables, &p.Statements); err != nil {
		return nil, err
	}
	p.Status = PassStatus(status)
	if completed.Valid {
		t := completed.Time
		p.CompletedAt = &t
	}
	p.Error = errText.String
	return &p, nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
