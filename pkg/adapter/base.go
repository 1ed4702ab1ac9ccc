package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/convergelabs/schemasync/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec and query helpers.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.ConnConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Exec executes one statement as a scoped transaction: begin before the
// statement, commit on success, roll back and propagate on failure. The
// connection never holds a half-applied statement for the caller to observe.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) (int64, error) {
	if b.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, &core.ExecutionError{SQL: sqlStr, Err: fmt.Errorf("begin: %w", err)}
	}

	res, err := tx.ExecContext(ctx, sqlStr)
	if err != nil {
		_ = tx.Rollback()
		return 0, &core.ExecutionError{SQL: sqlStr, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &core.ExecutionError{SQL: sqlStr, Err: fmt.Errorf("commit: %w", err)}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// DDL on some drivers reports no row count; not an error.
		return 0, nil
	}
	return affected, nil
}

// QueryStrings runs a query whose result is a single string column.
func (b *BaseSQLAdapter) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
