package core

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDDL is returned by adapters when the dialect has no form
// for the requested statement (e.g. ALTER COLUMN on SQLite). The reconciler
// skips such statements instead of failing the table.
var ErrUnsupportedDDL = errors.New("statement form not supported by dialect")

// ConnectionError reports a failure to establish a database connection:
// missing driver, authentication failure, or unreachable host. It is fatal
// for the whole reconciliation run.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed (%s): %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError reports a malformed or failed metadata query. The
// reconciler logs it and treats the table as absent to force a safe CREATE.
type IntrospectionError struct {
	Table string
	Query string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspection failed for table %s: %v", e.Table, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ExecutionError reports a rendered DDL/DML statement that failed. The
// statement's transaction is rolled back; the error is table-scoped and
// sibling tables continue processing.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v (statement: %s)", e.Err, e.SQL)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
