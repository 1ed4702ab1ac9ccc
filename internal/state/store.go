// Package state persists reconciliation history using SQLite.
// It tracks passes (one run of the reconciler against a target) and the
// DDL statements each pass executed, so that "what changed when" survives
// process restarts.
package state

import "time"

// PassStatus describes the lifecycle of a reconciliation pass.
type PassStatus string

const (
	PassStatusRunning   PassStatus = "running"
	PassStatusCompleted PassStatus = "completed"
	PassStatusFailed    PassStatus = "failed"
)

// Pass is one reconciliation run against a target database.
type Pass struct {
	ID          string
	Target      string
	Driver      string
	Status      PassStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Tables      int
	Statements  int
}

// StatementRecord is one DDL statement executed (or attempted) during a pass.
type StatementRecord struct {
	ID         string
	PassID     string
	Table      string
	Kind       string
	SQL        string
	Success    bool
	Error      string
	ExecutedAt time.Time
}

// Store is the persistence interface for reconciliation history.
type Store interface {
	CreatePass(target, driver string) (*Pass, error)
	CompletePass(id string, status PassStatus, tables, statements int, errMsg string) error
	RecordStatement(passID, table, kind, sqlText string, success bool, errMsg string) error
	GetPass(id string) (*Pass, error)
	ListPasses(limit int) ([]*Pass, error)
	ListStatements(passID string) ([]*StatementRecord, error)
	Close() error
}
