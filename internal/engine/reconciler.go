// Package engine orchestrates schema reconciliation: it loads the declared
// tables, introspects the live database, diffs the two, and executes the
// corrective DDL per table.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/convergelabs/schemasync/internal/loader"
	"github.com/convergelabs/schemasync/internal/state"
	"github.com/convergelabs/schemasync/pkg/adapter"
	"github.com/convergelabs/schemasync/pkg/core"
)

// Reconciler drives reconciliation passes against one target database.
type Reconciler struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    core.ConnConfig
	dbConnected bool
	dbMu        sync.Mutex

	logger *slog.Logger
	store  state.Store

	schemasDir string
	target     string
}

// Config holds reconciler configuration.
type Config struct {
	// SchemasDir is the path to the declared table definitions.
	SchemasDir string
	// StatePath is the path to the SQLite history database.
	StatePath string
	// Target names the environment being reconciled (for history records).
	Target string
	// Conn is the target database connection configuration.
	Conn core.ConnConfig
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates a reconciler with a lazy database connection. The adapter is
// only connected when Plan or Apply runs.
func New(cfg Config) (*Reconciler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing reconciler",
		slog.String("schemas_dir", cfg.SchemasDir),
		slog.String("target", cfg.Target))

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	db, err := adapter.New(cfg.Conn, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Reconciler{
		db:         db,
		dbConfig:   cfg.Conn,
		logger:     logger,
		store:      store,
		schemasDir: cfg.SchemasDir,
		target:     cfg.Target,
	}, nil
}

// Store exposes the history store for read-only commands.
func (r *Reconciler) Store() state.Store { return r.store }

// Close releases the database connection and the history store.
func (r *Reconciler) Close() error {
	r.dbMu.Lock()
	if r.dbConnected {
		_ = r.db.Close()
		r.dbConnected = false
	}
	r.dbMu.Unlock()
	return r.store.Close()
}

func (r *Reconciler) ensureConnected(ctx context.Context) error {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()
	if r.dbConnected {
		return nil
	}
	if err := r.db.Connect(ctx, r.dbConfig); err != nil {
		return err
	}
	r.dbConnected = true
	return nil
}

// Plan loads the declared schema, introspects the target and returns the
// corrective statements without executing anything.
func (r *Reconciler) Plan(ctx context.Context) (*Plan, error) {
	tables, err := loader.LoadDir(r.schemasDir)
	if err != nil {
		return nil, err
	}
	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}

	liveNames, err := r.liveTableSet(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, t := range tables {
		tp, err := r.planTable(ctx, t, liveNames)
		if err != nil {
			return nil, fmt.Errorf("planning table %s: %w", t.Name, err)
		}
		plan.Tables = append(plan.Tables, tp)
	}
	return plan, nil
}

func (r *Reconciler) liveTableSet(ctx context.Context) (map[string]bool, error) {
	names, err := r.db.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set, nil
}

// TableResult is the applied outcome for one table.
type TableResult struct {
	Table      string
	State      TableState
	Statements []Statement
	Skipped    []string
	Err        error
}

// PassResult is the outcome of one Apply call.
type PassResult struct {
	PassID string
	Tables []TableResult
	// Failed counts tables whose statements errored.
	Failed int
}

// Apply plans and executes a reconciliation pass. A failing statement
// marks its table failed and is recorded, but the pass continues with the
// remaining tables; only connection-level errors abort the pass.
func (r *Reconciler) Apply(ctx context.Context) (*PassResult, error) {
	plan, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	pass, err := r.store.CreatePass(r.target, r.db.Dialect().Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	r.logger.Info("starting pass",
		slog.String("pass_id", pass.ID),
		slog.String("target", r.target),
		slog.Int("tables", len(plan.Tables)))

	result := &PassResult{PassID: pass.ID}
	executed := 0

	for _, tp := range plan.Tables {
		tr := TableResult{
			Table:      tp.Table,
			State:      tp.State,
			Statements: tp.Statements,
			Skipped:    tp.Skipped,
		}

		for _, stmt := range tp.Statements {
			_, execErr := r.db.Exec(ctx, stmt.SQL)
			executed++

			errMsg := ""
			if execErr != nil {
				errMsg = execErr.Error()
			}
			if recErr := r.store.RecordStatement(pass.ID, stmt.Table, string(stmt.Kind), stmt.SQL, execErr == nil, errMsg); recErr != nil {
				r.logger.Warn("failed to record statement", slog.String("error", recErr.Error()))
			}

			if execErr != nil {
				r.logger.Error("statement failed",
					slog.String("table", stmt.Table),
					slog.String("kind", string(stmt.Kind)),
					slog.String("error", execErr.Error()))
				tr.State = TableFailed
				tr.Err = execErr
				result.Failed++
				break
			}
			r.logger.Debug("statement executed",
				slog.String("table", stmt.Table),
				slog.String("kind", string(stmt.Kind)))
		}

		result.Tables = append(result.Tables, tr)
	}

	status := state.PassStatusCompleted
	errMsg := ""
	if result.Failed > 0 {
		status = state.PassStatusFailed
		errMsg = fmt.Sprintf("%d table(s) failed", result.Failed)
	}
	if err := r.store.CompletePass(pass.ID, status, len(plan.Tables), executed, errMsg); err != nil {
		r.logger.Warn("failed to complete pass record", slog.String("error", err.Error()))
	}

	r.logger.Info("pass finished",
		slog.String("pass_id", pass.ID),
		slog.String("status", string(status)),
		slog.Int("statements", executed))
	return result, nil
}
