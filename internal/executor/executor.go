// Package executor runs compiled queries against a database/sql connection.
//
// The executor is the collaborator that consumes a compiler.CompiledQuery:
// it compiles a node tree for its dialect, sends the SQL and parameters to
// the driver unchanged, and collects rows or affected-row counts.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// ErrNestedTransaction is returned by Transaction on an executor that is
// already bound to a transaction.
var ErrNestedTransaction = errors.New("transaction already in progress")

// Query is anything that yields a node tree. Every builder implements it.
type Query interface {
	Node() (node.Node, error)
}

// Result is the outcome of one execution.
//
// Rows is set for statements that return rows (SELECT, RETURNING, row
// returning raw SQL). NumAffectedRows is the driver's affected-row count, or
// the number of returned rows for RETURNING statements. InsertID is set when
// the driver reports a last insert id for an INSERT.
type Result struct {
	ExecutionID     string           `json:"execution_id"`
	Rows            []map[string]any `json:"rows,omitempty"`
	NumAffectedRows int64            `json:"num_affected_rows"`
	InsertID        *int64           `json:"insert_id,omitempty"`
}

// IDGenerator produces execution ids for log correlation.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 execution ids.
type UUIDv7Generator struct{}

// Generate implements IDGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor executes queries for one dialect.
//
// Thread-safety: an Executor on a *sql.DB is safe for concurrent use. The
// executor passed to a Transaction callback is bound to that transaction and
// must not outlive it.
type Executor struct {
	db       *sql.DB
	q        querier
	compiler *compiler.SQLCompiler
	logger   *slog.Logger
	ids      IDGenerator
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator sets the execution id source. The default generates UUIDv7s.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Executor) {
		if g != nil {
			e.ids = g
		}
	}
}

// New creates an executor on db. A nil dialect selects dialect.Generic,
// which compiles but names no driver of its own; the caller's db decides
// what the SQL runs against.
func New(db *sql.DB, d dialect.Dialect, opts ...Option) *Executor {
	e := &Executor{
		db:       db,
		q:        db,
		compiler: compiler.New(d),
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the dialect queries are compiled for.
func (e *Executor) Dialect() dialect.Dialect {
	return e.compiler.Dialect()
}

// Compile compiles q for the executor's dialect without running it.
func (e *Executor) Compile(q Query) (*compiler.CompiledQuery, error) {
	root, err := q.Node()
	if err != nil {
		return nil, err
	}
	return e.compiler.Compile(root)
}

// Execute compiles q and runs it.
//
// Only statements (SELECT, INSERT, UPDATE, DELETE) and raw SQL can be
// executed; other fragments are rejected before reaching the database.
func (e *Executor) Execute(ctx context.Context, q Query) (*Result, error) {
	root, err := q.Node()
	if err != nil {
		return nil, err
	}

	kind, err := statementKind(root)
	if err != nil {
		return nil, err
	}

	compiled, err := e.compiler.Compile(root)
	if err != nil {
		return nil, err
	}

	return e.run(ctx, kind, returnsRows(root), compiled)
}

// Transaction runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, also when fn
// panics (the panic is re-raised after the rollback).
func (e *Executor) Transaction(ctx context.Context, fn func(tx *Executor) error) error {
	if e.db == nil {
		return ErrNestedTransaction
	}

	sqlTx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &Executor{
		q:        sqlTx,
		compiler: e.compiler,
		logger:   e.logger,
		ids:      e.ids,
	}

	// Rollback unless committed, including when fn panics
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Error("transaction rollback failed", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (e *Executor) run(ctx context.Context, kind string, rowsExpected bool, compiled *compiler.CompiledQuery) (*Result, error) {
	dialectName := e.Dialect().Name()
	res := &Result{ExecutionID: e.ids.Generate()}
	logger := e.logger.With(
		"execution_id", res.ExecutionID,
		"dialect", dialectName,
		"kind", kind,
	)

	logger.Debug("executing query",
		"sql", compiled.SQL,
		"params", len(compiled.Parameters),
		"fingerprint", compiled.Fingerprint(),
	)

	start := time.Now()
	var err error
	if rowsExpected {
		err = e.query(ctx, compiled, res)
	} else {
		err = e.exec(ctx, kind, compiled, res)
	}
	elapsed := time.Since(start)

	executionDuration.WithLabelValues(dialectName, kind).Observe(elapsed.Seconds())
	if err != nil {
		executionsTotal.WithLabelValues(dialectName, kind, resultError).Inc()
		logger.Error("query failed", "sql", compiled.SQL, "error", err)
		return nil, fmt.Errorf("execute %s: %w", kind, err)
	}

	executionsTotal.WithLabelValues(dialectName, kind, resultSuccess).Inc()
	if rowsExpected {
		rowsReturned.WithLabelValues(dialectName, kind).Observe(float64(len(res.Rows)))
	}
	logger.Info("query executed",
		"rows", len(res.Rows),
		"affected", res.NumAffectedRows,
		"duration", elapsed,
	)
	return res, nil
}

func (e *Executor) query(ctx context.Context, compiled *compiler.CompiledQuery, res *Result) error {
	rows, err := e.q.QueryContext(ctx, compiled.SQL, compiled.Parameters...)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	res.Rows = []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}

	res.NumAffectedRows = int64(len(res.Rows))
	return nil
}

func (e *Executor) exec(ctx context.Context, kind string, compiled *compiler.CompiledQuery, res *Result) error {
	out, err := e.q.ExecContext(ctx, compiled.SQL, compiled.Parameters...)
	if err != nil {
		return err
	}

	affected, err := out.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	res.NumAffectedRows = affected

	if kind == "insert" {
		// Not every driver reports one (lib/pq never does).
		if id, err := out.LastInsertId(); err == nil {
			res.InsertID = &id
		}
	}
	return nil
}

// normalize converts driver text results to strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func statementKind(root node.Node) (string, error) {
	switch root.(type) {
	case *node.SelectQueryNode:
		return "select", nil
	case *node.InsertQueryNode:
		return "insert", nil
	case *node.UpdateQueryNode:
		return "update", nil
	case *node.DeleteQueryNode:
		return "delete", nil
	case *node.RawNode:
		return "raw", nil
	}
	return "", fmt.Errorf("cannot execute a %s: not a statement", node.KindOf(root))
}

// rowPrefixes are the leading keywords of raw SQL that returns rows.
var rowPrefixes = []string{"SELECT", "WITH", "VALUES", "PRAGMA", "SHOW", "EXPLAIN"}

func returnsRows(root node.Node) bool {
	switch n := root.(type) {
	case *node.SelectQueryNode:
		return true
	case *node.InsertQueryNode:
		return len(n.Returning()) > 0
	case *node.UpdateQueryNode:
		return len(n.Returning()) > 0
	case *node.DeleteQueryNode:
		return len(n.Returning()) > 0
	case *node.RawNode:
		text := strings.ToUpper(strings.TrimSpace(n.SQL()))
		for _, prefix := range rowPrefixes {
			if strings.HasPrefix(text, prefix) {
				return true
			}
		}
		return strings.Contains(text+" ", " RETURNING ")
	}
	return false
}
