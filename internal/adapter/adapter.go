// Package adapter executes generated statements against a database through
// database/sql. Each statement runs in its own transaction so the commands
// of a multi-command statement commit or fail together.
package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	// database/sql drivers for the dialects that can be executed.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/format"
)

// ErrNotConnected is returned when a statement runs before Connect.
var ErrNotConnected = errors.New("database connection not established")

var (
	driversMu sync.RWMutex
	drivers   = map[string]string{
		"sqlite":   "sqlite",
		"postgres": "pgx",
	}
)

// RegisterDriver maps a dialect name to the database/sql driver that
// executes its statements.
func RegisterDriver(dialectName, driverName string) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[dialectName] = driverName
}

// Driver returns the database/sql driver registered for a dialect.
func Driver(dialectName string) (string, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[dialectName]
	return d, ok
}

// Executable returns the dialects with a registered driver (sorted).
func Executable() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDriverError is returned by Connect for a dialect without a driver.
type UnknownDriverError struct {
	Dialect   string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("no database driver for dialect %q (executable dialects: %v)", e.Dialect, e.Available)
}

// Adapter runs statements for one dialect over a database connection.
type Adapter struct {
	DB      *sql.DB
	Dialect *dialect.Dialect
	Logger  *slog.Logger

	driver string
}

// New creates an adapter for d. If logger is nil, a discard logger is used.
func New(d *dialect.Dialect, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{Dialect: d, Logger: logger}
}

// Connect opens and pings the database at dsn with the dialect's driver.
func (a *Adapter) Connect(ctx context.Context, dsn string) error {
	driver, ok := Driver(a.Dialect.Name)
	if !ok {
		return &UnknownDriverError{Dialect: a.Dialect.Name, Available: Executable()}
	}

	a.Logger.Debug("connecting", slog.String("dialect", a.Dialect.Name), slog.String("driver", driver))
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	a.DB = db
	a.driver = driver
	return nil
}

// Close closes the database connection.
func (a *Adapter) Close() error {
	if a.DB != nil {
		a.Logger.Debug("closing database connection")
		return a.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (a *Adapter) IsConnected() bool {
	return a.DB != nil
}

// Result is the outcome of one statement.
type Result struct {
	Commands     []string
	RowsAffected int64
	Columns      []string
	Rows         [][]any
}

// Identity returns the generated identity read back by an INSERT, if any.
func (r *Result) Identity() (any, bool) {
	if len(r.Rows) != 1 || len(r.Rows[0]) == 0 {
		return nil, false
	}
	return r.Rows[0][0], true
}

// Run renders q for the adapter's dialect and executes its commands in one
// transaction. Rows are collected from the command that returns them: the
// SELECT itself, or the identity query of an INSERT.
func (a *Adapter) Run(ctx context.Context, q *core.Query) (*Result, error) {
	if a.DB == nil {
		return nil, ErrNotConnected
	}

	kind := q.Kind
	params := boundParameters(q)
	withIdentity := kind == core.QueryInsert && q.Insert.WithIdentity && a.Dialect.Identity != dialect.IdentityNone

	gen, err := format.Generate(q, a.Dialect, format.WithLogger(a.Logger))
	if err != nil {
		return nil, err
	}
	res := &Result{Commands: gen.Commands}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	last := len(gen.Commands) - 1
	for i, command := range gen.Commands {
		args := a.args(command, params)
		if kind == core.QuerySelect || (withIdentity && i == last) {
			if err := res.collect(ctx, tx, command, args); err != nil {
				return nil, err
			}
			continue
		}
		r, err := tx.ExecContext(ctx, command, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to execute command %d: %w", i+1, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			res.RowsAffected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	a.Logger.Debug("statement executed", "kind", kind, "commands", len(gen.Commands), "rows", len(res.Rows), "affected", res.RowsAffected)
	return res, nil
}

func (r *Result) collect(ctx context.Context, tx *sql.Tx, command string, args []any) error {
	rows, err := tx.QueryContext(ctx, command, args...)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if r.Columns, err = rows.Columns(); err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}
	for rows.Next() {
		vals := make([]any, len(r.Columns))
		dest := make([]any, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		r.Rows = append(r.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// boundParameters returns the values of the parameters q renders by name.
func boundParameters(q *core.Query) map[string]any {
	params := make(map[string]any)
	core.Walk(q, func(n core.Node) bool {
		if p, ok := n.(*core.Parameter); ok && p.IsQueryParameter {
			params[p.Name] = p.Val
		}
		return true
	})
	return params
}

// args binds the parameters command references. pgx takes them as one
// NamedArgs value; other drivers take sql.NamedArg values.
func (a *Adapter) args(command string, params map[string]any) []any {
	used := make(map[string]any)
	for name, v := range params {
		if regexp.MustCompile(`@` + regexp.QuoteMeta(name) + `\b`).MatchString(command) {
			used[name] = v
		}
	}
	if len(used) == 0 {
		return nil
	}
	if a.driver == "pgx" {
		return []any{pgx.NamedArgs(used)}
	}

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, used[name])
	}
	return args
}
