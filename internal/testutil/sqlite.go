package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	// sqlite driver for generated statements under test.
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a private in-memory database that is closed when the
// test ends. The pool holds one connection so every statement sees the
// same database.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Exec runs every statement in order and fails the test on the first
// error.
func Exec(t testing.TB, db *sql.DB, statements ...string) {
	t.Helper()

	for _, s := range statements {
		_, err := db.ExecContext(context.Background(), s)
		require.NoError(t, err, "statement:\n%s", s)
	}
}

// Strings returns the first column of every row of query as text.
func Strings(t testing.TB, db *sql.DB, query string) []string {
	t.Helper()

	rows, err := db.QueryContext(context.Background(), query)
	require.NoError(t, err, "query:\n%s", query)
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	require.NoError(t, err)

	out := []string{}
	for rows.Next() {
		dest := make([]any, len(cols))
		var first sql.NullString
		dest[0] = &first
		for i := 1; i < len(cols); i++ {
			dest[i] = new(any)
		}
		require.NoError(t, rows.Scan(dest...))
		out = append(out, first.String)
	}
	require.NoError(t, rows.Err())
	return out
}
