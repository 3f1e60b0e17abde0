package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgen/internal/config"
	"github.com/leapstack-labs/sqlgen/internal/testutil"
)

var (
	ordersDoc = filepath.Join("testdata", "orders.yaml")
	applyDoc  = filepath.Join("testdata", "apply.yaml")
)

func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(config.NewContext(t.Context(), cfg, testutil.NewTestLogger(t)))
	return buf.String(), err
}

func textConfig(dialectName string) *config.Config {
	return &config.Config{DialectName: dialectName, Output: config.OutputText}
}

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "sqlite",
			dialect: "sqlite",
			args:    []string{ordersDoc},
			want: []string{
				"-- recent\n", "o.CustomerId = 7", "LIMIT 10", "OFFSET 20",
				"-- place\n", "SELECT last_insert_rowid()",
			},
			notWant: []string{"-- file:"},
		},
		{
			name:    "mssql emulates skip",
			dialect: "mssql",
			args:    []string{ordersDoc},
			want:    []string{"ROW_NUMBER() OVER (ORDER BY", "SCOPE_IDENTITY()"},
		},
		{
			name:    "single statement",
			dialect: "sqlite",
			args:    []string{ordersDoc, "--statement", "place"},
			want:    []string{"-- place\n"},
			notWant: []string{"-- recent"},
		},
		{
			name:    "several files",
			dialect: "mssql",
			args:    []string{ordersDoc, applyDoc},
			want:    []string{"-- file: " + ordersDoc, "-- file: " + applyDoc, "CROSS APPLY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewRenderCommand(), textConfig(tt.dialect), tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestRenderCommandJSON(t *testing.T) {
	cfg := &config.Config{DialectName: "sqlite", Output: config.OutputJSON}
	out, err := execute(t, NewRenderCommand(), cfg, ordersDoc)
	require.NoError(t, err)

	var files []RenderedFile
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "sqlite", files[0].Dialect)
	require.Len(t, files[0].Statements, 2)
	assert.Equal(t, "recent", files[0].Statements[0].Name)
	assert.Len(t, files[0].Statements[0].Commands, 1)
	assert.Len(t, files[0].Statements[1].Commands, 2)
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		args    []string
		want    string
	}{
		{name: "missing file", dialect: "sqlite", args: []string{filepath.Join("testdata", "missing.yaml")}, want: "failed to read query document"},
		{name: "unknown statement", dialect: "sqlite", args: []string{ordersDoc, "-s", "nope"}, want: "no statement named nope"},
		{name: "unsupported apply join", dialect: "sqlite", args: []string{applyDoc}, want: "apply joins are not supported by the 'sqlite' dialect"},
		{name: "unknown dialect", dialect: "oracle", args: []string{ordersDoc}, want: "unknown dialect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewRenderCommand(), textConfig(tt.dialect), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	t.Run("all dialects pass", func(t *testing.T) {
		out, err := execute(t, NewCheckCommand(), textConfig("sqlite"), ordersDoc, "--dialects", "sqlite,mssql,postgres")
		require.NoError(t, err)
		assert.Contains(t, out, "Mssql")
		assert.Contains(t, out, "Postgres")
		assert.Contains(t, out, "recent")
	})

	t.Run("failures are reported", func(t *testing.T) {
		cfg := &config.Config{DialectName: "sqlite", Output: config.OutputJSON}
		out, err := execute(t, NewCheckCommand(), cfg, applyDoc, "--dialects", "sqlite,mssql")
		require.ErrorIs(t, err, ErrCheckFailed)

		var results []CheckResult
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 2)
		assert.Equal(t, "sqlite", results[0].Dialect)
		assert.Contains(t, results[0].Error, "apply joins")
		assert.Equal(t, "mssql", results[1].Dialect)
		assert.Empty(t, results[1].Error)
		assert.Equal(t, 1, results[1].Commands)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := execute(t, NewCheckCommand(), textConfig("sqlite"), ordersDoc, "--dialects", "oracle")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown dialect")
	})
}

func TestDialectsCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, err := execute(t, NewDialectsCommand(), textConfig("sqlite"))
		require.NoError(t, err)
		for _, want := range []string{"NAME", "MULTI-TABLE UPDATE", "MAX IN LIST", "access", "mssql2005", "row-number", "nested-top", "on-conflict"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("json with overrides", func(t *testing.T) {
		limit := 5
		cfg := &config.Config{
			DialectName: "mssql",
			Output:      config.OutputJSON,
			Flags:       config.FlagOverrides{MaxInListValues: &limit},
		}
		out, err := execute(t, NewDialectsCommand(), cfg)
		require.NoError(t, err)

		var infos []DialectInfo
		require.NoError(t, json.Unmarshal([]byte(out), &infos))
		byName := make(map[string]DialectInfo, len(infos))
		for _, info := range infos {
			byName[info.Name] = info
		}
		assert.Equal(t, 5, byName["mssql"].MaxInListValues)
		assert.NotEqual(t, 5, byName["mssql2005"].MaxInListValues)
		assert.Equal(t, "merge", byName["mssql"].Upsert)
		assert.Equal(t, "inline", byName["mssql"].Identity)
		assert.True(t, byName["mssql"].ApplyJoin)
		assert.Equal(t, "second command", byName["sqlite"].Identity)
	})
}

func TestRunCommand(t *testing.T) {
	people := filepath.Join("..", "..", "querydoc", "testdata", "people.yaml")

	t.Run("executes the document in order", func(t *testing.T) {
		cfg := &config.Config{DialectName: "sqlite", Output: config.OutputJSON}
		dsn := filepath.Join(t.TempDir(), "people.db")
		out, err := execute(t, NewRunCommand(), cfg, people, "--dsn", dsn)
		require.NoError(t, err)

		var outputs []RunOutput
		require.NoError(t, json.Unmarshal([]byte(out), &outputs))
		byName := make(map[string]RunOutput, len(outputs))
		for _, o := range outputs {
			byName[o.Name] = o
		}
		require.Len(t, byName, len(outputs))

		assert.EqualValues(t, 1, byName["seed_a"].RowsAffected)
		assert.EqualValues(t, 3, byName["seed_sales"].RowsAffected)
		totals := byName["totals"]
		require.Len(t, totals.Rows, 2)
		assert.Equal(t, "a", totals.Rows[0][0])
		assert.Equal(t, "c", totals.Rows[1][0])
	})

	t.Run("text output and configured dsn", func(t *testing.T) {
		cfg := textConfig("sqlite")
		cfg.DSN = filepath.Join(t.TempDir(), "people.db")
		out, err := execute(t, NewRunCommand(), cfg, people,
			"-s", "create_person", "-s", "seed_a", "-s", "seed_b", "-s", "adults")
		require.NoError(t, err)
		assert.Contains(t, out, "-- seed_a\n1 row(s) affected\n")
		assert.Contains(t, out, "-- adults\n")
		assert.Contains(t, out, "NAME")
		assert.NotContains(t, out, "-- totals")
	})

	t.Run("no dsn", func(t *testing.T) {
		_, err := execute(t, NewRunCommand(), textConfig("sqlite"), people)
		require.ErrorIs(t, err, ErrNoDSN)
	})

	t.Run("dialect without driver", func(t *testing.T) {
		_, err := execute(t, NewRunCommand(), textConfig("access"), people, "--dsn", "x.mdb")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no database driver for dialect "access"`)
	})
}
