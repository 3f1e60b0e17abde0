package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("dialect", "", "")
	fs.String("output", "", "")
	fs.Bool("verbose", false, "")
	fs.Int("max-in-list", 0, "")
	fs.String("config", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.DialectName)
	assert.Equal(t, OutputText, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.Flags.IsZero())
	assert.Empty(t, cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, `
dialect: mssql
output: json
dsn: file.db
flags:
  max_in_list_values: 100
  subquery_column: false
`)

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		wantDialect string
		wantOutput  string
		wantMaxIn   int
	}{
		{
			name:        "file",
			wantDialect: "mssql",
			wantOutput:  OutputJSON,
			wantMaxIn:   100,
		},
		{
			name:        "env over file",
			env:         map[string]string{"SQLGEN_DIALECT": "Postgres", "SQLGEN_FLAGS_MAX_IN_LIST_VALUES": "7"},
			wantDialect: "postgres",
			wantOutput:  OutputJSON,
			wantMaxIn:   7,
		},
		{
			name:        "flags over env",
			env:         map[string]string{"SQLGEN_DIALECT": "postgres", "SQLGEN_OUTPUT": "text"},
			args:        []string{"--dialect", "access", "--max-in-list", "3"},
			wantDialect: "access",
			wantOutput:  OutputText,
			wantMaxIn:   3,
		},
		{
			name:        "unset flags do not override",
			args:        []string{"--verbose"},
			wantDialect: "mssql",
			wantOutput:  OutputJSON,
			wantMaxIn:   100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(dir, "", testFlags(t, tt.args...))
			require.NoError(t, err)

			assert.Equal(t, tt.wantDialect, cfg.DialectName)
			assert.Equal(t, tt.wantOutput, cfg.Output)
			require.NotNil(t, cfg.Flags.MaxInListValues)
			assert.Equal(t, tt.wantMaxIn, *cfg.Flags.MaxInListValues)
			require.NotNil(t, cfg.Flags.SubQueryColumn)
			assert.False(t, *cfg.Flags.SubQueryColumn)
			assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.File)
			assert.Equal(t, "file.db", cfg.DSN)
		})
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "custom.yml", "dialect: mssql2005\n")
	cfg, err := Load(t.TempDir(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "mssql2005", cfg.DialectName)
	assert.Equal(t, path, cfg.File)

	_, err = Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadInvalidOutput(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileNameAlt, "output: xml\n")

	_, err := LoadFromDir(dir)
	require.ErrorIs(t, err, ErrInvalidOutput)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Empty(t, FindProjectRoot(nested))

	writeConfig(t, root, ConfigFileNameAlt, "dialect: sqlite\n")
	assert.Equal(t, root, FindProjectRoot(nested))

	cfg, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigFileNameAlt), cfg.File)
}

func TestDialect(t *testing.T) {
	t.Run("registered dialect is shared without overrides", func(t *testing.T) {
		cfg := &Config{DialectName: "sqlite", Output: OutputText}
		d, err := cfg.Dialect()
		require.NoError(t, err)

		registered, ok := dialect.Get("sqlite")
		require.True(t, ok)
		assert.Same(t, registered, d)
	})

	t.Run("overrides copy the dialect", func(t *testing.T) {
		off, limit := false, 2
		cfg := &Config{
			DialectName: "mssql",
			Flags:       FlagOverrides{MaxInListValues: &limit, MultiTableDelete: &off},
		}
		d, err := cfg.Dialect()
		require.NoError(t, err)
		assert.Equal(t, 2, d.Flags.MaxInListValuesCount)
		assert.False(t, d.Flags.IsMultiTableDeleteSupported)

		registered, _ := dialect.Get("mssql")
		assert.True(t, registered.Flags.IsMultiTableDeleteSupported)
		assert.NotEqual(t, 2, registered.Flags.MaxInListValuesCount)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := (&Config{DialectName: "oracle"}).Dialect()
		require.ErrorIs(t, err, dialect.ErrUnknownDialect)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("empty dialect", func(t *testing.T) {
		_, err := (&Config{}).Dialect()
		require.ErrorIs(t, err, dialect.ErrDialectRequired)
	})
}

func TestContext(t *testing.T) {
	ctx := t.Context()
	assert.Equal(t, DefaultDialect, FromContext(ctx).DialectName)

	var buf bytes.Buffer
	cfg := &Config{DialectName: "mssql", Output: OutputJSON}
	ctx = NewContext(ctx, cfg, NewLogger(&buf, false))
	assert.Same(t, cfg, FromContext(ctx))

	GetLogger(ctx).Debug("hidden")
	GetLogger(ctx).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
