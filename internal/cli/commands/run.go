package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlgen/internal/adapter"
	"github.com/leapstack-labs/sqlgen/internal/config"
	"github.com/leapstack-labs/sqlgen/internal/querydoc"
)

// ErrNoDSN is returned by run when no database is configured.
var ErrNoDSN = errors.New("no database configured (use --dsn, dsn in sqlgen.yaml or SQLGEN_DSN)")

// RunOutput is the JSON output of one executed statement.
type RunOutput struct {
	Name         string   `json:"name"`
	Commands     []string `json:"commands"`
	RowsAffected int64    `json:"rows_affected"`
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		dsn  string
		only []string
	)

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute the statements of a query document against a database",
		Long: `Render the statements of a query document for the configured dialect
and execute them in document order. Each statement runs in its own
transaction; the first failure stops the run.

Only dialects with a bundled database/sql driver can be executed.`,
		Example: `  # Create, seed and query a SQLite database
  sqlgen run queries.yaml --dsn app.db

  # Execute against PostgreSQL
  sqlgen run queries.yaml -d postgres --dsn postgres://localhost/app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], dsn, only)
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Database to execute against (overrides the configured dsn)")
	cmd.Flags().StringSliceVarP(&only, "statement", "s", nil, "Execute only the named statements")
	return cmd
}

func runRun(cmd *cobra.Command, path, dsn string, only []string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	if dsn == "" {
		dsn = cfg.DSN
	}
	if dsn == "" {
		return ErrNoDSN
	}

	d, err := cfg.Dialect()
	if err != nil {
		return err
	}
	doc, err := querydoc.ReadFile(path)
	if err != nil {
		return err
	}
	stmts, err := doc.Build()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	a := adapter.New(d, logger)
	if err := a.Connect(cmd.Context(), dsn); err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var outputs []RunOutput
	for i, stmt := range stmts {
		if len(only) > 0 && !contains(only, stmt.Name) {
			continue
		}
		name := stmt.Name
		if name == "" {
			name = fmt.Sprintf("statement %d", i+1)
		}
		res, err := a.Run(cmd.Context(), stmt.Query)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		outputs = append(outputs, RunOutput{
			Name:         name,
			Commands:     res.Commands,
			RowsAffected: res.RowsAffected,
			Columns:      res.Columns,
			Rows:         res.Rows,
		})
	}

	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
	writeRunText(cmd.OutOrStdout(), outputs)
	return nil
}

func writeRunText(w io.Writer, outputs []RunOutput) {
	for i, out := range outputs {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "-- %s\n", out.Name)
		if out.Columns == nil {
			_, _ = fmt.Fprintf(w, "%d row(s) affected\n", out.RowsAffected)
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		header := make(table.Row, len(out.Columns))
		for j, c := range out.Columns {
			header[j] = c
		}
		t.AppendHeader(header)
		for _, row := range out.Rows {
			r := make(table.Row, len(row))
			for j, v := range row {
				r[j] = displayValue(v)
			}
			t.AppendRow(r)
		}
		t.Render()
	}
}

func displayValue(v any) any {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return x
	}
}
