package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlgen/internal/config"
	"github.com/leapstack-labs/sqlgen/internal/querydoc"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/format"
)

// RenderedFile is the JSON output of one query document.
type RenderedFile struct {
	File       string              `json:"file"`
	Dialect    string              `json:"dialect"`
	Statements []RenderedStatement `json:"statements"`
}

// RenderedStatement holds the commands of one statement in execution order.
type RenderedStatement struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render the statements of query documents as SQL",
		Long: `Render every statement of one or more query documents for the
configured dialect.

Statements are finalized for the dialect first: paging, IN lists, derived
tables and joins it cannot express are rewritten into forms it can. A
statement may render as several commands, for example an INSERT followed by
the query reading the new identity.`,
		Example: `  # Render for SQLite (the default)
  sqlgen render queries.yaml

  # Render for SQL Server 2005 as JSON
  sqlgen render queries.yaml --dialect mssql2005 --output json

  # Render a single statement
  sqlgen render queries.yaml --statement adults`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, only)
		},
	}

	cmd.Flags().StringSliceVarP(&only, "statement", "s", nil, "Render only the named statements")
	return cmd
}

func runRender(cmd *cobra.Command, files, only []string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	d, err := cfg.Dialect()
	if err != nil {
		return err
	}

	// Documents are independent; each goroutine owns its own query trees.
	rendered := make([]RenderedFile, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := renderFile(path, d, only, logger.With("file", path))
			if err != nil {
				return err
			}
			rendered[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rendered)
	}
	return writeRenderedText(cmd.OutOrStdout(), rendered)
}

func renderFile(path string, d *dialect.Dialect, only []string, logger *slog.Logger) (RenderedFile, error) {
	out := RenderedFile{File: path, Dialect: d.Name}

	doc, err := querydoc.ReadFile(path)
	if err != nil {
		return out, err
	}
	stmts, err := doc.Build()
	if err != nil {
		return out, fmt.Errorf("%s: %w", path, err)
	}

	for i, stmt := range stmts {
		name := stmt.Name
		if name == "" {
			name = fmt.Sprintf("statement %d", i+1)
		}
		if len(only) > 0 && !contains(only, stmt.Name) {
			continue
		}
		res, err := format.Generate(stmt.Query, d, format.WithLogger(logger.With("statement", name)))
		if err != nil {
			return out, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		out.Statements = append(out.Statements, RenderedStatement{Name: name, Commands: res.Commands})
	}

	if len(only) > 0 && len(out.Statements) == 0 {
		return out, fmt.Errorf("%s: no statement named %s", path, strings.Join(only, ", "))
	}
	logger.Debug("document rendered", "dialect", d.Name, "statements", len(out.Statements))
	return out, nil
}

func writeRenderedText(w io.Writer, files []RenderedFile) error {
	var sb strings.Builder
	for fi, f := range files {
		if len(files) > 1 {
			if fi > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "-- file: %s\n", f.File)
		}
		for si, s := range f.Statements {
			if si > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "-- %s\n", s.Name)
			sb.WriteString(strings.Join(s.Commands, "\n"))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
