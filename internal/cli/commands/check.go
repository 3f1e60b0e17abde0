package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sqlgen/internal/config"
	"github.com/leapstack-labs/sqlgen/internal/querydoc"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/format"
)

// ErrCheckFailed is returned by check when a statement fails for a dialect.
var ErrCheckFailed = errors.New("some statements cannot be rendered")

// CheckResult is the outcome of rendering one statement for one dialect.
type CheckResult struct {
	File      string `json:"file"`
	Statement string `json:"statement"`
	Dialect   string `json:"dialect"`
	Commands  int    `json:"commands"`
	Error     string `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var dialects []string

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Render query documents for every dialect and report failures",
		Long: `Render every statement of the given query documents for each registered
dialect, or the ones named with --dialects, and report which dialects
cannot express which statements.

Documents are rebuilt for each dialect because finalizing reshapes the
query trees.`,
		Example: `  sqlgen check queries.yaml
  sqlgen check queries.yaml --dialects access,mssql2005 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, dialects)
		},
	}

	cmd.Flags().StringSliceVar(&dialects, "dialects", nil, "Dialects to check (default: all registered)")
	return cmd
}

func runCheck(cmd *cobra.Command, files, names []string) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	if len(names) == 0 {
		names = dialect.List()
	}
	targets := make([]*dialect.Dialect, len(names))
	for i, name := range names {
		d, err := dialect.Lookup(name)
		if err != nil {
			return err
		}
		targets[i] = d
	}

	docs := make([]*querydoc.Document, len(files))
	for i, path := range files {
		doc, err := querydoc.ReadFile(path)
		if err != nil {
			return err
		}
		docs[i] = doc
	}

	perDialect := make([][]CheckResult, len(targets))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, d := range targets {
		g.Go(func() error {
			for fi, doc := range docs {
				if err := ctx.Err(); err != nil {
					return err
				}
				stmts, err := doc.Build()
				if err != nil {
					return fmt.Errorf("%s: %w", files[fi], err)
				}
				for si, stmt := range stmts {
					r := CheckResult{File: files[fi], Statement: stmt.Name, Dialect: d.Name}
					if r.Statement == "" {
						r.Statement = fmt.Sprintf("statement %d", si+1)
					}
					res, err := format.Generate(stmt.Query, d)
					if err != nil {
						r.Error = err.Error()
						logger.Debug("statement failed", "file", r.File, "statement", r.Statement, "dialect", d.Name, "error", err)
					} else {
						r.Commands = len(res.Commands)
					}
					perDialect[i] = append(perDialect[i], r)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var results []CheckResult
	failed := 0
	for _, rs := range perDialect {
		for _, r := range rs {
			if r.Error != "" {
				failed++
			}
			results = append(results, r)
		}
	}

	var err error
	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		err = enc.Encode(results)
	} else {
		writeCheckText(cmd.OutOrStdout(), results)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, len(results))
	}
	return nil
}

func writeCheckText(w io.Writer, results []CheckResult) {
	titleCaser := cases.Title(language.English)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dialect", "File", "Statement", "Commands", "Status"})
	current := ""
	for _, r := range results {
		if r.Dialect != current {
			if current != "" {
				t.AppendSeparator()
			}
			current = r.Dialect
		}
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		t.AppendRow(table.Row{titleCaser.String(r.Dialect), r.File, r.Statement, r.Commands, status})
	}
	t.Render()
}
