// Package format renders query trees as SQL text for a dialect.
//
// Rendering never changes the tree: expressions and predicates are
// simplified into copies right before they are written. BuildSQL expects a
// tree that already went through rewrite.Finalize; Generate runs it first.
package format

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/rewrite"
)

// BuildSQL appends command commandNumber of q to buf and returns the
// nesting counter for the next render. Command 0 is the statement itself;
// higher numbers are served by BuildCommand.
func BuildSQL(commandNumber int, q *core.Query, d *dialect.Dialect, buf *bytes.Buffer, indent, nesting int, skipAlias bool) (next int, err error) {
	if d == nil {
		return nesting, dialect.ErrDialectRequired
	}
	if commandNumber > 0 {
		return nesting, BuildCommand(commandNumber, q, d, buf, indent)
	}

	p := &Printer{
		d:         d,
		buf:       buf,
		indent:    indent,
		nesting:   nesting,
		skipAlias: skipAlias,
	}
	defer catch(&err)
	p.build(q)
	return p.nesting, nil
}

// CommandCount returns how many commands q renders to under d.
func CommandCount(q *core.Query, d *dialect.Dialect) int {
	if q.Kind == core.QueryInsert && q.Insert.WithIdentity && d.Identity == dialect.IdentitySecondCommand {
		return 2
	}
	return 1
}

// BuildCommand appends a command after the first one: the identity read of
// an INSERT for dialects that need a second round trip.
func BuildCommand(commandNumber int, q *core.Query, d *dialect.Dialect, buf *bytes.Buffer, indent int) error {
	if commandNumber != 1 || CommandCount(q, d) < 2 {
		return core.Errorf(core.ErrCommandNumber, commandNumber)
	}
	t := q.Insert.Into
	f := t.Identity()
	if f == nil {
		return core.Errorf(core.ErrNoIdentity, t.Name)
	}
	buf.WriteString(strings.Repeat("\t", indent))
	buf.WriteString(d.Strategy.IdentitySQL(t, f))
	buf.WriteByte('\n')
	return nil
}

// SequenceName returns the sequence feeding the identity of t for the
// dialect configuration name, falling back to the default attribute.
func SequenceName(t *core.Table, name string) (string, error) {
	seq := t.Sequence(name)
	if seq == "" {
		return "", core.Errorf(core.ErrNoSequence, t.Name)
	}
	return seq, nil
}

// Result holds the commands of one statement in execution order.
type Result struct {
	Commands []string
}

// Option configures Generate.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger logs rewriter passes and rendered statements at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Generate finalizes q for d and renders all of its commands. Finalizing
// may reshape q in place.
func Generate(q *core.Query, d *dialect.Dialect, opts ...Option) (*Result, error) {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	q, err := rewrite.Finalize(q, d, rewrite.WithLogger(o.log))
	if err != nil {
		return nil, err
	}

	n := CommandCount(q, d)
	res := &Result{Commands: make([]string, 0, n)}
	nesting := 0
	for i := 0; i < n; i++ {
		var buf bytes.Buffer
		if nesting, err = BuildSQL(i, q, d, &buf, 0, nesting, false); err != nil {
			return nil, err
		}
		res.Commands = append(res.Commands, buf.String())
	}
	o.log.Debug("statement rendered", "dialect", d.Name, "kind", q.Kind, "commands", n)
	return res, nil
}

// SQL renders q and joins its commands with blank lines.
func SQL(q *core.Query, d *dialect.Dialect) (string, error) {
	res, err := Generate(q, d)
	if err != nil {
		return "", err
	}
	return strings.Join(res.Commands, "\n"), nil
}

func (p *Printer) build(q *core.Query) {
	p.query = q
	switch q.Kind {
	case core.QuerySelect:
		p.buildSelect()
	case core.QueryDelete:
		p.buildDelete()
	case core.QueryUpdate:
		p.buildUpdate()
	case core.QueryInsert:
		p.buildInsert()
	case core.QueryInsertOrUpdate:
		p.buildUpsert()
	case core.QueryCreateTable:
		if q.CreateTable.IsDrop {
			p.buildDropTable()
		} else {
			p.buildCreateTable()
		}
	default:
		p.fail(core.ErrUnknownQueryKind, q.Kind)
	}
}
