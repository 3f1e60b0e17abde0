// Package rewrite reshapes finalized query trees into forms the target
// dialect can express. Multi-table DELETE and UPDATE statements become
// EXISTS filters over a copy of the target table, subquery columns become
// LEFT JOINs against grouped derived tables and aliases are cut down to what
// the database accepts.
//
// Every pass mutates the tree in place and leaves it in a shape the same
// pass no longer matches, so finalizing twice is harmless.
package rewrite

import (
	"log/slog"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

// Option configures Finalize.
type Option func(*rewriter)

// WithLogger logs every pass that changed the tree at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *rewriter) {
		if l != nil {
			r.log = l
		}
	}
}

type rewriter struct {
	d   *dialect.Dialect
	log *slog.Logger
}

// Finalize validates q for d and rewrites the constructs d cannot express.
// The returned query replaces q: decorrelation wraps a multi-table DELETE
// or UPDATE into a new outer statement.
func Finalize(q *core.Query, d *dialect.Dialect, opts ...Option) (*core.Query, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	r := &rewriter{d: d, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}

	if err := core.FinalizeAndValidate(q, d.FinalizeOptions()); err != nil {
		return nil, err
	}

	q, fired, err := r.decorrelate(q)
	if err != nil {
		return nil, err
	}

	if !d.Flags.IsCountSubQuerySupported && MoveCountSubQuery(q, d.Strategy) {
		r.log.Debug("count subqueries moved into joins", "dialect", d.Name)
		fired = true
	}
	if !d.Flags.IsSubQueryColumnSupported && MoveSubQueryColumn(q) {
		r.log.Debug("subquery columns moved into joins", "dialect", d.Name)
		fired = true
	}
	if d.Flags.MaxAliasLength > 0 && CheckAliases(q, d.Flags.MaxAliasLength) {
		r.log.Debug("aliases sanitized", "dialect", d.Name, "max_length", d.Flags.MaxAliasLength)
		fired = true
	}

	if fired {
		if err := core.FinalizeAndValidate(q, d.FinalizeOptions()); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (r *rewriter) decorrelate(q *core.Query) (*core.Query, bool, error) {
	var (
		out *core.Query
		err error
	)
	switch {
	case q.Kind == core.QueryDelete && !r.d.Flags.IsMultiTableDeleteSupported:
		if !q.HasJoins() {
			markTarget(q)
			return q, false, nil
		}
		out, err = AlternativeDelete(q)
	case q.Kind == core.QueryUpdate && !r.d.Flags.IsMultiTableUpdateSupported:
		if !q.HasJoins() {
			markTarget(q)
			return q, false, nil
		}
		out, err = AlternativeUpdate(q)
	default:
		return q, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if out == q {
		return q, false, nil
	}
	r.log.Debug("multi-table statement decorrelated", "dialect", r.d.Name, "kind", out.Kind)
	return out, true, nil
}

// markTarget makes the single FROM item of a DELETE or UPDATE render by
// its physical name.
func markTarget(q *core.Query) {
	if len(q.From.Tables) == 1 {
		ts := q.From.Tables[0]
		ts.NoAlias = true
		ts.Alias = ""
	}
}
