package rewrite

import (
	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

var aggregates = []string{"Count", "Min", "Max", "Sum", "Avg", "Average"}

// MoveCountSubQuery replaces every column computing a correlated
// COUNT(...) subquery with a LEFT JOIN against that subquery grouped by
// its correlated fields, for dialects that cannot project a COUNT
// subquery. It reports whether any column moved.
//
// The joined count is NULL, not 0, for outer rows without a match.
func MoveCountSubQuery(q *core.Query, s dialect.Strategy) bool {
	moved := false
	for _, x := range core.Queries(q) {
		if len(x.From.Tables) == 0 {
			continue
		}
		for _, col := range x.Select.Columns {
			sub, ok := col.Expr.(*core.Query)
			if !ok {
				continue
			}
			fn := aggregateOf(sub)
			if fn == nil || !fn.Is("Count") {
				continue
			}
			core.OptimizeSearchCondition(sub.Where)
			if sub.Where.HasOr() || !s.ConvertCountSubQuery(sub) {
				continue
			}
			p := newPushdown(x, sub)
			if !p.eligible() {
				continue
			}
			p.moveConditions(true)
			p.attach()
			p.rebind(col, fn, len(x.GroupBy) > 0)
			moved = true
		}
	}
	return moved
}

// MoveSubQueryColumn replaces every correlated scalar subquery column
// with a LEFT JOIN against the subquery, for dialects that cannot project
// subqueries at all. Aggregating subqueries are grouped by their
// correlated fields; inside a grouped outer query their value is
// aggregated again with the same function, COUNT counting the matched
// keys instead. It reports whether any column moved.
func MoveSubQueryColumn(q *core.Query) bool {
	moved := false
	for _, x := range core.Queries(q) {
		if len(x.From.Tables) == 0 {
			continue
		}
		for _, col := range x.Select.Columns {
			sub, ok := col.Expr.(*core.Query)
			if !ok || len(sub.Select.Columns) != 1 {
				continue
			}
			core.OptimizeSearchCondition(sub.Where)
			if sub.Where.HasOr() {
				continue
			}
			p := newPushdown(x, sub)
			if !p.eligible() {
				continue
			}

			fn := aggregateOf(sub)
			aggregated := fn != nil
			if !p.moveConditions(aggregated) && !aggregated {
				continue
			}
			p.attach()
			p.rebind(col, fn, aggregated && len(x.GroupBy) > 0)
			moved = true
		}
	}
	return moved
}

// aggregateOf returns the aggregate call projected by a single-column
// subquery, or nil.
func aggregateOf(sub *core.Query) *core.Function {
	if len(sub.Select.Columns) != 1 {
		return nil
	}
	fn, ok := sub.Select.Columns[0].Expr.(*core.Function)
	if !ok {
		return nil
	}
	for _, name := range aggregates {
		if fn.Is(name) {
			return fn
		}
	}
	return nil
}

// pushdown moves one subquery column of outer into a join.
type pushdown struct {
	outer, sub *core.Query

	inside map[core.Source]bool // every source declared anywhere under sub
	level  map[core.Source]bool // sources of sub's own FROM tree
	on     []*core.Condition
}

func newPushdown(outer, sub *core.Query) *pushdown {
	p := &pushdown{
		outer:  outer,
		sub:    sub,
		inside: map[core.Source]bool{},
		level:  map[core.Source]bool{},
	}
	core.Walk(sub, func(n core.Node) bool {
		switch x := n.(type) {
		case *core.Query:
			p.inside[x] = true
		case *core.TableSource:
			p.inside[x.Source] = true
		}
		return true
	})
	for _, root := range sub.From.Tables {
		root.Sources(func(ts *core.TableSource) { p.level[ts.Source] = true })
	}
	return p
}

// outside reports whether n reads a source declared outside sub.
func (p *pushdown) outside(n core.Node) bool {
	switch x := n.(type) {
	case *core.Field:
		return x.Table == nil || !p.inside[x.Table]
	case *core.Column:
		return x.Parent == nil || !p.inside[x.Parent]
	}
	return false
}

func isQuery(n core.Node) bool {
	_, ok := n.(*core.Query)
	return ok
}

// eligible reports whether the correlation of sub lives only in top-level
// WHERE conditions free of nested queries, the only shape that can move
// into a join condition.
func (p *pushdown) eligible() bool {
	rest := p.sub.Clone()
	rest.Where = core.NewSearchCondition()
	if core.Find(rest, p.outside) {
		return false
	}
	for _, c := range p.sub.Where.Conditions {
		if core.Find(c.Predicate, p.outside) && core.Find(c.Predicate, isQuery) {
			return false
		}
	}
	return true
}

// moveConditions moves the correlated WHERE conditions of sub into the
// pending join condition, projecting the inner fields they read as sub
// columns. group also adds those fields to sub's GROUP BY.
func (p *pushdown) moveConditions(group bool) bool {
	var kept []*core.Condition
	for _, c := range p.sub.Where.Conditions {
		if !core.Find(c.Predicate, p.outside) {
			kept = append(kept, c)
			continue
		}
		np := core.ReplacePredicate(c.Predicate, func(e core.Expr) core.Expr {
			return p.project(e, group)
		})
		p.on = append(p.on, &core.Condition{Not: c.Not, Predicate: np})
	}
	moved := len(p.on) > 0
	if moved {
		p.sub.Where.Conditions = kept
	}
	return moved
}

func (p *pushdown) project(e core.Expr, group bool) core.Expr {
	var inner bool
	switch x := e.(type) {
	case *core.Field:
		inner = x.Table != nil && p.level[x.Table]
	case *core.Column:
		inner = x.Parent != nil && p.level[x.Parent]
	default:
		return nil
	}
	if !inner {
		return e
	}
	if group {
		p.sub.AddGroupBy(e)
	}
	return p.sub.Select.Columns[p.sub.AddColumn(e)]
}

// attach LEFT JOINs sub to the first FROM item of outer.
func (p *pushdown) attach() {
	root := p.outer.From.Tables[0]
	root.Joins = append(root.Joins, &core.JoinedTable{
		Kind:      core.JoinLeft,
		Table:     core.NewTableSource(p.sub, ""),
		Condition: core.NewSearchCondition(p.on...),
	})
}

// rebind points col at the joined value. regroup applies fn again over
// the joined column for grouped outer queries.
func (p *pushdown) rebind(col *core.Column, fn *core.Function, regroup bool) {
	value := p.sub.Select.Columns[0]
	switch {
	case !regroup:
		col.Expr = value
	case fn.Is("Count"):
		if len(p.sub.Select.Columns) > 1 {
			p.sub.RemoveColumn(0)
			value = p.sub.Select.Columns[0]
		}
		col.Expr = core.NewFunction(fn.Type, fn.Name, value)
	default:
		col.Expr = core.NewFunction(fn.Type, fn.Name, value)
	}
}
