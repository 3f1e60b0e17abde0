package rewrite

import (
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// AlternativeDelete turns a DELETE whose FROM joins other tables into a
// single-table DELETE of a copy of the target filtered by EXISTS over the
// original statement, correlated on the primary key. q becomes the EXISTS
// subquery. Statements without joins are returned unchanged.
func AlternativeDelete(q *core.Query) (*core.Query, error) {
	if q.Kind != core.QueryDelete || !q.HasJoins() {
		return q, nil
	}
	target, ok := q.From.Tables[0].Source.(*core.Table)
	if !ok {
		return q, nil
	}
	outer, _, err := correlate(q, target)
	return outer, err
}

// AlternativeUpdate is AlternativeDelete for UPDATE. The SET items move to
// the outer statement with target fields remapped onto the copy; items
// reading other joined tables are not supported.
func AlternativeUpdate(q *core.Query) (*core.Query, error) {
	if q.Kind != core.QueryUpdate || !q.HasJoins() {
		return q, nil
	}
	target := updateTarget(q)
	if target == nil {
		return q, nil
	}

	items := q.Update.Items
	declared := q.Update.Table

	outer, cp, err := correlate(q, target)
	if err != nil {
		return nil, err
	}

	m := target.FieldMap(cp)
	if declared != nil && declared != target {
		for from, to := range declared.FieldMap(cp) {
			m[from] = to
		}
	}
	remap := func(e core.Expr) core.Expr {
		return core.ReplaceExpr(e, func(x core.Expr) core.Expr {
			if f, ok := x.(*core.Field); ok {
				if nf, ok := m[f]; ok {
					return nf
				}
			}
			return nil
		})
	}
	for _, it := range items {
		outer.Update.Items = append(outer.Update.Items, &core.SetItem{
			Column: remap(it.Column),
			Expr:   remap(it.Expr),
		})
	}
	outer.Update.Table = cp
	return outer, nil
}

// updateTarget resolves the table an UPDATE writes to: the declared table
// when the FROM tree holds it, else a same-named table of the FROM tree,
// else the first FROM item.
func updateTarget(q *core.Query) *core.Table {
	declared := q.Update.Table
	if declared == nil {
		t, _ := q.From.Tables[0].Source.(*core.Table)
		return t
	}
	if q.IsLevelSource(declared) {
		return declared
	}

	var found *core.Table
	for _, root := range q.From.Tables {
		root.Sources(func(ts *core.TableSource) {
			if t, ok := ts.Source.(*core.Table); ok && found == nil && strings.EqualFold(t.Name, declared.Name) {
				found = t
			}
		})
	}
	if found == nil {
		return declared
	}
	return found
}

// correlate builds the outer statement over an unaliased copy of target
// and turns q into its EXISTS subquery.
func correlate(q *core.Query, target *core.Table) (*core.Query, *core.Table, error) {
	keys := target.PrimaryKey()
	if len(keys) == 0 {
		return nil, nil, core.Errorf(core.ErrNoPrimaryKey, strings.ToUpper(q.Kind.String()), target.Name)
	}

	cp := target.Copy()
	cp.Alias = ""
	m := target.FieldMap(cp)

	match := core.NewSearchCondition()
	for _, k := range keys {
		match.Add(&core.ExprExpr{Left: m[k], Op: core.OpEqual, Right: k, Strict: true})
	}

	switch {
	case q.Where == nil || q.Where.IsEmpty():
		q.Where = match
	case anyOr(q.Where):
		q.Where = core.NewSearchCondition(core.Cond(q.Where), core.Cond(match))
	default:
		q.Where.Conditions = append(q.Where.Conditions, match.Conditions...)
	}

	outer := core.NewQuery(q.Kind)
	outer.AddFrom(cp, "").NoAlias = true
	outer.Where.Add(core.Exists(q))
	outer.Parameters, q.Parameters = q.Parameters, nil
	outer.IsParameterDependent = q.IsParameterDependent

	q.Kind = core.QuerySelect
	q.Update = core.UpdateClause{}
	q.Parent = outer
	return outer, cp, nil
}

// anyOr reports whether any condition of sc, the last one included,
// carries an OR connector.
func anyOr(sc *core.SearchCondition) bool {
	for _, c := range sc.Conditions {
		if c.Or {
			return true
		}
	}
	return false
}
