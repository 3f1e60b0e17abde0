package core

import (
	"strconv"
	"strings"
)

// FinalizeOptions carries what the structural pass needs to know about the
// target dialect.
type FinalizeOptions struct {
	Dialect                    string
	ApplyJoinSupported         bool
	GroupByExpressionSupported bool
}

// FinalizeAndValidate normalizes the tree rooted at q: it links Parent
// references, flattens search conditions, drops duplicate joins, rejects
// constructs the dialect cannot express and assigns missing table and
// column aliases. It is safe to run any number of times.
func FinalizeAndValidate(q *Query, opts FinalizeOptions) error {
	queries := Queries(q)

	for _, x := range queries {
		linkChildren(x)
	}

	for _, x := range queries {
		OptimizeSearchCondition(x.Where)
		OptimizeSearchCondition(x.Having)
		removeDuplicateJoins(x)

		for _, ts := range x.From.Tables {
			var err error
			ts.Sources(func(s *TableSource) {
				for _, j := range s.Joins {
					OptimizeSearchCondition(j.Condition)
					if j.Kind.IsApply() && !opts.ApplyJoinSupported && err == nil {
						err = Errorf(ErrApplyJoinNotSupported, opts.Dialect)
					}
				}
			})
			if err != nil {
				return err
			}
		}

		if !opts.GroupByExpressionSupported {
			for _, g := range x.GroupBy {
				switch g.(type) {
				case *Field, *Column:
				default:
					return Errorf(ErrGroupByExpression, opts.Dialect)
				}
			}
		}
	}

	assignTableAliases(queries)
	for _, x := range queries {
		assignColumnAliases(x)
	}
	return nil
}

// linkChildren points the Parent of every query directly nested in x at x.
func linkChildren(x *Query) {
	for _, c := range x.Select.Columns {
		c.Parent = x
	}
	for _, u := range x.Unions {
		u.Query.Parent = nil
	}
	Walk(x, func(n Node) bool {
		switch y := n.(type) {
		case *Query:
			if y == x {
				return true
			}
			if !isUnionOf(x, y) {
				y.Parent = x
			}
			return false
		case *Column:
			return y.Parent == x
		}
		return true
	})
}

func isUnionOf(x, y *Query) bool {
	for _, u := range x.Unions {
		if u.Query == y {
			return true
		}
	}
	return false
}

func removeDuplicateJoins(q *Query) {
	seen := map[Source]bool{}
	var prune func(ts *TableSource)
	prune = func(ts *TableSource) {
		seen[ts.Source] = true
		kept := ts.Joins[:0]
		for _, j := range ts.Joins {
			if seen[j.Table.Source] {
				continue
			}
			prune(j.Table)
			kept = append(kept, j)
		}
		ts.Joins = kept
	}
	for _, ts := range q.From.Tables {
		prune(ts)
	}
}

func assignTableAliases(queries []*Query) {
	used := map[string]bool{}
	var pending []*TableSource

	for _, x := range queries {
		for _, root := range x.From.Tables {
			root.Sources(func(ts *TableSource) {
				switch {
				case ts.NoAlias:
				case ts.Alias != "" && !used[strings.ToLower(ts.Alias)]:
					used[strings.ToLower(ts.Alias)] = true
				default:
					pending = append(pending, ts)
				}
			})
		}
	}

	for _, ts := range pending {
		base := "t"
		if t, ok := ts.Source.(*Table); ok && t.Alias != "" {
			base = t.Alias
		}
		ts.Alias = uniqueName(base, used, base == "t")
	}
}

func assignColumnAliases(q *Query) {
	used := map[string]bool{}
	for i, c := range q.Select.Columns {
		alias := c.Alias
		if alias == "" {
			switch e := c.Expr.(type) {
			case *Field:
				if !e.IsAll() {
					alias = e.Name
				}
			case *Column:
				alias = e.Alias
			}
		}
		if alias == "" {
			alias = "c" + strconv.Itoa(i+1)
		}
		c.Alias = uniqueName(alias, used, false)
	}
}

// uniqueName returns base, or base followed by the smallest number that is
// not in used, and records the result. numbered forces a numeric suffix.
func uniqueName(base string, used map[string]bool, numbered bool) string {
	if !numbered && !used[strings.ToLower(base)] {
		used[strings.ToLower(base)] = true
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if !used[strings.ToLower(name)] {
			used[strings.ToLower(name)] = true
			return name
		}
	}
}

// TempAliases returns n aliases starting with prefix that no table source
// or column in the tree of q uses yet.
func (q *Query) TempAliases(n int, prefix string) []string {
	used := map[string]bool{}
	for _, x := range Queries(q.Root()) {
		for _, c := range x.Select.Columns {
			used[strings.ToLower(c.Alias)] = true
		}
		for _, root := range x.From.Tables {
			root.Sources(func(ts *TableSource) {
				used[strings.ToLower(ts.Alias)] = true
			})
		}
	}
	names := make([]string, n)
	for i := range names {
		names[i] = uniqueName(prefix, used, true)
	}
	return names
}
