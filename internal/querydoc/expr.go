package querydoc

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

var comparisons = map[string]core.Operator{
	"eq":  core.OpEqual,
	"ne":  core.OpNotEqual,
	"gt":  core.OpGreater,
	"ge":  core.OpGreaterOrEqual,
	"ngt": core.OpNotGreater,
	"lt":  core.OpLess,
	"le":  core.OpLessOrEqual,
	"nlt": core.OpNotLess,
}

func isExprKey(k string) bool {
	switch k {
	case "val", "param", "func", "op", "case", "convert", "query":
		return true
	}
	return false
}

func isPredicateKey(k string) bool {
	if _, ok := comparisons[k]; ok {
		return true
	}
	switch k {
	case "like", "between", "is_null", "in", "exists", "and", "or", "expr":
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func mapValue(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

func flag(n *yaml.Node, key string) bool {
	v := mapValue(n, key)
	if v == nil {
		return false
	}
	var b bool
	return v.Decode(&b) == nil && b
}

func typeName(n *yaml.Node) string {
	if t := mapValue(n, "type"); t != nil {
		return t.Value
	}
	return ""
}

// operator returns the one key of mapping n accepted by keys and its value.
func operator(n *yaml.Node, keys func(string) bool) (string, *yaml.Node, error) {
	var name string
	var val *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if !keys(k) {
			continue
		}
		if val != nil {
			return "", nil, errorAt(n.Content[i], "%q cannot be combined with %q", k, name)
		}
		name, val = k, deref(n.Content[i+1])
	}
	if val == nil {
		return "", nil, errorAt(n, "mapping names no known operator")
	}
	return name, val, nil
}

func dataKind(n *yaml.Node, name string) (core.DataKind, error) {
	if name == "" {
		return core.DataUndefined, nil
	}
	dk, ok := core.ParseDataKind(name)
	if !ok {
		return core.DataUndefined, errorAt(n, "unknown type %q", name)
	}
	return dk, nil
}

// scalarValue decodes n as a literal of kind dk, or by its YAML tag when
// dk is undefined. A sequence yields a list for IN expansion.
func scalarValue(n *yaml.Node, dk core.DataKind) (any, error) {
	n = deref(n)
	if n.Kind == yaml.SequenceNode {
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := scalarValue(item, dk)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, errorAt(n, "expected a scalar value")
	}
	if n.ShortTag() == "!!null" {
		return nil, nil
	}

	kind := core.SystemKindOf(dk)
	var (
		v   any
		err error
	)
	switch {
	case dk == core.DataUndefined:
		v, err = untypedValue(n)
	case kind == core.KindString:
		v = n.Value
	case kind == core.KindBool:
		var b bool
		err = n.Decode(&b)
		v = b
	case kind.IsInteger():
		var i int64
		err = n.Decode(&i)
		v = i
	case kind == core.KindFloat32 || kind == core.KindFloat64:
		var f float64
		err = n.Decode(&f)
		v = f
	case kind == core.KindDecimal:
		v, err = decimal.NewFromString(n.Value)
	case kind == core.KindTime:
		v, err = parseTime(n.Value)
	case kind == core.KindGUID:
		v, err = uuid.Parse(n.Value)
	case kind == core.KindBytes:
		v, err = hex.DecodeString(n.Value)
	default:
		v = n.Value
	}
	if err != nil {
		return nil, errorAt(n, "invalid %s value %q: %v", dk, n.Value, err)
	}
	return v, nil
}

func untypedValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, err
	case "!!int":
		var i int
		err := n.Decode(&i)
		return i, err
	case "!!float":
		var f float64
		err := n.Decode(&f)
		return f, err
	case "!!timestamp":
		return parseTime(n.Value)
	case "!!binary":
		var b []byte
		err := n.Decode(&b)
		return b, err
	default:
		return n.Value, nil
	}
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// canonicalName title-cases function names written in a single case.
// Mixed-case names and names with punctuation are kept as written.
func canonicalName(name string) string {
	if strings.ContainsAny(name, "_$.") {
		return name
	}
	if name != strings.ToLower(name) && name != strings.ToUpper(name) {
		return name
	}
	return cases.Title(language.Und).String(name)
}

func (b *builder) expr(n *yaml.Node, s *scope) (core.Expr, error) {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return b.scalar(n, s)
	case yaml.MappingNode:
		return b.mapping(n, s)
	default:
		return nil, errorAt(n, "expected an expression")
	}
}

func (b *builder) exprs(n *yaml.Node, s *scope) ([]core.Expr, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		e, err := b.expr(n, s)
		if err != nil {
			return nil, err
		}
		return []core.Expr{e}, nil
	}
	out := make([]core.Expr, 0, len(n.Content))
	for _, item := range n.Content {
		e, err := b.expr(item, s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// operands decodes exactly count expressions from a sequence.
func (b *builder) operands(n *yaml.Node, s *scope, count int) ([]core.Expr, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != count {
		return nil, errorAt(n, "expected a list of %d operands", count)
	}
	return b.exprs(n, s)
}

func (b *builder) scalar(n *yaml.Node, s *scope) (core.Expr, error) {
	if n.ShortTag() != "!!str" || n.Style&yaml.SingleQuotedStyle != 0 {
		v, err := scalarValue(n, core.DataUndefined)
		if err != nil {
			return nil, err
		}
		return core.NewValue(v), nil
	}
	switch ref := n.Value; {
	case ref == "*":
		return core.Star(), nil
	case strings.HasPrefix(ref, "@"):
		return b.param(n, ref[1:])
	default:
		return s.resolve(n, ref)
	}
}

func (b *builder) param(n *yaml.Node, name string) (core.Expr, error) {
	p, ok := b.params[strings.ToLower(name)]
	if !ok {
		return nil, errorAt(n, "unknown parameter %q", name)
	}
	return p, nil
}

func (b *builder) mapping(n *yaml.Node, s *scope) (core.Expr, error) {
	key, v, err := operator(n, isExprKey)
	if err != nil {
		return nil, err
	}
	switch key {
	case "val":
		dk, err := dataKind(n, typeName(n))
		if err != nil {
			return nil, err
		}
		val, err := scalarValue(v, dk)
		if err != nil {
			return nil, err
		}
		lit := core.NewValue(val)
		if dk != core.DataUndefined {
			lit.Type = core.SystemKindOf(dk)
		}
		return lit, nil
	case "param":
		return b.param(v, v.Value)
	case "func":
		return b.function(n, v.Value, s)
	case "op":
		return b.binary(n, v.Value, s)
	case "case":
		return b.caseExpr(n, v, s)
	case "convert":
		e, err := b.expr(v, s)
		if err != nil {
			return nil, err
		}
		dt, err := dataType(mapValue(n, "to"))
		if err != nil {
			return nil, errorAt(n, "convert: %v", err)
		}
		return optimize.Convert(dt, e), nil
	default: // query
		return b.subquery(v, s)
	}
}

func (b *builder) kind(n *yaml.Node) (core.Kind, error) {
	dk, err := dataKind(n, typeName(n))
	if err != nil || dk == core.DataUndefined {
		return core.KindUnknown, err
	}
	return core.SystemKindOf(dk), nil
}

func (b *builder) function(n *yaml.Node, name string, s *scope) (core.Expr, error) {
	args, err := b.exprs(mapValue(n, "args"), s)
	if err != nil {
		return nil, err
	}
	kind, err := b.kind(n)
	if err != nil {
		return nil, err
	}
	if kind == core.KindUnknown {
		switch {
		case strings.EqualFold(name, "count"):
			kind = core.KindInt32
		case len(args) > 0:
			kind = args[0].SystemType()
		}
	}
	f := core.NewFunction(kind, canonicalName(name), args...)
	f.NotNull = flag(n, "not_null")
	return f, nil
}

func (b *builder) binary(n *yaml.Node, op string, s *scope) (core.Expr, error) {
	if core.BinaryPrecedence(op) == core.PrecedenceUnknown {
		return nil, errorAt(n, "unknown operator %q", op)
	}
	args, err := b.exprs(mapValue(n, "args"), s)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, errorAt(n, "operator %q needs at least two arguments", op)
	}
	kind, err := b.kind(n)
	if err != nil {
		return nil, err
	}
	if kind == core.KindUnknown {
		kind = args[0].SystemType()
		if op == "||" {
			kind = core.KindString
		}
	}
	e := args[0]
	for _, a := range args[1:] {
		e = core.NewBinary(kind, e, op, a)
	}
	return e, nil
}

func (b *builder) caseExpr(n, whens *yaml.Node, s *scope) (core.Expr, error) {
	if whens.Kind != yaml.SequenceNode || len(whens.Content) == 0 {
		return nil, errorAt(whens, "case needs a list of when/then pairs")
	}
	args := make([]core.Expr, 0, 2*len(whens.Content)+1)
	for _, w := range whens.Content {
		when, then := mapValue(w, "when"), mapValue(w, "then")
		if when == nil || then == nil {
			return nil, errorAt(w, "case branch needs 'when' and 'then'")
		}
		c, err := b.condition(when, s)
		if err != nil {
			return nil, err
		}
		e, err := b.expr(then, s)
		if err != nil {
			return nil, err
		}
		args = append(args, core.NewSearchCondition(c), e)
	}
	if en := mapValue(n, "else"); en != nil {
		e, err := b.expr(en, s)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	kind, err := b.kind(n)
	if err != nil {
		return nil, err
	}
	if kind == core.KindUnknown {
		kind = args[1].SystemType()
	}
	return optimize.Case(kind, args...), nil
}

func dataType(n *yaml.Node) (*core.DataType, error) {
	if n == nil {
		return nil, errorAt(nil, "missing target type 'to'")
	}
	var def struct {
		Type      string `yaml:"type"`
		Length    int    `yaml:"length"`
		Precision int    `yaml:"precision"`
		Scale     int    `yaml:"scale"`
	}
	if n.Kind == yaml.ScalarNode {
		def.Type = n.Value
	} else if err := n.Decode(&def); err != nil {
		return nil, err
	}
	dk, err := dataKind(n, def.Type)
	if err != nil {
		return nil, err
	}
	if dk == core.DataUndefined {
		return nil, errorAt(n, "target type needs a 'type'")
	}
	return &core.DataType{Kind: dk, Length: def.Length, Precision: def.Precision, Scale: def.Scale}, nil
}

func (b *builder) subquery(n *yaml.Node, s *scope) (*core.Query, error) {
	var def QueryDef
	if err := n.Decode(&def); err != nil {
		return nil, errorAt(n, "invalid subquery: %v", err)
	}
	return b.query(&def, s)
}

func (b *builder) condition(n *yaml.Node, s *scope) (*core.Condition, error) {
	p, not, err := b.predicate(n, s)
	if err != nil {
		return nil, err
	}
	return &core.Condition{Not: not, Predicate: p}, nil
}

// predicate decodes n and reports whether the condition holding it is
// negated.
func (b *builder) predicate(n *yaml.Node, s *scope) (core.Predicate, bool, error) {
	n = deref(n)
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool" {
		var v bool
		if err := n.Decode(&v); err != nil {
			return nil, false, errorAt(n, "%v", err)
		}
		return core.BoolPredicate(v), false, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, false, errorAt(n, "expected a predicate")
	}
	if len(n.Content) == 2 && n.Content[0].Value == "not" {
		p, not, err := b.predicate(n.Content[1], s)
		return p, !not, err
	}

	key, v, err := operator(n, isPredicateKey)
	if err != nil {
		return nil, false, err
	}
	not := flag(n, "not")

	if op, ok := comparisons[key]; ok {
		args, err := b.operands(v, s, 2)
		if err != nil {
			return nil, false, err
		}
		return &core.ExprExpr{Left: args[0], Op: op, Right: args[1], Strict: flag(n, "strict")}, not, nil
	}

	switch key {
	case "like":
		args, err := b.operands(v, s, 2)
		if err != nil {
			return nil, false, err
		}
		p := &core.Like{Expr: args[0], Pattern: args[1], Not: not}
		if esc := mapValue(n, "escape"); esc != nil {
			if p.Escape, err = b.expr(esc, s); err != nil {
				return nil, false, err
			}
		}
		return p, false, nil

	case "between":
		args, err := b.operands(v, s, 3)
		if err != nil {
			return nil, false, err
		}
		return &core.Between{Expr: args[0], Low: args[1], High: args[2], Not: not}, false, nil

	case "is_null":
		e, err := b.expr(v, s)
		if err != nil {
			return nil, false, err
		}
		return &core.IsNull{Expr: e, Not: not}, false, nil

	case "in":
		e, err := b.expr(v, s)
		if err != nil {
			return nil, false, err
		}
		if qn := mapValue(n, "query"); qn != nil {
			sub, err := b.subquery(qn, s)
			if err != nil {
				return nil, false, err
			}
			return &core.InSubQuery{Expr: e, Query: sub, Not: not}, false, nil
		}
		values, err := b.exprs(mapValue(n, "values"), s)
		if err != nil {
			return nil, false, err
		}
		return &core.InList{Expr: e, Values: values, Not: not}, false, nil

	case "exists":
		sub, err := b.subquery(v, s)
		if err != nil {
			return nil, false, err
		}
		return core.Exists(sub), not, nil

	case "and", "or":
		if v.Kind != yaml.SequenceNode {
			return nil, false, errorAt(v, "%s needs a list of predicates", key)
		}
		sc := &core.SearchCondition{}
		for _, item := range v.Content {
			c, err := b.condition(item, s)
			if err != nil {
				return nil, false, err
			}
			c.Or = key == "or"
			sc.Conditions = append(sc.Conditions, c)
		}
		return sc, not, nil

	default: // expr
		e, err := b.expr(v, s)
		if err != nil {
			return nil, false, err
		}
		return core.NewExprPredicate(e), not, nil
	}
}

// resolve finds the column ref names: "alias.Field", "Table.Field",
// "alias.*" or an unqualified field name unique within its query.
func (s *scope) resolve(n *yaml.Node, ref string) (core.Expr, error) {
	qual, name, qualified := strings.Cut(ref, ".")
	if !qualified {
		qual, name = "", qual
	}
	for cur := s; cur != nil; cur = cur.parent {
		var found core.Expr
		for _, ts := range cur.sources {
			if qualified && !matchesSource(ts, qual) {
				continue
			}
			e := member(ts.Source, name)
			if qualified {
				if e == nil {
					return nil, errorAt(n, "%s has no column %q", qual, name)
				}
				return e, nil
			}
			if e == nil {
				continue
			}
			if found != nil {
				return nil, errorAt(n, "column %q is ambiguous", name)
			}
			found = e
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, errorAt(n, "unknown column %q", ref)
}

func matchesSource(ts *core.TableSource, qual string) bool {
	if ts.Alias != "" {
		return strings.EqualFold(ts.Alias, qual)
	}
	if t, ok := ts.Source.(*core.Table); ok {
		return strings.EqualFold(t.Name, qual) || (t.Alias != "" && strings.EqualFold(t.Alias, qual))
	}
	return false
}

func member(src core.Source, name string) core.Expr {
	switch x := src.(type) {
	case *core.Table:
		if name == "*" {
			return x.All
		}
		if f := x.Field(name); f != nil {
			return f
		}
	case *core.Query:
		for _, c := range x.Select.Columns {
			if c.Alias != "" {
				if strings.EqualFold(c.Alias, name) {
					return c
				}
				continue
			}
			if f := core.UnderlyingField(c); f != nil && strings.EqualFold(f.Name, name) {
				return c
			}
		}
	}
	return nil
}
