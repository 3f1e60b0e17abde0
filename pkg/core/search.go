package core

// OptimizeSearchCondition flattens sc in place; nested search conditions
// are copied before they change. It hoists a lone nested
// search condition, folds NOT into a lone negated inner condition, splices
// nested chains that use the same connector as their parent, and drops
// literal TRUE/FALSE slots from pure AND or pure OR chains. Condition order
// is never changed. Running it twice yields the same result.
func OptimizeSearchCondition(sc *SearchCondition) {
	if sc == nil {
		return
	}

	for len(sc.Conditions) == 1 {
		c := sc.Conditions[0]
		inner, ok := c.Predicate.(*SearchCondition)
		if !ok {
			break
		}
		if !c.Not {
			sc.Conditions = inner.Copy().Conditions
			continue
		}
		if len(inner.Conditions) == 1 {
			ic := inner.Conditions[0]
			sc.Conditions = []*Condition{{Not: !ic.Not, Predicate: ic.Predicate}}
			continue
		}
		break
	}

	var out []*Condition
	for i, c := range sc.Conditions {
		inner, ok := c.Predicate.(*SearchCondition)
		if !ok {
			out = append(out, c)
			continue
		}
		inner = inner.Copy()
		OptimizeSearchCondition(inner)
		last := i == len(sc.Conditions)-1

		switch {
		case len(inner.Conditions) == 1:
			ic := inner.Conditions[0]
			out = append(out, &Condition{Not: c.Not != ic.Not, Predicate: ic.Predicate, Or: c.Or})
		case !c.Not && len(inner.Conditions) > 1 && !inner.HasOr() && !sc.HasOr():
			for _, ic := range inner.Copy().Conditions {
				ic.Or = false
				out = append(out, ic)
			}
		case !c.Not && len(inner.Conditions) > 1 && isPureOr(inner) && isPureOr(sc):
			for j, ic := range inner.Copy().Conditions {
				ic.Or = !last || j < len(inner.Conditions)-1
				out = append(out, ic)
			}
		default:
			out = append(out, &Condition{Not: c.Not, Predicate: inner, Or: c.Or})
		}
	}
	sc.Conditions = out

	foldLiterals(sc)
}

func isPureOr(sc *SearchCondition) bool {
	for i := 0; i < len(sc.Conditions)-1; i++ {
		if !sc.Conditions[i].Or {
			return false
		}
	}
	return len(sc.Conditions) > 1
}

func literal(c *Condition) (value, ok bool) {
	ep, isExpr := c.Predicate.(*ExprPredicate)
	if !isExpr {
		return false, false
	}
	v, ok := ep.Literal()
	return v != c.Not, ok
}

func foldLiterals(sc *SearchCondition) {
	if len(sc.Conditions) < 2 {
		return
	}

	var absorbing bool
	switch {
	case !sc.HasOr():
		absorbing = false // x AND FALSE is FALSE, TRUE drops out
	case isPureOr(sc):
		absorbing = true // x OR TRUE is TRUE, FALSE drops out
	default:
		return
	}

	var kept []*Condition
	for _, c := range sc.Conditions {
		v, ok := literal(c)
		if !ok {
			kept = append(kept, c)
			continue
		}
		if v == absorbing {
			sc.Conditions = []*Condition{Cond(BoolPredicate(absorbing))}
			return
		}
	}
	if len(kept) == 0 {
		kept = []*Condition{Cond(BoolPredicate(!absorbing))}
	}
	for i, c := range kept {
		c.Or = absorbing && i < len(kept)-1
	}
	sc.Conditions = kept
}
