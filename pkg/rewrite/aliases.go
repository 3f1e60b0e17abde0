package rewrite

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// CheckAliases rewrites every table, column and table source alias under q
// to letters, digits and underscores without a leading underscore. Aliases
// left empty or longer than maxLen are cleared so the next finalize pass
// assigns generated ones; a cleared column alias becomes its positional
// name. It reports whether any alias changed.
func CheckAliases(q *core.Query, maxLen int) bool {
	changed := false
	set := func(alias *string, fallback string) {
		if *alias == "" {
			return
		}
		a := sanitizeAlias(*alias, maxLen)
		if a == "" {
			a = fallback
		}
		if a != *alias {
			*alias = a
			changed = true
		}
	}
	core.Walk(q, func(n core.Node) bool {
		switch x := n.(type) {
		case *core.Query:
			for i, c := range x.Select.Columns {
				set(&c.Alias, "c"+strconv.Itoa(i+1))
			}
		case *core.Table:
			set(&x.Alias, "")
		case *core.TableSource:
			set(&x.Alias, "")
		}
		return true
	})
	return changed
}

func sanitizeAlias(alias string, maxLen int) string {
	a := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, alias)
	a = strings.TrimLeft(a, "_")
	if len(a) > maxLen {
		return ""
	}
	return a
}
