package mssql

import (
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

type strategy struct {
	*dialect.BaseStrategy
}

// DataTypeName spells date-times and unbounded texts the way SQL Server
// expects.
func (s *strategy) DataTypeName(dt *core.DataType, forCreate bool) string {
	switch dt.Kind {
	case core.DataDateTime:
		return "DateTime2"
	case core.DataText:
		return "VarChar(Max)"
	case core.DataNText:
		return "NVarChar(Max)"
	case core.DataBinary, core.DataVarBinary:
		if dt.Length <= 0 {
			return "VarBinary(Max)"
		}
	}
	return s.BaseStrategy.DataTypeName(dt, forCreate)
}

// FormatValue writes strings as Unicode literals.
func (*strategy) FormatValue(v any) (string, bool) {
	if str, ok := v.(string); ok {
		return "N" + quote(str), true
	}
	return "", false
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IdentityAttribute places IDENTITY right after the column type.
func (*strategy) IdentityAttribute(position int, _ *core.Field) string {
	if position == 1 {
		return "IDENTITY"
	}
	return ""
}

// IdentitySQL reads the identity generated in the current scope.
func (*strategy) IdentitySQL(*core.Table, *core.Field) string {
	return "SELECT SCOPE_IDENTITY()"
}

// WrapCondition turns conditions into bit values outside of WHERE, HAVING
// and join conditions; T-SQL has no boolean expressions elsewhere.
func (*strategy) WrapCondition(step dialect.Step) bool {
	return !step.IsPredicate()
}
