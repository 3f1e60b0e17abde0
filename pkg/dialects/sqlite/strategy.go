package sqlite

import (
	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

type strategy struct {
	*dialect.BaseStrategy
}

// DataTypeName maps data kinds onto SQLite type affinities. Conversion
// targets use the bare affinity; CREATE TABLE keeps the declared names.
func (s *strategy) DataTypeName(dt *core.DataType, forCreate bool) string {
	switch dt.Kind {
	case core.DataBoolean, core.DataSByte, core.DataByte, core.DataInt16, core.DataUInt16,
		core.DataInt32, core.DataUInt32, core.DataInt64, core.DataUInt64:
		return "INTEGER"
	case core.DataSingle, core.DataDouble:
		return "REAL"
	case core.DataBinary, core.DataVarBinary:
		return "BLOB"
	case core.DataDecimal, core.DataMoney:
		if !forCreate {
			return "NUMERIC"
		}
	case core.DataUndefined:
		return "BLOB"
	default:
		if !forCreate {
			return "TEXT"
		}
	}
	return s.BaseStrategy.DataTypeName(dt, forCreate)
}

// ConvertExpression turns Convert calls into CAST and string addition into
// the || operator.
func (*strategy) ConvertExpression(e core.Expr) core.Expr {
	switch x := e.(type) {
	case *core.Function:
		if x.Is(optimize.FuncConvert) && len(x.Args) == 2 {
			r := core.NewRaw(x.Type, optimize.CastTemplate, x.Args[1], x.Args[0])
			r.Nullable = x.Args[1].CanBeNull()
			return r
		}
	case *core.Binary:
		if x.Op == "+" && (x.Type == core.KindString ||
			x.Left.SystemType() == core.KindString || x.Right.SystemType() == core.KindString) {
			return core.NewBinary(core.KindString, x.Left, "||", x.Right)
		}
	}
	return e
}

// IdentitySQL reads the rowid of the last insert on the connection.
func (*strategy) IdentitySQL(*core.Table, *core.Field) string {
	return "SELECT last_insert_rowid()"
}
