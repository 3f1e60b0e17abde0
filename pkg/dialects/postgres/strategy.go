package postgres

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

type strategy struct {
	*dialect.BaseStrategy
}

func (s *strategy) DataTypeName(dt *core.DataType, forCreate bool) string {
	switch dt.Kind {
	case core.DataBoolean:
		return "boolean"
	case core.DataSByte, core.DataByte, core.DataInt16:
		return "smallint"
	case core.DataUInt16, core.DataInt32:
		return "integer"
	case core.DataUInt32, core.DataInt64:
		return "bigint"
	case core.DataSingle:
		return "real"
	case core.DataDouble:
		return "double precision"
	case core.DataMoney:
		return "money"
	case core.DataText, core.DataNText:
		return "text"
	case core.DataDate:
		return "date"
	case core.DataTime:
		return "time"
	case core.DataDateTime:
		return "timestamp"
	case core.DataGuid:
		return "uuid"
	case core.DataBinary, core.DataVarBinary:
		return "bytea"
	case core.DataChar, core.DataNChar:
		return sized("char", dt.Length)
	case core.DataVarChar, core.DataNVarChar:
		return sized("varchar", dt.Length)
	case core.DataDecimal, core.DataUInt64:
		if dt.Precision > 0 {
			return "numeric(" + strconv.Itoa(dt.Precision) + "," + strconv.Itoa(dt.Scale) + ")"
		}
		return "numeric"
	}
	return s.BaseStrategy.DataTypeName(dt, forCreate)
}

func sized(name string, length int) string {
	if length > 0 {
		return name + "(" + strconv.Itoa(length) + ")"
	}
	return name
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

// FormatValue writes boolean and bytea literals.
func (*strategy) FormatValue(v any) (string, bool) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), true
	case []byte:
		return `'\x` + hex.EncodeToString(x) + "'", true
	}
	return "", false
}

// IdentityAttribute declares an identity column for tables whose identity
// is not fed from a named sequence.
func (*strategy) IdentityAttribute(position int, f *core.Field) string {
	if position == 1 && (f.Table == nil || len(f.Table.Sequences) == 0) {
		return "GENERATED BY DEFAULT AS IDENTITY"
	}
	return ""
}

// IdentitySQL returns the RETURNING clause of the identity field.
func (s *strategy) IdentitySQL(_ *core.Table, f *core.Field) string {
	return "RETURNING " + s.QuoteName(dialect.NameField, f.Physical())
}

// IdentityExpression draws the next value of sequence.
func (*strategy) IdentityExpression(_ *core.Table, f *core.Field, sequence string) core.Expr {
	if sequence == "" {
		return nil
	}
	seq := strings.ReplaceAll(strings.ReplaceAll(sequence, "'", "''"), "%", "%%")
	return core.NewRaw(f.SystemType(), "nextval('"+seq+"')")
}
