package access

import (
	"time"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
	"github.com/leapstack-labs/sqlgen/pkg/optimize"
)

type strategy struct {
	*dialect.BaseStrategy
}

// conversions maps the system kind of a Convert target to the VBA
// conversion function Access evaluates it with.
var conversions = map[core.Kind]string{
	core.KindString:  "CStr",
	core.KindChar:    "CStr",
	core.KindBool:    "CBool",
	core.KindUint8:   "CByte",
	core.KindInt8:    "CInt",
	core.KindInt16:   "CInt",
	core.KindUint16:  "CLng",
	core.KindInt32:   "CLng",
	core.KindUint32:  "CDbl",
	core.KindInt64:   "CDbl",
	core.KindFloat32: "CSng",
	core.KindFloat64: "CDbl",
	core.KindDecimal: "CCur",
	core.KindTime:    "CDate",
}

func (*strategy) ConvertExpression(e core.Expr) core.Expr {
	f, ok := e.(*core.Function)
	if !ok || !f.Is(optimize.FuncConvert) || len(f.Args) != 2 {
		return e
	}
	name, ok := conversions[f.Args[0].SystemType()]
	if !ok {
		return e
	}
	return core.NewFunction(f.Type, name, f.Args[1])
}

// DataTypeName uses the Jet names of numeric and text types.
func (s *strategy) DataTypeName(dt *core.DataType, forCreate bool) string {
	switch dt.Kind {
	case core.DataBoolean:
		return "YesNo"
	case core.DataSByte, core.DataByte:
		return "Byte"
	case core.DataInt16:
		return "Short"
	case core.DataUInt16, core.DataInt32:
		return "Long"
	case core.DataDouble, core.DataUInt32, core.DataInt64, core.DataUInt64:
		return "Double"
	case core.DataSingle:
		return "Single"
	case core.DataMoney:
		return "Currency"
	case core.DataText, core.DataNText:
		return "Memo"
	case core.DataGuid:
		return "Guid"
	case core.DataDate, core.DataTime:
		return "DateTime"
	}
	return s.BaseStrategy.DataTypeName(dt, forCreate)
}

// FormatValue writes dates between hashes and booleans as True/False.
func (*strategy) FormatValue(v any) (string, bool) {
	switch x := v.(type) {
	case time.Time:
		return "#" + x.Format("2006-01-02 15:04:05") + "#", true
	case bool:
		if x {
			return "True", true
		}
		return "False", true
	}
	return "", false
}

// IdentityAttribute marks the counter column after its type.
func (*strategy) IdentityAttribute(position int, _ *core.Field) string {
	if position == 1 {
		return "IDENTITY"
	}
	return ""
}

// IdentitySQL reads the last counter value of the connection.
func (*strategy) IdentitySQL(*core.Table, *core.Field) string {
	return "SELECT @@IDENTITY"
}
