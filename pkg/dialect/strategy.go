package dialect

import (
	"strconv"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// Strategy holds the behaviors that differ per database beyond what Flags
// and Paging express. Implementations embed *BaseStrategy and override the
// methods they need.
type Strategy interface {
	// QuoteName converts an identifier of the given kind for output.
	QuoteName(kind NameKind, name string) string
	// DataTypeName returns the SQL type name of dt. forCreate is set when
	// the name appears in CREATE TABLE rather than in a conversion.
	DataTypeName(dt *core.DataType, forCreate bool) string
	// ConvertExpression maps an already simplified expression to the
	// dialect's own functions. It must return e when nothing applies.
	ConvertExpression(e core.Expr) core.Expr
	// ConvertCountSubQuery confirms that a COUNT subquery column may be
	// pushed into a join.
	ConvertCountSubQuery(q *core.Query) bool
	// FormatValue renders a literal the dialect spells differently. It
	// reports false to fall back to the common formatting.
	FormatValue(v any) (string, bool)
	// IdentityAttribute returns the CREATE TABLE attribute of an identity
	// field at position 1 (after the type) or 2 (after nullability).
	IdentityAttribute(position int, f *core.Field) string
	// IdentitySQL returns the statement or clause reading the identity of
	// the row just inserted into table.
	IdentitySQL(table *core.Table, f *core.Field) string
	// IdentityExpression returns the value inserted into the identity field
	// of a sequence-backed table, or nil when the database generates it.
	IdentityExpression(table *core.Table, f *core.Field, sequence string) core.Expr
	// MaxDisplaySize returns how many characters the text form of kind
	// needs, or a non-positive number when unknown.
	MaxDisplaySize(kind core.DataKind) int
	// WrapCondition reports whether a search condition used as a value in
	// step must be written as CASE WHEN condition THEN true ELSE false END.
	WrapCondition(step Step) bool
}

// BaseStrategy is the reference behavior shared by every dialect.
type BaseStrategy struct {
	dialect *Dialect
}

// Dialect returns the dialect the strategy was built for.
func (s *BaseStrategy) Dialect() *Dialect { return s.dialect }

// QuoteName quotes names that need it and prefixes parameters with @.
func (s *BaseStrategy) QuoteName(kind NameKind, name string) string {
	switch kind {
	case NameQueryParameter:
		return "@" + name
	case NameSequence:
		return name
	default:
		return s.dialect.QuoteIdentifierIfNeeded(name)
	}
}

// DataTypeName returns the T-SQL style name of dt, with length or
// precision and scale when set.
func (s *BaseStrategy) DataTypeName(dt *core.DataType, forCreate bool) string {
	switch dt.Kind {
	case core.DataDouble:
		return "Float"
	case core.DataSingle:
		return "Real"
	case core.DataSByte, core.DataByte:
		return "TinyInt"
	case core.DataInt16:
		return "SmallInt"
	case core.DataUInt16, core.DataInt32:
		return "Int"
	case core.DataUInt32, core.DataInt64:
		return "BigInt"
	case core.DataUInt64:
		return "Decimal"
	case core.DataBoolean:
		return "Bit"
	case core.DataGuid:
		return "UniqueIdentifier"
	case core.DataUndefined:
		return "Variant"
	}

	name := dt.Kind.String()
	switch {
	case dt.Length > 0:
		return name + "(" + strconv.Itoa(dt.Length) + ")"
	case dt.Precision > 0:
		return name + "(" + strconv.Itoa(dt.Precision) + "," + strconv.Itoa(dt.Scale) + ")"
	}
	return name
}

// ConvertExpression returns e unchanged.
func (*BaseStrategy) ConvertExpression(e core.Expr) core.Expr { return e }

// ConvertCountSubQuery allows every COUNT pushdown.
func (*BaseStrategy) ConvertCountSubQuery(*core.Query) bool { return true }

// FormatValue defers to the common formatting.
func (*BaseStrategy) FormatValue(any) (string, bool) { return "", false }

// IdentityAttribute emits no attribute.
func (*BaseStrategy) IdentityAttribute(int, *core.Field) string { return "" }

// IdentitySQL returns no statement.
func (*BaseStrategy) IdentitySQL(*core.Table, *core.Field) string { return "" }

// IdentityExpression leaves identity generation to the database.
func (*BaseStrategy) IdentityExpression(*core.Table, *core.Field, string) core.Expr { return nil }

// MaxDisplaySize returns the generic display size of kind.
func (*BaseStrategy) MaxDisplaySize(kind core.DataKind) int { return kind.MaxDisplaySize() }

// WrapCondition writes conditions as values unchanged.
func (*BaseStrategy) WrapCondition(Step) bool { return false }
