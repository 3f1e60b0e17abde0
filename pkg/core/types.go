package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the system (host-side) type of an expression value.
type Kind int

// Kind constants.
const (
	KindUnknown Kind = iota
	KindObject
	KindString
	KindChar
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindDecimal
	KindTime
	KindGUID
	KindBytes
)

// Char is a single-character literal. It is distinct from rune so that
// integer literals are never mistaken for characters.
type Char rune

// IsInteger reports whether k is one of the integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// IsNumeric reports whether k is an integer, float or decimal kind.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == KindFloat32 || k == KindFloat64 || k == KindDecimal
}

// KindOf returns the kind of a literal Go value. Nil yields KindUnknown.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindUnknown
	case string:
		return KindString
	case Char:
		return KindChar
	case bool:
		return KindBool
	case int8:
		return KindInt8
	case uint8:
		return KindUint8
	case int16:
		return KindInt16
	case uint16:
		return KindUint16
	case int32:
		return KindInt32
	case uint32:
		return KindUint32
	case int, int64:
		return KindInt64
	case uint, uint64:
		return KindUint64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case decimal.Decimal:
		return KindDecimal
	case time.Time:
		return KindTime
	case uuid.UUID:
		return KindGUID
	case []byte:
		return KindBytes
	default:
		return KindObject
	}
}

// DataKind is the SQL-side data type of a column or conversion target.
type DataKind int

// DataKind constants.
const (
	DataUndefined DataKind = iota
	DataChar
	DataVarChar
	DataNChar
	DataNVarChar
	DataText
	DataNText
	DataBoolean
	DataSByte
	DataByte
	DataInt16
	DataUInt16
	DataInt32
	DataUInt32
	DataInt64
	DataUInt64
	DataDecimal
	DataMoney
	DataSingle
	DataDouble
	DataDate
	DataTime
	DataDateTime
	DataGuid
	DataBinary
	DataVarBinary
)

var dataKindNames = [...]string{
	DataUndefined: "Undefined",
	DataChar:      "Char",
	DataVarChar:   "VarChar",
	DataNChar:     "NChar",
	DataNVarChar:  "NVarChar",
	DataText:      "Text",
	DataNText:     "NText",
	DataBoolean:   "Boolean",
	DataSByte:     "SByte",
	DataByte:      "Byte",
	DataInt16:     "Int16",
	DataUInt16:    "UInt16",
	DataInt32:     "Int32",
	DataUInt32:    "UInt32",
	DataInt64:     "Int64",
	DataUInt64:    "UInt64",
	DataDecimal:   "Decimal",
	DataMoney:     "Money",
	DataSingle:    "Single",
	DataDouble:    "Double",
	DataDate:      "Date",
	DataTime:      "Time",
	DataDateTime:  "DateTime",
	DataGuid:      "Guid",
	DataBinary:    "Binary",
	DataVarBinary: "VarBinary",
}

func (d DataKind) String() string {
	if d >= 0 && int(d) < len(dataKindNames) {
		return dataKindNames[d]
	}
	return "Undefined"
}

// ParseDataKind returns the DataKind named s (case-insensitive).
func ParseDataKind(s string) (DataKind, bool) {
	for i, name := range dataKindNames {
		if strings.EqualFold(name, s) {
			return DataKind(i), true
		}
	}
	return DataUndefined, false
}

// typeLimits mirrors the storage characteristics of each data kind.
// -1 means "no fixed limit".
type typeLimits struct {
	length, precision, scale, displaySize int
}

var limits = map[DataKind]typeLimits{
	DataChar:      {8000, 0, 0, 8000},
	DataVarChar:   {8000, 0, 0, 8000},
	DataNChar:     {4000, 0, 0, 4000},
	DataNVarChar:  {4000, 0, 0, 4000},
	DataText:      {-1, 0, 0, -1},
	DataNText:     {-1, 0, 0, -1},
	DataBoolean:   {1, 1, 0, 1},
	DataSByte:     {1, 3, 0, 4},
	DataByte:      {1, 3, 0, 3},
	DataInt16:     {2, 5, 0, 6},
	DataUInt16:    {2, 5, 0, 5},
	DataInt32:     {4, 10, 0, 11},
	DataUInt32:    {4, 10, 0, 10},
	DataInt64:     {8, 19, 0, 20},
	DataUInt64:    {8, 20, 0, 20},
	DataDecimal:   {17, 38, 38, 40},
	DataMoney:     {8, 19, 4, 21},
	DataSingle:    {4, 7, 0, 14},
	DataDouble:    {8, 15, 0, 22},
	DataDate:      {3, 0, 0, 10},
	DataTime:      {5, 0, 0, 16},
	DataDateTime:  {8, 0, 0, 23},
	DataGuid:      {16, 0, 0, 36},
	DataBinary:    {8000, 0, 0, -1},
	DataVarBinary: {8000, 0, 0, -1},
}

// MaxLength returns the maximum storage length of d, or -1.
func (d DataKind) MaxLength() int {
	if l, ok := limits[d]; ok {
		return l.length
	}
	return -1
}

// MaxPrecision returns the maximum precision of d, or -1.
func (d DataKind) MaxPrecision() int {
	if l, ok := limits[d]; ok {
		return l.precision
	}
	return -1
}

// MaxScale returns the maximum scale of d, or -1.
func (d DataKind) MaxScale() int {
	if l, ok := limits[d]; ok {
		return l.scale
	}
	return -1
}

// MaxDisplaySize returns how many characters the textual form of d needs, or -1.
func (d DataKind) MaxDisplaySize() int {
	if l, ok := limits[d]; ok {
		return l.displaySize
	}
	return -1
}

// DataKindOf maps a system kind to its default data kind.
func DataKindOf(k Kind) DataKind {
	switch k {
	case KindString:
		return DataNVarChar
	case KindChar:
		return DataNChar
	case KindBool:
		return DataBoolean
	case KindInt8:
		return DataSByte
	case KindUint8:
		return DataByte
	case KindInt16:
		return DataInt16
	case KindUint16:
		return DataUInt16
	case KindInt32:
		return DataInt32
	case KindUint32:
		return DataUInt32
	case KindInt64:
		return DataInt64
	case KindUint64:
		return DataUInt64
	case KindFloat32:
		return DataSingle
	case KindFloat64:
		return DataDouble
	case KindDecimal:
		return DataDecimal
	case KindTime:
		return DataDateTime
	case KindGUID:
		return DataGuid
	case KindBytes:
		return DataVarBinary
	default:
		return DataUndefined
	}
}

// SystemKindOf maps a data kind to the system kind values of it arrive as.
func SystemKindOf(d DataKind) Kind {
	switch d {
	case DataChar, DataVarChar, DataNChar, DataNVarChar, DataText, DataNText:
		return KindString
	case DataBoolean:
		return KindBool
	case DataSByte:
		return KindInt8
	case DataByte:
		return KindUint8
	case DataInt16:
		return KindInt16
	case DataUInt16:
		return KindUint16
	case DataInt32:
		return KindInt32
	case DataUInt32:
		return KindUint32
	case DataInt64:
		return KindInt64
	case DataUInt64:
		return KindUint64
	case DataDecimal, DataMoney:
		return KindDecimal
	case DataSingle:
		return KindFloat32
	case DataDouble:
		return KindFloat64
	case DataDate, DataTime, DataDateTime:
		return KindTime
	case DataGuid:
		return KindGUID
	case DataBinary, DataVarBinary:
		return KindBytes
	default:
		return KindUnknown
	}
}

// IntValue returns v as an int64 when v holds a signed integer.
func IntValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// FloatValue returns v as a float64 when v holds a float.
func FloatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
