package format

import (
	"encoding/hex"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

// Value renders v as a SQL literal. The strategy s gets the first chance
// to spell it; s may be nil.
func Value(s dialect.Strategy, v any) (string, error) {
	if s != nil {
		if text, ok := s.FormatValue(v); ok {
			return text, nil
		}
	}

	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quoteString(x), nil
	case core.Char:
		return quoteString(string(x)), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		n, _ := core.IntValue(x)
		return strconv.FormatInt(n, 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10), nil
	case float32:
		if !finite(float64(x)) {
			return "", core.Errorf(core.ErrNonFinite, x)
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		if !finite(x) {
			return "", core.Errorf(core.ErrNonFinite, x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05.000") + "'", nil
	case uuid.UUID:
		return "'" + x.String() + "'", nil
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'", nil
	}

	// pointers and named types over the kinds above
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Value(s, nil)
		}
		return Value(s, rv.Elem().Interface())
	case reflect.Bool:
		return Value(s, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value(s, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Value(s, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Value(s, rv.Float())
	case reflect.String:
		return Value(s, rv.String())
	}
	return "", core.Errorf(core.ErrValueType, v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
