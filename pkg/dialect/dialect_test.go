package dialect

import (
	"testing"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{PagingNative.String(), "native"},
		{PagingRowNumber.String(), "row-number"},
		{PagingNestedTop.String(), "nested-top"},
		{PagingEmulation(99).String(), "unknown"},
		{UpsertNone.String(), "none"},
		{UpsertMerge.String(), "merge"},
		{UpsertUpdateInsert.String(), "update-insert"},
		{UpsertOnConflict.String(), "on-conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestQuoteIdentifierIfNeeded(t *testing.T) {
	d := NewDialect("test").
		WithReservedWords("order", "group").
		Build()

	tests := []struct {
		input string
		want  string
	}{
		{"Name", "Name"},
		{"order", `"order"`},
		{"ORDER", `"ORDER"`}, // case insensitive
		{"Order Details", `"Order Details"`},
		{"2fa", `"2fa"`},
		{`we"ird`, `"we""ird"`},
		{"t1", "t1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, d.QuoteIdentifierIfNeeded(tt.input))
		})
	}
}

func TestQuoteAll(t *testing.T) {
	d := NewDialect("brackets").
		Identifiers("[", "]", "]]").
		QuoteAll().
		Build()

	assert.Equal(t, "[Name]", d.QuoteName(NameField, "Name"))
	assert.Equal(t, "[a]]b]", d.QuoteName(NameTable, "a]b"))
	assert.Equal(t, "@id", d.QuoteName(NameQueryParameter, "id"))
	assert.Equal(t, "seq_customer", d.QuoteName(NameSequence, "seq_customer"))
}

func TestBaseDataTypeName(t *testing.T) {
	s := NewDialect("test").Build().Strategy

	tests := []struct {
		name string
		dt   core.DataType
		want string
	}{
		{"double", core.DataType{Kind: core.DataDouble}, "Float"},
		{"single", core.DataType{Kind: core.DataSingle}, "Real"},
		{"sbyte", core.DataType{Kind: core.DataSByte}, "TinyInt"},
		{"uint16", core.DataType{Kind: core.DataUInt16}, "Int"},
		{"uint32", core.DataType{Kind: core.DataUInt32}, "BigInt"},
		{"uint64", core.DataType{Kind: core.DataUInt64}, "Decimal"},
		{"boolean", core.DataType{Kind: core.DataBoolean}, "Bit"},
		{"varchar length", core.DataType{Kind: core.DataVarChar, Length: 100}, "VarChar(100)"},
		{"decimal precision", core.DataType{Kind: core.DataDecimal, Precision: 18, Scale: 2}, "Decimal(18,2)"},
		{"datetime", core.DataType{Kind: core.DataDateTime}, "DateTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.DataTypeName(&tt.dt, false))
		})
	}
}

type upperStrategy struct {
	*BaseStrategy
}

func (upperStrategy) FormatValue(v any) (string, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return "TRUE", true
		}
		return "FALSE", true
	}
	return "", false
}

func TestBuilderStrategy(t *testing.T) {
	d := NewDialect("custom").
		Aggregates("sum", "count").
		Flags(func(f *Flags) {
			f.IsSubQueryColumnSupported = false
			f.MaxInListValuesCount = 10
		}).
		Paging(Paging{LimitFormat: "LIMIT %s", OffsetFormat: "OFFSET %s"}).
		Upsert(UpsertOnConflict).
		Strategy(func(base *BaseStrategy) Strategy { return upperStrategy{base} }).
		Build()

	require.NotNil(t, d)
	assert.True(t, d.IsAggregate("SUM"))
	assert.False(t, d.IsAggregate("upper"))
	assert.False(t, d.Flags.IsSubQueryColumnSupported)
	assert.True(t, d.Flags.IsCountSubQuerySupported, "defaults are kept")
	assert.Equal(t, 10, d.Flags.MaxInListValuesCount)

	s, ok := d.Strategy.FormatValue(true)
	assert.True(t, ok)
	assert.Equal(t, "TRUE", s)

	// Methods not overridden come from the embedded base.
	assert.Equal(t, "@p", d.QuoteName(NameQueryParameter, "p"))
	assert.Same(t, d, d.Strategy.(upperStrategy).Dialect())
}

func TestWithFlagsCopies(t *testing.T) {
	d := NewDialect("orig").Build()
	c := d.WithFlags(func(f *Flags) { f.IsApplyJoinSupported = true })

	assert.False(t, d.Flags.IsApplyJoinSupported)
	assert.True(t, c.Flags.IsApplyJoinSupported)
	assert.True(t, c.FinalizeOptions().ApplyJoinSupported)
	assert.Equal(t, "orig", c.FinalizeOptions().Dialect)
}

func TestSkipSupported(t *testing.T) {
	q := core.NewQuery(core.QuerySelect)
	f := Flags{IsSkipSupportedIfTake: true}

	assert.False(t, f.SkipSupported(q))
	q.Select.Take = core.NewValue(5)
	assert.True(t, f.SkipSupported(q))
}

func TestStepIsPredicate(t *testing.T) {
	tests := []struct {
		step Step
		want bool
	}{
		{StepSelect, false},
		{StepUpdate, false},
		{StepInsert, false},
		{StepFrom, true},
		{StepWhere, true},
		{StepGroupBy, false},
		{StepHaving, true},
		{StepOrderBy, false},
	}

	base := NewDialect("base").Build()
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.step.IsPredicate(), "step %d", tt.step)
		assert.False(t, base.Strategy.WrapCondition(tt.step), "step %d", tt.step)
	}
}

func TestRegistry(t *testing.T) {
	Register(NewDialect("Registry_Test").Build())

	d, ok := Get("registry_test")
	require.True(t, ok)
	assert.Equal(t, "Registry_Test", d.Name)
	assert.Contains(t, List(), "registry_test")

	_, err := Lookup("")
	require.ErrorIs(t, err, ErrDialectRequired)

	_, err = Lookup("nope")
	require.ErrorIs(t, err, ErrUnknownDialect)
	assert.Contains(t, err.Error(), "registry_test")
}
