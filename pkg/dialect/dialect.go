// Package dialect provides SQL dialect configuration for the generator.
//
// A Dialect is immutable data (capability flags, paging templates, identity
// and upsert styles, identifier quoting) plus a Strategy holding the few
// behaviors that differ per database. Concrete dialects are registered from
// pkg/dialects/*/ packages.
package dialect

import (
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
)

// Flags describes which optional SQL features a dialect supports. It has no
// behavior; the rewriter and the renderer consult it to pick a strategy.
type Flags struct {
	IsSkipSupported       bool
	IsSkipSupportedIfTake bool
	IsTakeSupported       bool

	IsSubQueryTakeSupported bool
	IsSubQuerySkipSupported bool
	AcceptsTakeAsParameter  bool

	IsSubQueryColumnSupported bool
	IsCountSubQuerySupported  bool

	IsMultiTableUpdateSupported bool
	IsMultiTableDeleteSupported bool

	IsApplyJoinSupported            bool
	IsGroupByExpressionSupported    bool
	IsNestedJoinSupported           bool
	IsNestedJoinParenthesisRequired bool
	IsNegatedComparisonSupported    bool

	MaxInListValuesCount int // 0 means unbounded
	MaxAliasLength       int // 0 disables alias sanitization
}

// DefaultFlags returns the capabilities of a fully featured dialect.
func DefaultFlags() Flags {
	return Flags{
		IsSkipSupported:              true,
		IsTakeSupported:              true,
		IsSubQueryTakeSupported:      true,
		IsSubQuerySkipSupported:      true,
		AcceptsTakeAsParameter:       true,
		IsSubQueryColumnSupported:    true,
		IsCountSubQuerySupported:     true,
		IsMultiTableUpdateSupported:  true,
		IsMultiTableDeleteSupported:  true,
		IsGroupByExpressionSupported: true,
		IsNestedJoinSupported:        true,
	}
}

// SkipSupported reports whether SKIP may be emitted for q, which may carry
// a TAKE of its own.
func (f Flags) SkipSupported(q *core.Query) bool {
	return f.IsSkipSupported || (f.IsSkipSupportedIfTake && q.Select.Take != nil)
}

// PagingEmulation selects how paging is produced when the native templates
// cannot express it.
type PagingEmulation int

// PagingEmulation constants.
const (
	PagingNative PagingEmulation = iota
	PagingRowNumber
	PagingNestedTop
)

func (e PagingEmulation) String() string {
	switch e {
	case PagingNative:
		return "native"
	case PagingRowNumber:
		return "row-number"
	case PagingNestedTop:
		return "nested-top"
	default:
		return "unknown"
	}
}

// Paging holds the paging templates of a dialect. Each template has one %s
// verb receiving the rendered skip or take expression. SkipFormat and
// TakeFormat are SELECT modifiers ("TOP %s"); LimitFormat and OffsetFormat
// are trailing clauses ("LIMIT %s").
type Paging struct {
	SkipFormat   string
	TakeFormat   string
	LimitFormat  string
	OffsetFormat string

	SkipFirst           bool // skip modifier is emitted before take
	OffsetFirst         bool // OFFSET clause is emitted before LIMIT
	OffsetRequiresLimit bool // OFFSET needs a LIMIT; "-1" is used when there is no take

	Emulation PagingEmulation
}

// IdentityPlacement says where the generated identity of an INSERT is read.
type IdentityPlacement int

// IdentityPlacement constants.
const (
	IdentityNone          IdentityPlacement = iota
	IdentityInline                          // appended to the INSERT command
	IdentitySecondCommand                   // a separate command after the INSERT
	IdentityReturning                       // a RETURNING clause of the INSERT
)

// UpsertStyle selects how an InsertOrUpdate query is rendered.
type UpsertStyle int

// UpsertStyle constants.
const (
	UpsertNone         UpsertStyle = iota
	UpsertMerge                    // MERGE INTO ... USING
	UpsertUpdateInsert             // UPDATE, then INSERT when no row was touched
	UpsertOnConflict               // INSERT ... ON CONFLICT (keys) DO UPDATE
)

func (s UpsertStyle) String() string {
	switch s {
	case UpsertNone:
		return "none"
	case UpsertMerge:
		return "merge"
	case UpsertUpdateInsert:
		return "update-insert"
	case UpsertOnConflict:
		return "on-conflict"
	default:
		return "unknown"
	}
}

// NameKind tells QuoteName what kind of identifier it is converting.
type NameKind int

// NameKind constants.
const (
	NameDatabase NameKind = iota
	NameOwner
	NameTable
	NameTableAlias
	NameField
	NameFieldAlias
	NameQueryParameter
	NameSequence
)

// IdentifierConfig configures identifier quoting.
type IdentifierConfig struct {
	Quote    string // opening quote character
	QuoteEnd string // closing quote character
	Escape   string // replacement for QuoteEnd inside a quoted name
	QuoteAll bool   // quote every name, not only the ones that need it
}

// Dialect represents a target database: its capabilities, syntax options
// and strategy hooks. A Dialect is never mutated after Build.
type Dialect struct {
	Name     string
	Flags    Flags
	Paging   Paging
	Identity IdentityPlacement
	Upsert   UpsertStyle

	Identifiers IdentifierConfig

	// ParenthesizeJoins wraps every joined table source in parentheses,
	// as Access requires.
	ParenthesizeJoins bool
	// MergeSource is the FROM of the single-row source of a MERGE upsert;
	// empty means a bare SELECT.
	MergeSource string
	// RowCountCheck is the condition testing that the UPDATE of an
	// update-insert upsert touched no row.
	RowCountCheck string

	Strategy Strategy

	aggregates    map[string]struct{}
	reservedWords map[string]struct{}
}

// FinalizeOptions returns the structural pass options for d.
func (d *Dialect) FinalizeOptions() core.FinalizeOptions {
	return core.FinalizeOptions{
		Dialect:                    d.Name,
		ApplyJoinSupported:         d.Flags.IsApplyJoinSupported,
		GroupByExpressionSupported: d.Flags.IsGroupByExpressionSupported,
	}
}

// IsAggregate returns true if the function is an aggregate function.
func (d *Dialect) IsAggregate(name string) bool {
	_, ok := d.aggregates[strings.ToUpper(name)]
	return ok
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToUpper(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier when the dialect quotes
// everything, when it is a reserved word, or when it is not a plain
// identifier.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.Identifiers.QuoteAll || d.IsReservedWord(name) || !isPlainIdentifier(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

func isPlainIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// QuoteName converts a name through the dialect strategy.
func (d *Dialect) QuoteName(kind NameKind, name string) string {
	return d.Strategy.QuoteName(kind, name)
}

// WithFlags returns a copy of d with fn applied to its flags. The copy
// shares the strategy and is not registered.
func (d *Dialect) WithFlags(fn func(*Flags)) *Dialect {
	c := *d
	fn(&c.Flags)
	return &c
}

// AggregateNames returns the registered aggregate names, unsorted.
func (d *Dialect) AggregateNames() []string {
	names := make([]string, 0, len(d.aggregates))
	for n := range d.aggregates {
		names = append(names, n)
	}
	return names
}
