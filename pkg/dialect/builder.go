package dialect

import "strings"

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect  *Dialect
	strategy func(*BaseStrategy) Strategy
}

// NewDialect creates a new dialect builder with the given name. The
// dialect starts with DefaultFlags, double-quote identifiers and no paging.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:  name,
			Flags: DefaultFlags(),
			Identifiers: IdentifierConfig{
				Quote:    `"`,
				QuoteEnd: `"`,
				Escape:   `""`,
			},
			RowCountCheck: "@@ROWCOUNT = 0",
			aggregates:    make(map[string]struct{}),
			reservedWords: make(map[string]struct{}),
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers.Quote = quote
	b.dialect.Identifiers.QuoteEnd = quoteEnd
	b.dialect.Identifiers.Escape = escape
	return b
}

// QuoteAll makes the dialect quote every identifier.
func (b *Builder) QuoteAll() *Builder {
	b.dialect.Identifiers.QuoteAll = true
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToUpper(w)] = struct{}{}
	}
	return b
}

// Aggregates adds aggregate functions to the dialect.
func (b *Builder) Aggregates(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.aggregates[strings.ToUpper(f)] = struct{}{}
	}
	return b
}

// Flags applies fn to the dialect's capability flags.
func (b *Builder) Flags(fn func(*Flags)) *Builder {
	fn(&b.dialect.Flags)
	return b
}

// Paging sets the paging templates and emulation.
func (b *Builder) Paging(p Paging) *Builder {
	b.dialect.Paging = p
	return b
}

// Identity sets where generated identities are read.
func (b *Builder) Identity(p IdentityPlacement) *Builder {
	b.dialect.Identity = p
	return b
}

// Upsert sets the InsertOrUpdate rendering style.
func (b *Builder) Upsert(s UpsertStyle) *Builder {
	b.dialect.Upsert = s
	return b
}

// MergeSource sets the FROM clause of the single-row MERGE source.
func (b *Builder) MergeSource(from string) *Builder {
	b.dialect.MergeSource = from
	return b
}

// RowCountCheck sets the condition of the INSERT half of an update-insert
// upsert.
func (b *Builder) RowCountCheck(cond string) *Builder {
	b.dialect.RowCountCheck = cond
	return b
}

// ParenthesizeJoins wraps every joined source in parentheses.
func (b *Builder) ParenthesizeJoins() *Builder {
	b.dialect.ParenthesizeJoins = true
	return b
}

// Strategy installs a dialect strategy. fn receives the base strategy
// bound to the dialect, which the returned value usually embeds.
func (b *Builder) Strategy(fn func(base *BaseStrategy) Strategy) *Builder {
	b.strategy = fn
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	d := b.dialect
	base := &BaseStrategy{dialect: d}
	if b.strategy != nil {
		d.Strategy = b.strategy(base)
	} else {
		d.Strategy = base
	}
	return d
}
