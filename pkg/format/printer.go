package format

import (
	"bytes"
	"errors"
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

// Printer writes one statement into a shared buffer. Subqueries and UNION
// branches get a Printer of their own over the same buffer; the nesting
// counter is handed back when they finish.
type Printer struct {
	d         *dialect.Dialect
	buf       *bytes.Buffer
	query     *core.Query
	indent    int
	nesting   int
	skipAlias bool
	step      dialect.Step

	// inCondition is set while a condition is written as a CASE value.
	inCondition bool
}

func (p *Printer) write(s ...string) {
	for _, x := range s {
		p.buf.WriteString(x)
	}
}

func (p *Printer) writeln() {
	p.buf.WriteByte('\n')
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteByte('\t')
	}
}

// line writes s as one indented line.
func (p *Printer) line(s ...string) {
	p.writeIndent()
	p.write(s...)
	p.writeln()
}

func (p *Printer) indentString() string {
	return strings.Repeat("\t", p.indent)
}

// formatList writes count indented lines, separating them with commas.
func (p *Printer) formatList(count int, format func(i int)) {
	p.indent++
	for i := 0; i < count; i++ {
		p.writeIndent()
		format(i)
		if i < count-1 {
			p.write(",")
		}
		p.writeln()
	}
	p.indent--
}

// capture returns what fn writes instead of appending it to the buffer.
func (p *Printer) capture(fn func()) string {
	saved := p.buf
	var b bytes.Buffer
	p.buf = &b
	fn()
	p.buf = saved
	return b.String()
}

func (p *Printer) quote(kind dialect.NameKind, name string) string {
	return p.d.QuoteName(kind, name)
}

// fail aborts the render; BuildSQL turns the panic back into an error.
func (p *Printer) fail(format string, args ...any) {
	panic(core.Errorf(format, args...))
}

func (p *Printer) check(err error) {
	if err == nil {
		return
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		panic(ce)
	}
	panic(&core.Error{Message: err.Error()})
}

// catch recovers a *core.Error raised by fail into *err. Any other panic is
// a bug and propagates.
func catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	ce, ok := r.(*core.Error)
	if !ok {
		panic(r)
	}
	*err = ce
}

// subquery renders q with a child printer at indent.
func (p *Printer) subquery(q *core.Query, indent int, skipAlias bool) {
	p.nesting++
	c := &Printer{
		d:         p.d,
		buf:       p.buf,
		indent:    indent,
		nesting:   p.nesting,
		skipAlias: skipAlias,
	}
	c.build(q)
	p.nesting = c.nesting
}

// subqueryExpr writes q in parentheses, one level deeper than the current
// line.
func (p *Printer) subqueryExpr(q *core.Query, skipAlias bool) {
	p.write("(")
	p.writeln()
	p.subquery(q, p.indent+1, skipAlias)
	p.writeIndent()
	p.write(")")
}

func (p *Printer) value(v any) string {
	s, err := Value(p.d.Strategy, v)
	p.check(err)
	return s
}
