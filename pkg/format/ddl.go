package format

import (
	"strings"

	"github.com/leapstack-labs/sqlgen/pkg/core"
	"github.com/leapstack-labs/sqlgen/pkg/dialect"
)

// buildCreateTable writes one line per field with the name, type, identity
// and nullability fragments aligned in columns, then the primary key
// constraint.
func (p *Printer) buildCreateTable() {
	t := p.query.CreateTable.Table
	if t == nil {
		p.fail(core.ErrTableNotFound, "CREATE TABLE target")
	}
	s := p.d.Strategy

	rows := make([][]string, len(t.Fields))
	for i, f := range t.Fields {
		null := "NULL"
		if !f.Nullable {
			null = "NOT NULL"
		}
		var before, after string
		if f.IsIdentity {
			before, after = s.IdentityAttribute(1, f), s.IdentityAttribute(2, f)
		}
		rows[i] = []string{
			p.quote(dialect.NameField, f.Physical()),
			p.columnType(f),
			before,
			null,
			after,
		}
	}
	widths := make([]int, 5)
	for _, r := range rows {
		for j, frag := range r {
			widths[j] = max(widths[j], len(frag))
		}
	}

	keys := t.PrimaryKey()
	p.line("CREATE TABLE ", p.tableName(t))
	p.line("(")
	p.indent++
	for i, r := range rows {
		var b strings.Builder
		for j, frag := range r {
			if widths[j] == 0 {
				continue
			}
			b.WriteString(frag)
			b.WriteString(strings.Repeat(" ", widths[j]-len(frag)+1))
		}
		text := strings.TrimRight(b.String(), " ")
		if i < len(rows)-1 || len(keys) > 0 {
			text += ","
		}
		p.line(text)
	}
	if len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = p.quote(dialect.NameField, k.Physical())
		}
		p.line("CONSTRAINT ", p.quote(dialect.NameTable, "PK_"+t.Physical()), " PRIMARY KEY (", strings.Join(names, ", "), ")")
	}
	p.indent--
	p.line(")")
}

// columnType returns the declared type of f: its explicit DBType, else the
// dialect name of its data type.
func (p *Printer) columnType(f *core.Field) string {
	if f.DBType != "" {
		return f.DBType
	}
	dt := &core.DataType{
		Kind:      f.DataType,
		Type:      f.Type,
		Length:    f.Length,
		Precision: f.Precision,
		Scale:     f.Scale,
	}
	if dt.Kind == core.DataUndefined {
		dt.Kind = core.DataKindOf(f.Type)
	}
	return p.d.Strategy.DataTypeName(dt, true)
}

func (p *Printer) buildDropTable() {
	t := p.query.CreateTable.Table
	if t == nil {
		p.fail(core.ErrTableNotFound, "DROP TABLE target")
	}
	p.line("DROP TABLE ", p.tableName(t))
}
