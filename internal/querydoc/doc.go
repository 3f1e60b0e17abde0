// Package querydoc reads query documents: YAML files that declare tables
// and describe statements over them as structured expressions.
//
// Within an expression a plain string is a column reference ("p.Name",
// "Name" or "p.*"), "@name" is a declared parameter, "*" is the COUNT(*)
// star and a single-quoted string is a string literal. Numbers, booleans
// and null are literals. Mappings name one operator:
//
//	{val: x, type: Guid}              typed literal
//	{func: coalesce, args: [...]}     function call
//	{op: "+", args: [a, b, c]}        left-folded binary operator
//	{case: [{when: p, then: e}], else: e}
//	{convert: e, to: {type: NVarChar, length: 20}}
//	{query: {...}}                    scalar subquery
//
// Predicates are {eq|ne|gt|ge|lt|le|ngt|nlt: [a, b]}, {like: [e, pattern]},
// {between: [e, low, high]}, {is_null: e}, {in: e, values: [...]} or
// {in: e, query: {...}}, {exists: {...}}, {and: [...]}, {or: [...]},
// {not: p}, {expr: e} and the literals true and false.
package querydoc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a decoded query document.
type Document struct {
	Parameters []ParameterDef `yaml:"parameters"`
	Tables     []TableDef     `yaml:"tables"`
	Statements []StatementDef `yaml:"statements"`
}

// ParameterDef declares a parameter referenced as @name.
type ParameterDef struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Value    yaml.Node `yaml:"value"`
	Bound    bool      `yaml:"bound"` // rendered by name instead of inlined
	Nullable bool      `yaml:"nullable"`
}

// TableDef declares a base table.
type TableDef struct {
	Name      string        `yaml:"name"`
	Physical  string        `yaml:"physical"`
	Database  string        `yaml:"database"`
	Owner     string        `yaml:"owner"`
	Alias     string        `yaml:"alias"`
	Fields    []FieldDef    `yaml:"fields"`
	Sequences []SequenceDef `yaml:"sequences"`
}

// FieldDef declares a column. PrimaryKey is the 1-based position of the
// field in the primary key, 0 when it is not a key field.
type FieldDef struct {
	Name       string `yaml:"name"`
	Physical   string `yaml:"physical"`
	Type       string `yaml:"type"`
	DBType     string `yaml:"db_type"`
	Length     int    `yaml:"length"`
	Precision  int    `yaml:"precision"`
	Scale      int    `yaml:"scale"`
	Nullable   bool   `yaml:"nullable"`
	PrimaryKey int    `yaml:"primary_key"`
	Identity   bool   `yaml:"identity"`
}

// SequenceDef names the sequence of a table's identity for a dialect.
type SequenceDef struct {
	Configuration string `yaml:"configuration"`
	Name          string `yaml:"name"`
}

// StatementDef is one named statement.
type StatementDef struct {
	Name     string `yaml:"name"`
	QueryDef `yaml:",inline"`
}

// QueryDef describes a statement or subquery. Kind is one of select (the
// default), insert, update, delete, upsert, create and drop; Table names
// the target of every kind but select.
type QueryDef struct {
	Kind     string      `yaml:"kind"`
	Table    string      `yaml:"table"`
	Distinct bool        `yaml:"distinct"`
	Columns  []yaml.Node `yaml:"select"`
	From     []SourceDef `yaml:"from"`
	Where    []yaml.Node `yaml:"where"`
	GroupBy  []yaml.Node `yaml:"group_by"`
	Having   []yaml.Node `yaml:"having"`
	OrderBy  []yaml.Node `yaml:"order_by"`
	Skip     yaml.Node   `yaml:"skip"`
	Take     yaml.Node   `yaml:"take"`
	Unions   []UnionDef  `yaml:"union"`

	Set      []SetDef `yaml:"set"`    // UPDATE assignments, INSERT values
	Update   []SetDef `yaml:"update"` // upsert assignments on a match
	Keys     []SetDef `yaml:"keys"`   // upsert match keys
	Identity bool     `yaml:"identity"`
}

// SourceDef is a FROM item: a table or a derived query with its joins.
type SourceDef struct {
	Table string    `yaml:"table"`
	Query *QueryDef `yaml:"query"`
	As    string    `yaml:"as"`
	Joins []JoinDef `yaml:"join"`
}

// JoinDef joins a source. Kind is inner (the default), left, cross apply
// or outer apply.
type JoinDef struct {
	Kind      string      `yaml:"kind"`
	SourceDef `yaml:",inline"`
	On        []yaml.Node `yaml:"on"`
}

// SetDef assigns Value to the target field Column.
type SetDef struct {
	Column string    `yaml:"column"`
	Value  yaml.Node `yaml:"value"`
}

// UnionDef is a UNION branch.
type UnionDef struct {
	All      bool `yaml:"all"`
	QueryDef `yaml:",inline"`
}

// Error reports a problem at a position of the document.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "query document: " + e.Message
	}
	return fmt.Sprintf("query document error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(n *yaml.Node, format string, args ...any) *Error {
	e := &Error{Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

// Parse decodes a query document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode query document: %w", err)
	}
	if len(doc.Statements) == 0 {
		return nil, &Error{Message: "no statements"}
	}
	return &doc, nil
}

// ReadFile reads and decodes the query document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read query document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
