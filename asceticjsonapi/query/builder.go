package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
)

type joinKind string

const (
	innerJoin     joinKind = "INNER JOIN"
	leftOuterJoin joinKind = "LEFT OUTER JOIN"
)

type join struct {
	kind  joinKind
	table string
	left  string
	right string
}

type predicate interface {
	compile(c *compiler)
}

type equals struct {
	column string
	value  any
}

func (p equals) compile(c *compiler) {
	if p.value == nil {
		c.sql.WriteString(quote(p.column))
		c.sql.WriteString(" IS NULL")
		return
	}
	c.sql.WriteString(quote(p.column))
	c.sql.WriteString(" = ")
	c.sql.WriteString(c.param(p.value))
}

type in struct {
	column string
	values []any
}

func (p in) compile(c *compiler) {
	if len(p.values) == 0 {
		c.sql.WriteString("FALSE")
		return
	}
	c.sql.WriteString(quote(p.column))
	c.sql.WriteString(" IN (")
	for i, v := range p.values {
		if i > 0 {
			c.sql.WriteString(", ")
		}
		c.sql.WriteString(c.param(v))
	}
	c.sql.WriteString(")")
}

// Builder is a lazy SELECT against one table. Nothing touches the database
// until Fetch is called, so callers may keep narrowing it.
// A Builder belongs to one request and is not safe for concurrent mutation.
type Builder struct {
	table   string
	columns []string
	joins   []join
	where   []predicate
	limit   int
}

func Table(name string) *Builder {
	return &Builder{table: name}
}

func (b *Builder) TableName() string {
	return b.table
}

// Select replaces the selected columns. No columns, or "*", selects everything.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Where adds one equality predicate per key. Keys are applied in sorted order
// so the same conditions always compile to the same statement.
func (b *Builder) Where(conditions map[string]any) *Builder {
	keys := make([]string, 0, len(conditions))
	for k := range conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.where = append(b.where, equals{column: k, value: conditions[k]})
	}
	return b
}

// WhereIn keeps values as given, duplicates included.
func (b *Builder) WhereIn(column string, values []any) *Builder {
	b.where = append(b.where, in{column: column, values: append([]any(nil), values...)})
	return b
}

func (b *Builder) Join(table, left, right string) *Builder {
	b.joins = append(b.joins, join{kind: innerJoin, table: table, left: left, right: right})
	return b
}

func (b *Builder) LeftOuterJoin(table, left, right string) *Builder {
	b.joins = append(b.joins, join{kind: leftOuterJoin, table: table, left: left, right: right})
	return b
}

// First narrows the query to a single row.
func (b *Builder) First() *Builder {
	b.limit = 1
	return b
}

func (b *Builder) Compile() (sql string, params []any, err error) {
	if b.table == "" {
		return "", nil, errors.New("query: table is not set")
	}
	c := &compiler{}
	c.sql.WriteString("SELECT ")
	c.sql.WriteString(b.selection())
	c.sql.WriteString(" FROM ")
	c.sql.WriteString(quote(b.table))
	for _, j := range b.joins {
		fmt.Fprintf(&c.sql, " %s %s ON %s = %s", j.kind, quote(j.table), quote(j.left), quote(j.right))
	}
	c.where(b.where)
	if b.limit > 0 {
		fmt.Fprintf(&c.sql, " LIMIT %d", b.limit)
	}
	return c.result()
}

func (b *Builder) selection() string {
	if len(b.columns) == 0 {
		return "*"
	}
	quoted := make([]string, len(b.columns))
	for i, column := range b.columns {
		quoted[i] = quote(column)
	}
	return strings.Join(quoted, ", ")
}

// Fetch compiles and runs the query and returns every row.
func (b *Builder) Fetch(s session.DbSession) ([]Record, error) {
	sql, params, err := b.Compile()
	if err != nil {
		return nil, err
	}
	rows, err := s.Connection().Query(sql, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch from %s", b.table)
	}
	defer rows.Close()
	return ScanRecords(rows)
}

// CompileInsert builds an INSERT of values that returns the stored row.
func (b *Builder) CompileInsert(values Record) (sql string, params []any, err error) {
	if b.table == "" {
		return "", nil, errors.New("query: table is not set")
	}
	c := &compiler{}
	keys := values.keys()
	fmt.Fprintf(&c.sql, "INSERT INTO %s ", quote(b.table))
	if len(keys) == 0 {
		c.sql.WriteString("DEFAULT VALUES")
	} else {
		columns := make([]string, len(keys))
		placeholders := make([]string, len(keys))
		for i, k := range keys {
			columns[i] = quote(k)
			placeholders[i] = c.param(values[k])
		}
		fmt.Fprintf(&c.sql, "(%s) VALUES (%s)", strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	}
	c.sql.WriteString(" RETURNING *")
	return c.result()
}

// CompileUpdate builds an UPDATE of values restricted by the builder's predicates.
func (b *Builder) CompileUpdate(values Record) (sql string, params []any, err error) {
	if b.table == "" {
		return "", nil, errors.New("query: table is not set")
	}
	keys := values.keys()
	if len(keys) == 0 {
		return "", nil, errors.Errorf("query: nothing to update in %s", b.table)
	}
	c := &compiler{}
	fmt.Fprintf(&c.sql, "UPDATE %s SET ", quote(b.table))
	for i, k := range keys {
		if i > 0 {
			c.sql.WriteString(", ")
		}
		c.sql.WriteString(quote(k))
		c.sql.WriteString(" = ")
		c.sql.WriteString(c.param(values[k]))
	}
	c.where(b.where)
	return c.result()
}

// CompileDelete builds a DELETE restricted by the builder's predicates.
func (b *Builder) CompileDelete() (sql string, params []any, err error) {
	if b.table == "" {
		return "", nil, errors.New("query: table is not set")
	}
	c := &compiler{}
	fmt.Fprintf(&c.sql, "DELETE FROM %s", quote(b.table))
	c.where(b.where)
	return c.result()
}

func (b *Builder) Insert(s session.DbSession, values Record) (Record, error) {
	sql, params, err := b.CompileInsert(values)
	if err != nil {
		return nil, err
	}
	rows, err := s.Connection().Query(sql, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to insert into %s", b.table)
	}
	defer rows.Close()
	records, err := ScanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Errorf("query: insert into %s returned no row", b.table)
	}
	return records[0], nil
}

func (b *Builder) Update(s session.DbSession, values Record) (int64, error) {
	sql, params, err := b.CompileUpdate(values)
	if err != nil {
		return 0, err
	}
	return exec(s, b.table, sql, params)
}

func (b *Builder) Delete(s session.DbSession) (int64, error) {
	sql, params, err := b.CompileDelete()
	if err != nil {
		return 0, err
	}
	return exec(s, b.table, sql, params)
}

func exec(s session.DbSession, table, sql string, params []any) (int64, error) {
	r, err := s.Connection().Exec(sql, params...)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to modify %s", table)
	}
	return r.RowsAffected()
}

type compiler struct {
	sql    strings.Builder
	params []any
}

func (c *compiler) param(value any) string {
	c.params = append(c.params, value)
	return fmt.Sprintf("$%d", len(c.params))
}

func (c *compiler) where(predicates []predicate) {
	for i, p := range predicates {
		if i == 0 {
			c.sql.WriteString(" WHERE ")
		} else {
			c.sql.WriteString(" AND ")
		}
		p.compile(c)
	}
}

func (c *compiler) result() (string, []any, error) {
	return c.sql.String(), c.params, nil
}

// quote sanitizes a possibly qualified identifier ("dogs.owner_id").
// A trailing "*" is kept unquoted so "people.*" selects every column of people.
func quote(name string) string {
	if name == "*" {
		return name
	}
	parts := strings.Split(name, ".")
	if parts[len(parts)-1] == "*" {
		return pgx.Identifier(parts[:len(parts)-1]).Sanitize() + ".*"
	}
	return pgx.Identifier(parts).Sanitize()
}
