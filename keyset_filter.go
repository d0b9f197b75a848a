package infitable

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

type (
	// comparison is Operator(Column, Value).
	comparison struct {
		Column   string
		Value    any
		Operator Operator
	}

	// comparisonGroup is a list of comparisons joined by AND.
	comparisonGroup []comparison

	// keysetFilter is a disjunction of comparison groups:
	//
	//	(A11 AND A12) OR (A21 AND A22 AND A23) ...
	//
	// It selects every row placed after a cursor in the sort order.
	keysetFilter []comparisonGroup
)

// expression returns "Column Operator ?" as a gorm clause.
func (c comparison) expression() clause.Expression {
	sqlClause, arg := c.toSQL()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// toSQL returns the condition with a "?" placeholder and its argument.
//
//	comparison{Column: "id", Operator: ">", Value: 123} -> ("id > ?", 123)
func (c comparison) toSQL() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), parseAnyValue(c.Value)
}

// parseAnyValue restores timestamps that went through a text encoding.
// Values that do not parse as time.Time are returned unchanged.
func parseAnyValue(v any) any {
	parse := func(b []byte) any {
		var ts time.Time
		if err := ts.UnmarshalText(b); err == nil {
			return ts
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return parse([]byte(vt))
	case []byte:
		return parse(vt)
	default:
		return v
	}
}

func (g comparisonGroup) expression() clause.Expression {
	exprs := make([]clause.Expression, 0, len(g))
	for _, c := range g {
		exprs = append(exprs, c.expression())
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.And(exprs...)
	}
}

// toSQL renders the group as "(K1 AND K2 ...)".
func (g comparisonGroup) toSQL() (string, []driver.Value) {
	if len(g) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(g))
	values := make([]driver.Value, 0, len(g))
	for _, c := range g {
		sqlClause, value := c.toSQL()
		clauses = append(clauses, sqlClause)
		values = append(values, value)
	}

	return fmt.Sprintf("(%s)", strings.Join(clauses, " AND ")), values
}

func (f keysetFilter) expression() clause.Expression {
	exprs := make([]clause.Expression, 0, len(f))
	for _, group := range f {
		if expr := group.expression(); expr != nil {
			exprs = append(exprs, expr)
		}
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}

// toSQL renders the filter, for example
//
//	("((id < ?) OR (id = ? AND name < ?))", [10, 10, "abc"])
//
// An empty filter is "TRUE".
func (f keysetFilter) toSQL() (string, []driver.Value) {
	clauses := make([]string, 0, len(f))
	values := make([]driver.Value, 0, len(f))

	for _, group := range f {
		sqlClause, groupValues := group.toSQL()
		if sqlClause == "" {
			continue
		}

		clauses = append(clauses, sqlClause)
		values = append(values, groupValues...)
	}

	if len(clauses) == 0 {
		return "TRUE", nil
	}

	return fmt.Sprintf("(%s)", strings.Join(clauses, " OR ")), values
}
