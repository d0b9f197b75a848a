package infitable

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Operator compares a column with the value it had in the last row of a page.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq only appears in expanded filters.
	operatorEq Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorGT || o == OperatorLT
}

// ForDirection returns the sort direction the operator continues.
func (o Operator) ForDirection() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to a direction", o))
	}
}

// KeysetCursor is the position right after the last row of a page:
//
//	[(C1, O1, V1), (C2, O2, V2) ... (Cn, On, Vn)]
//
// with one triple per sort column. The last column must be unique, otherwise
// rows sharing its value may be skipped.
type KeysetCursor struct {
	elements []KeysetElement
}

// KeysetElement is one (column, value, operator) triple of a cursor.
type KeysetElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func NewKeysetCursor(elements ...KeysetElement) *KeysetCursor {
	return &KeysetCursor{
		elements: elements,
	}
}

// String implements fmt.Stringer.
func (c *KeysetCursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	raw, err := json.Marshal(c.elements)
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, raw); err != nil {
		panic(fmt.Errorf("cannot compact cursor value: %w", err))
	}

	return _encoder.EncodeToString(buf.Bytes())
}

func (c *KeysetCursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// Apply restricts db to the rows after the cursor.
func (c *KeysetCursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.filter().expression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// ToSQL returns the cursor condition with "?" placeholders.
//
// Usage:
//
//	cond, args := c.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", cond)
func (c *KeysetCursor) ToSQL() (string, []driver.Value) {
	return c.filter().toSQL()
}

// filter expands the cursor into
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
func (c *KeysetCursor) filter() keysetFilter {
	if c.IsEmpty() {
		return nil
	}

	f := make(keysetFilter, 0, len(c.elements))
	for i := range c.elements {
		group := make(comparisonGroup, 0, i+1)
		group = append(group, lo.Map(c.elements[:i], func(e KeysetElement, _ int) comparison {
			return comparison{Column: e.Column, Value: e.Value, Operator: operatorEq}
		})...)
		group = append(group, comparison(c.elements[i]))

		f = append(f, group)
	}

	return f
}

// validate checks that the cursor follows orderings column by column.
func (c *KeysetCursor) validate(orderings []SortSpec) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(orderings) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i, elem := range c.elements {
		orderBy := orderings[i]

		if elem.Column != orderBy.Column {
			return fmt.Errorf("unexpected cursor column '%s'", elem.Column)
		}
		if !elem.Operator.Valid() {
			return fmt.Errorf("invalid cursor operator '%s'", elem.Operator)
		}
		if elem.Operator.ForDirection() != orderBy.Direction {
			return fmt.Errorf("unexpected cursor operator '%s'", elem.Operator)
		}
	}

	return nil
}

var _ fmt.Stringer = (*KeysetCursor)(nil)

// Getters extract the value of each sort column from a row, keyed by column
// alias:
//
//	infitable.Getters[User]{
//		"id":   func(u User) any { return u.ID },
//		"name": func(u User) any { return u.Name },
//	}
type Getters[T any] map[string]func(T) any
