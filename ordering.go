package infitable

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction requested from the data source.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the keyset operator that continues a scan in this
// direction.
func (o Direction) ForOperator() Operator {
	if o == DirectionDESC {
		return OperatorLT
	}

	return OperatorGT
}

// Indicator returns the glyph shown next to a sorted header.
func (o Direction) Indicator() string {
	switch o {
	case DirectionASC:
		return " ⬆"
	case DirectionDESC:
		return " ⬇"
	default:
		return ""
	}
}

type (
	// SortSpec holds at most one active (column, direction) pair. The zero
	// value means unsorted.
	SortSpec struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

// SortBy is a shorthand for SortSpec{Column: column, Direction: direction}.
func SortBy(column string, direction Direction) SortSpec {
	return SortSpec{Column: column, Direction: direction}
}

// IsEmpty reports whether the spec describes the unsorted state.
func (s SortSpec) IsEmpty() bool {
	return s.Column == "" || s.Direction == DirectionNone
}

// DirectionFor returns the direction applied to column, DirectionNone when
// the column is not the sorted one.
func (s SortSpec) DirectionFor(column string) Direction {
	if s.IsEmpty() || s.Column != column {
		return DirectionNone
	}

	return s.Direction
}

// String returns "<column> <direction>" or an empty string when unsorted.
func (s SortSpec) String() string {
	if s.IsEmpty() {
		return ""
	}

	return fmt.Sprintf("%s %s", s.Column, s.Direction)
}

// ToSQL returns the ORDER BY fragment for the spec.
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table ORDER BY %s", spec.ToSQL())
func (s SortSpec) ToSQL() string {
	return s.String()
}

// Apply applies the ordering to a gorm query. An empty spec leaves the query
// untouched.
func (s SortSpec) Apply(db *gorm.DB) *gorm.DB {
	if s.IsEmpty() {
		return db
	}

	return db.Order(s.ToSQL())
}

func (s SortSpec) validate() error {
	if s.IsEmpty() {
		return nil
	}

	if !s.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", s.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(s.Column)) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", s.Column)
	}

	return nil
}

// ParseSort builds a SortSpec from a string in the format "column asc|desc".
// Column aliases are resolved via ColumnMapping. An empty string yields the
// unsorted spec. Returns an error if an alias is not found in the mapping.
func ParseSort(stringOrdering string, columnMapping ColumnMapping) (SortSpec, error) {
	stringOrdering = strings.TrimSpace(stringOrdering)
	if stringOrdering == "" {
		return SortSpec{}, nil
	}

	cutStringOrdering := strings.Fields(stringOrdering)
	if len(cutStringOrdering) != 2 {
		return SortSpec{}, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
	}

	columnAlias := cutStringOrdering[0]
	direction := Direction(strings.ToUpper(cutStringOrdering[1]))
	if !direction.Valid() {
		return SortSpec{}, fmt.Errorf("invalid ordering direction '%s'", cutStringOrdering[1])
	}

	columnName := columnMapping[columnAlias]
	if columnName == "" {
		return SortSpec{}, fmt.Errorf("%w. closest: '%s'", ErrUnknownColumn, closestAlias(columnAlias, lo.Keys(columnMapping)))
	}

	return SortSpec{Column: columnName, Direction: direction}, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
