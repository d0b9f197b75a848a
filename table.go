package infitable

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// Table is the tabular model: it derives header and row structure from the
// column schema. Sorting is manual, rows are never reordered here.
type Table[T any] struct {
	columns []Column[T]
	index   map[string]int
}

type (
	HeaderGroup struct {
		ID      string
		Headers []Header
	}

	Header struct {
		ColumnID string
		Title    string
		Width    int
		CanSort  bool
		Sorted   Direction
	}

	Row struct {
		// ID is stable for the row position within the current row set.
		ID    string
		Index int
		Cells []Cell
	}

	Cell struct {
		ColumnID string
		Value    string
		Width    int
	}
)

// Indicator returns the sort glyph of the header, empty when unsorted.
func (h Header) Indicator() string {
	return h.Sorted.Indicator()
}

func NewTable[T any](columns []Column[T]) (*Table[T], error) {
	if len(columns) == 0 {
		return nil, ErrMissingColumns
	}

	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if err := col.validate(); err != nil {
			return nil, err
		}
		if _, dup := index[col.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate column id '%s'", ErrInvalidColumn, col.ID)
		}
		index[col.ID] = i
	}

	return &Table[T]{
		columns: slices.Clone(columns),
		index:   index,
	}, nil
}

// Columns returns a copy of the schema.
func (t *Table[T]) Columns() []Column[T] {
	return slices.Clone(t.columns)
}

// Column looks a column up by id.
func (t *Table[T]) Column(id string) (Column[T], bool) {
	i, ok := t.index[id]
	if !ok {
		return Column[T]{}, false
	}

	return t.columns[i], true
}

// HeaderGroups returns the header rows for the given sort state.
func (t *Table[T]) HeaderGroups(sort SortSpec) []HeaderGroup {
	headers := lo.Map(t.columns, func(col Column[T], _ int) Header {
		return Header{
			ColumnID: col.ID,
			Title:    col.title(),
			Width:    col.width(),
			CanSort:  col.CanSort(),
			Sorted:   sort.DirectionFor(col.ID),
		}
	})

	return []HeaderGroup{{ID: "0", Headers: headers}}
}

// Rows builds the row structure for data in the order given.
func (t *Table[T]) Rows(data []T) []Row {
	return lo.Map(data, func(item T, i int) Row {
		return t.row(item, i)
	})
}

func (t *Table[T]) row(item T, i int) Row {
	return Row{
		ID:    strconv.Itoa(i),
		Index: i,
		Cells: lo.Map(t.columns, func(col Column[T], _ int) Cell {
			return Cell{ColumnID: col.ID, Value: col.Cell(item), Width: col.width()}
		}),
	}
}

// NextSort returns the sort spec after the user toggles columnID.
//
// A column cycles unsorted → ascending → descending → unsorted. Toggling a
// column other than the sorted one starts it at ascending.
func (t *Table[T]) NextSort(current SortSpec, columnID string) (SortSpec, error) {
	col, ok := t.Column(columnID)
	if !ok {
		return current, fmt.Errorf("%w '%s'", ErrUnknownColumn, columnID)
	}
	if !col.CanSort() {
		return current, fmt.Errorf("%w: '%s'", ErrColumnNotSortable, columnID)
	}

	switch current.DirectionFor(columnID) {
	case DirectionNone:
		return SortBy(columnID, DirectionASC), nil
	case DirectionASC:
		return SortBy(columnID, DirectionDESC), nil
	default:
		return SortSpec{}, nil
	}
}
