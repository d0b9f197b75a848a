package infitable

import (
	"fmt"
)

const DefaultColumnWidth = 20

// Column describes one displayed column. The schema is captured when the
// table is built and never changes afterwards.
type Column[T any] struct {
	// ID identifies the column and is passed to the source as the sort column.
	ID string
	// Header is the title shown in the header row. Defaults to ID.
	Header string
	// Width in terminal cells. Defaults to DefaultColumnWidth.
	Width int
	// DisableSorting removes the sort affordance from the header.
	DisableSorting bool
	// Cell renders the column value of a row.
	Cell func(row T) string
}

// Accessor builds a column whose cells are formatted with %v.
func Accessor[T any, V any](id, header string, get func(T) V) Column[T] {
	return Column[T]{
		ID:     id,
		Header: header,
		Cell: func(row T) string {
			return fmt.Sprintf("%v", get(row))
		},
	}
}

// CanSort reports whether the header offers a sort toggle.
func (c Column[T]) CanSort() bool {
	return !c.DisableSorting
}

func (c Column[T]) title() string {
	if c.Header == "" {
		return c.ID
	}

	return c.Header
}

func (c Column[T]) width() int {
	if c.Width <= 0 {
		return DefaultColumnWidth
	}

	return c.Width
}

func (c Column[T]) validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidColumn)
	}
	if c.Cell == nil {
		return fmt.Errorf("%w: column '%s' has no cell accessor", ErrInvalidColumn, c.ID)
	}

	return nil
}
