package infitable

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Comparator orders two rows by one column, returning a negative number,
// zero or a positive number like cmp.Compare.
type Comparator[T any] func(a, b T) int

// SliceSource serves pages from an in-memory slice. It sorts on the source
// side, so a table backed by it still never sorts locally.
type SliceSource[T any] struct {
	rows        []T
	comparators map[string]Comparator[T]
}

func NewSliceSource[T any](rows []T, comparators map[string]Comparator[T]) *SliceSource[T] {
	return &SliceSource[T]{
		rows:        slices.Clone(rows),
		comparators: comparators,
	}
}

// Len returns the number of rows in the source.
func (s *SliceSource[T]) Len() int {
	return len(s.rows)
}

// Fetch implements Source.
func (s *SliceSource[T]) Fetch(ctx context.Context, offset, pageSize int, sort SortSpec) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	if offset < 0 || pageSize <= 0 {
		return Page[T]{}, fmt.Errorf("invalid page window offset=%d size=%d", offset, pageSize)
	}

	rows := s.rows
	if !sort.IsEmpty() {
		cmp, ok := s.comparators[sort.Column]
		if !ok {
			return Page[T]{}, fmt.Errorf("%w '%s'. closest: '%s'", ErrUnknownColumn, sort.Column, closestAlias(sort.Column, lo.Keys(s.comparators)))
		}

		rows = slices.Clone(rows)
		slices.SortStableFunc(rows, func(a, b T) int {
			return lo.Ternary(sort.Direction == DirectionDESC, cmp(b, a), cmp(a, b))
		})
	}

	start := min(offset, len(rows))
	end := min(offset+pageSize, len(rows))

	return Page[T]{
		Rows: slices.Clone(rows[start:end]),
		Last: end >= len(rows),
	}, nil
}

var _ Source[struct{}] = (*SliceSource[struct{}])(nil)
