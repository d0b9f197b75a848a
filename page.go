package infitable

import (
	"context"

	"github.com/samber/lo"
)

// Page is the result of one fetch.
type Page[T any] struct {
	// Rows fetched for the requested offset, in display order.
	Rows []T
	// Last may be set by sources that know the dataset ended here. A page
	// with fewer rows than the page size is treated as last regardless.
	Last bool
}

// IsLast reports whether no further pages should be requested after p.
func (p Page[T]) IsLast(pageSize int) bool {
	return p.Last || len(p.Rows) < pageSize
}

// FetchFunc loads pageSize rows starting at offset, ordered by sort. It must
// be pure with respect to offset and sort; the table never sorts locally.
type FetchFunc[T any] func(ctx context.Context, offset, pageSize int, sort SortSpec) (Page[T], error)

// Source is implemented by data sources that can back a table.
type Source[T any] interface {
	Fetch(ctx context.Context, offset, pageSize int, sort SortSpec) (Page[T], error)
}

// SourceFunc adapts a Source to a FetchFunc.
func SourceFunc[T any](s Source[T]) FetchFunc[T] {
	if s == nil {
		return nil
	}

	return s.Fetch
}

// pageSet is the append-only list of pages fetched for one identity.
type pageSet[T any] []Page[T]

func (s pageSet[T]) flatten() []T {
	return lo.FlatMap(s, func(p Page[T], _ int) []T {
		return p.Rows
	})
}
