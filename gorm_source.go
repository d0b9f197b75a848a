package infitable

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormSource serves pages of T from a gorm query using LIMIT/OFFSET.
type GormSource[T any] struct {
	db        *gorm.DB
	scope     func(*gorm.DB) *gorm.DB
	mapping   ColumnMapping
	lookahead bool
}

// GormSourceOption configures a GormSource.
type GormSourceOption func(*gormSourceOptions)

type gormSourceOptions struct {
	scope     func(*gorm.DB) *gorm.DB
	mapping   ColumnMapping
	lookahead bool
}

// WithScope sets the base query (table, joins, filters) every page is cut from.
func WithScope(scope func(*gorm.DB) *gorm.DB) GormSourceOption {
	return func(o *gormSourceOptions) {
		o.scope = scope
	}
}

// WithColumnMapping restricts sorting to the given column ids and maps them
// to SQL columns.
func WithColumnMapping(mapping ColumnMapping) GormSourceOption {
	return func(o *gormSourceOptions) {
		o.mapping = mapping
	}
}

// WithSourceLookahead fetches one extra row per page so the last page is
// recognized without a trailing empty fetch.
func WithSourceLookahead() GormSourceOption {
	return func(o *gormSourceOptions) {
		o.lookahead = true
	}
}

func NewGormSource[T any](db *gorm.DB, opts ...GormSourceOption) (*GormSource[T], error) {
	if db == nil {
		return nil, fmt.Errorf("gorm source: db is nil")
	}

	var o gormSourceOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &GormSource[T]{
		db:        db,
		scope:     o.scope,
		mapping:   o.mapping,
		lookahead: o.lookahead,
	}, nil
}

// Fetch implements Source.
func (g *GormSource[T]) Fetch(ctx context.Context, offset, pageSize int, sort SortSpec) (Page[T], error) {
	sort, err := g.resolveSort(sort)
	if err != nil {
		return Page[T]{}, err
	}

	pager := NewPager().
		WithLimit(pageSize).
		WithOffset(offset).
		WithSort(sort)
	if g.lookahead {
		pager = pager.WithLookahead()
	}

	query := g.db.WithContext(ctx)
	if g.scope != nil {
		query = g.scope(query)
	}

	paged, err := pager.Paginate(query)
	if err != nil {
		return Page[T]{}, err
	}

	var rows []T
	if err = paged.Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("cannot load rows at offset %d: %w", offset, err)
	}

	rows, next, err := NextPageOffsetCursor(pager, rows)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Rows: rows, Last: next == nil}, nil
}

func (g *GormSource[T]) resolveSort(sort SortSpec) (SortSpec, error) {
	if sort.IsEmpty() || g.mapping == nil {
		return sort, nil
	}

	column, ok := g.mapping[sort.Column]
	if !ok {
		return SortSpec{}, fmt.Errorf("%w '%s'. closest: '%s'", ErrUnknownColumn, sort.Column, closestAlias(sort.Column, lo.Keys(g.mapping)))
	}

	return SortBy(column, sort.Direction), nil
}

var _ Source[struct{}] = (*GormSource[struct{}])(nil)
