package infitable

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const DefaultCursorCacheSize = 1024

// KeysetSource serves pages of T with keyset pagination. The cache asks for
// the pages of one sort order one after another, so the cursor after each
// page is remembered and the next page continues from it instead of
// skipping rows with OFFSET. An offset without a remembered cursor falls
// back to OFFSET.
type KeysetSource[T any] struct {
	db      *gorm.DB
	scope   func(*gorm.DB) *gorm.DB
	mapping ColumnMapping
	unique  string
	getters Getters[T]
	cursors *lru.Cache[string, *KeysetCursor]
	logger  *slog.Logger
}

// KeysetSourceOption configures a KeysetSource.
type KeysetSourceOption func(*keysetSourceOptions)

type keysetSourceOptions struct {
	scope     func(*gorm.DB) *gorm.DB
	mapping   ColumnMapping
	cacheSize int
	logger    *slog.Logger
}

// WithKeysetScope sets the base query every page is cut from.
func WithKeysetScope(scope func(*gorm.DB) *gorm.DB) KeysetSourceOption {
	return func(o *keysetSourceOptions) {
		o.scope = scope
	}
}

// WithKeysetColumnMapping maps column aliases to SQL columns. Without it the
// aliases are used as is.
func WithKeysetColumnMapping(mapping ColumnMapping) KeysetSourceOption {
	return func(o *keysetSourceOptions) {
		o.mapping = mapping
	}
}

// WithCursorCacheSize bounds the number of remembered page cursors.
func WithCursorCacheSize(size int) KeysetSourceOption {
	return func(o *keysetSourceOptions) {
		o.cacheSize = size
	}
}

// WithKeysetLogger sets the logger page requests are traced to.
func WithKeysetLogger(logger *slog.Logger) KeysetSourceOption {
	return func(o *keysetSourceOptions) {
		o.logger = logger
	}
}

// NewKeysetSource builds a keyset source. unique is the alias of a unique
// column appended to every sort order as a tie-breaker; getters must cover
// it and every sortable column.
func NewKeysetSource[T any](db *gorm.DB, unique string, getters Getters[T], opts ...KeysetSourceOption) (*KeysetSource[T], error) {
	if db == nil {
		return nil, fmt.Errorf("keyset source: db is nil")
	}
	if _, ok := getters[unique]; !ok {
		return nil, fmt.Errorf("keyset source: no getter for unique column '%s'", unique)
	}

	o := keysetSourceOptions{cacheSize: DefaultCursorCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	cursors, err := lru.New[string, *KeysetCursor](max(o.cacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("keyset source: %w", err)
	}

	return &KeysetSource[T]{
		db:      db,
		scope:   o.scope,
		mapping: o.mapping,
		unique:  unique,
		getters: getters,
		cursors: cursors,
		logger:  o.logger,
	}, nil
}

// Fetch implements Source.
func (k *KeysetSource[T]) Fetch(ctx context.Context, offset, pageSize int, sort SortSpec) (Page[T], error) {
	aliases, err := k.orderings(sort)
	if err != nil {
		return Page[T]{}, err
	}
	orderings := lo.Map(aliases, func(o SortSpec, _ int) SortSpec {
		return SortBy(k.column(o.Column), o.Direction)
	})

	pager := NewPager().WithLimit(pageSize).WithLookahead()

	var cursor *KeysetCursor
	if offset == 0 {
		k.forget(sort)
	} else if c, ok := k.cursors.Get(cursorKey(sort, offset)); ok {
		cursor = c
	} else {
		pager = pager.WithOffset(offset)
	}
	if err = pager.validate(); err != nil {
		return Page[T]{}, fmt.Errorf("cannot paginate: %w", err)
	}
	if err = cursor.validate(orderings); err != nil {
		return Page[T]{}, fmt.Errorf("cannot paginate: %w", err)
	}

	cond, _ := cursor.ToSQL()
	k.logger.Debug("fetching keyset page",
		slog.Int("offset", offset),
		slog.String("sort", sort.String()),
		slog.String("cursor", cursor.String()),
		slog.String("condition", cond),
		slog.Bool("offset_fallback", !pager.GetCursor().IsEmpty()),
	)

	query := k.db.WithContext(ctx)
	if k.scope != nil {
		query = k.scope(query)
	}
	query = query.Order(strings.Join(lo.Map(orderings, func(o SortSpec, _ int) string {
		return o.ToSQL()
	}), ", "))
	query = cursor.Apply(query)
	query = pager.GetCursor().Apply(query).Limit(pager.GetDatasetLimit())

	var rows []T
	if err = query.Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("cannot load rows at offset %d: %w", offset, err)
	}

	last := IsLastPage(pager, rows)
	rows = TrimResultSet(pager, rows)
	if !last {
		k.cursors.Add(cursorKey(sort, offset+len(rows)), k.nextCursor(aliases, lo.LastOrEmpty(rows)))
	}

	return Page[T]{Rows: rows, Last: last}, nil
}

// orderings returns the sort order by alias, closed by the unique column.
func (k *KeysetSource[T]) orderings(sort SortSpec) ([]SortSpec, error) {
	if sort.IsEmpty() {
		return []SortSpec{SortBy(k.unique, DirectionASC)}, nil
	}
	if err := sort.validate(); err != nil {
		return nil, err
	}

	if _, ok := k.getters[sort.Column]; !ok {
		return nil, fmt.Errorf("%w '%s'. closest: '%s'", ErrUnknownColumn, sort.Column, closestAlias(sort.Column, lo.Keys(k.getters)))
	}
	if k.mapping != nil {
		if _, ok := k.mapping[sort.Column]; !ok {
			return nil, fmt.Errorf("%w '%s'. closest: '%s'", ErrUnknownColumn, sort.Column, closestAlias(sort.Column, lo.Keys(k.mapping)))
		}
	}

	if sort.Column == k.unique {
		return []SortSpec{sort}, nil
	}

	return []SortSpec{sort, SortBy(k.unique, sort.Direction)}, nil
}

func (k *KeysetSource[T]) column(alias string) string {
	if column, ok := k.mapping[alias]; ok {
		return column
	}

	return alias
}

func (k *KeysetSource[T]) nextCursor(aliases []SortSpec, last T) *KeysetCursor {
	return NewKeysetCursor(lo.Map(aliases, func(o SortSpec, _ int) KeysetElement {
		return KeysetElement{
			Column:   k.column(o.Column),
			Value:    k.getters[o.Column](last),
			Operator: o.Direction.ForOperator(),
		}
	})...)
}

// forget drops the cursors of sort; a first page starts a new scan.
func (k *KeysetSource[T]) forget(sort SortSpec) {
	prefix := cursorKey(sort, 0)
	prefix = prefix[:len(prefix)-1]
	for _, key := range k.cursors.Keys() {
		if strings.HasPrefix(key, prefix) {
			k.cursors.Remove(key)
		}
	}
}

func cursorKey(sort SortSpec, offset int) string {
	return fmt.Sprintf("%s@%d", sort.String(), offset)
}

var _ Source[struct{}] = (*KeysetSource[struct{}])(nil)
