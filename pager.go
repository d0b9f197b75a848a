package infitable

import (
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Pager applies one page request (offset, page size, sort) to a gorm query.
type Pager struct {
	lookahead bool
	limit     int
	cursor    *OffsetCursor
	sort      SortSpec
}

func NewPager() *Pager {
	return new(Pager)
}

// WithLookahead enables lookahead pagination, which fetches one extra row to
// determine whether the current page is the last.
func (p *Pager) WithLookahead() *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.lookahead = true

	return p
}

// WithLimit sets the page size. NormalizePageSize is applied.
func (p *Pager) WithLimit(limit int) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.limit = NormalizePageSize(limit)

	return p
}

// WithCursor sets the cursor explicitly.
func (p *Pager) WithCursor(cursor *OffsetCursor) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.cursor = cursor

	return p
}

// WithOffset is a shorthand for WithCursor(NewOffsetCursor(offset)).
func (p *Pager) WithOffset(offset int) *Pager {
	return p.WithCursor(NewOffsetCursor(offset))
}

// WithSort replaces the sort spec.
func (p *Pager) WithSort(sort SortSpec) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.sort = sort

	return p
}

// Paginate applies pagination to the dataset. Returns an error if pagination
// cannot be applied.
func (p *Pager) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if p == nil {
		p = new(Pager)
	}

	err := p.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = p.sort.Apply(db)
	db = p.cursor.Apply(db)

	// When lookahead is enabled, fetch one extra record to determine if there
	// is a next page.
	return db.Limit(p.GetDatasetLimit()), nil
}

// GetSort returns the sort spec that will be applied to the dataset.
func (p *Pager) GetSort() SortSpec {
	if p == nil {
		return SortSpec{}
	}

	return p.sort
}

// IsLookahead returns true if lookahead pagination is enabled.
func (p *Pager) IsLookahead() bool {
	if p == nil {
		return false
	}

	return p.lookahead
}

// GetLimit returns the page size as it is stored in Pager.
func (p *Pager) GetLimit() int {
	if p == nil {
		return 0
	}

	return p.limit
}

// GetCursor returns the cursor stored in Pager as-is.
func (p *Pager) GetCursor() *OffsetCursor {
	if p == nil {
		return nil
	}

	return p.cursor
}

// GetDatasetLimit returns the limit adjusted for lookahead:
//   - if Lookahead = true → GetLimit() + 1
//   - if Lookahead = false → GetLimit()
func (p *Pager) GetDatasetLimit() int {
	limit := p.GetLimit()

	return lo.Ternary(p.IsLookahead(), limit+1, limit)
}

func (p *Pager) validate() error {
	if p == nil {
		return fmt.Errorf("pager is nil")
	}

	if p.limit <= 0 {
		return fmt.Errorf("page size is not set")
	}

	if p.cursor.GetOffset() < 0 {
		return fmt.Errorf("negative offset %d", p.cursor.GetOffset())
	}

	return p.sort.validate()
}

// IsLastPage returns true if the result set is the last page in the dataset.
//
// The last page is determined by one of two conditions:
//  1. The number of returned records is less than the page size.
//  2. Lookahead = true and the number of returned records is less than or
//     equal to the page size.
func IsLastPage[T any](initialPager *Pager, resultSet []T) bool {
	return len(resultSet) < initialPager.GetLimit() ||
		(initialPager.IsLookahead() && len(resultSet) <= initialPager.GetLimit())
}

// TrimResultSet trims the result set to what should be returned to the caller.
//
// If lookahead = true and the extra row arrived, drop it. Suppose the page
// size is 2 and resultSet = [a, b, c].
//
//   - With lookahead → resultSet becomes [a, b].
//   - Without lookahead → resultSet remains unchanged.
func TrimResultSet[T any](initialPager *Pager, resultSet []T) []T {
	if initialPager.IsLookahead() && len(resultSet) > initialPager.GetLimit() {
		resultSet = resultSet[:initialPager.GetLimit()]
	}

	return resultSet
}
