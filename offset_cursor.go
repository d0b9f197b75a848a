package infitable

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

var _encoder = base64.RawURLEncoding

// OffsetCursor marks the position of a page inside the dataset as a plain
// row offset. Its String form is an opaque token suitable for logs and API
// payloads.
type OffsetCursor struct {
	offset int
}

func NewOffsetCursor(offset int) *OffsetCursor {
	return &OffsetCursor{
		offset: offset,
	}
}

// ToSQL returns the string form of the numeric offset value.
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table OFFSET %s", c.ToSQL())
func (c *OffsetCursor) ToSQL() string {
	return strconv.Itoa(c.GetOffset())
}

// String - implements fmt.Stringer.
func (c *OffsetCursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	return _encoder.EncodeToString([]byte(strconv.Itoa(c.offset)))
}

func (c *OffsetCursor) IsEmpty() bool {
	return c == nil || c.offset == 0
}

// Apply applies the offset to a gorm query.
func (c *OffsetCursor) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(c.GetOffset())
}

// GetOffset returns the numeric offset value.
func (c *OffsetCursor) GetOffset() int {
	if c != nil {
		return c.offset
	}

	return 0
}

// WithOffset sets the numeric offset value and returns the cursor.
func (c *OffsetCursor) WithOffset(offset int) *OffsetCursor {
	if c == nil {
		c = new(OffsetCursor)
	}

	c.offset = offset

	return c
}

var _ fmt.Stringer = (*OffsetCursor)(nil)

// NextPageOffsetCursor builds a cursor for the page following resultSet.
// A nil cursor means resultSet was the last page.
func NextPageOffsetCursor[T any](initialPager *Pager, resultSet []T) ([]T, *OffsetCursor, error) {
	err := initialPager.validate()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build next page offset cursor: %w", err)
	}

	if IsLastPage(initialPager, resultSet) {
		return resultSet, nil, nil
	}
	resultSet = TrimResultSet(initialPager, resultSet)

	return resultSet,
		&OffsetCursor{
			offset: initialPager.cursor.GetOffset() + len(resultSet),
		},
		nil
}
