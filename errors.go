package infitable

import "errors"

// Errors returned by the infitable package.
var (
	// ErrMissingFetch is returned when a table is configured without a fetch callback.
	ErrMissingFetch = errors.New("fetch callback is nil")

	// ErrMissingColumns is returned when the column schema is empty.
	ErrMissingColumns = errors.New("column schema is empty")

	// ErrMissingQueryKey is returned when no query key is configured.
	ErrMissingQueryKey = errors.New("query key is empty")

	// ErrInvalidPagingMode is returned for paging modes other than default and infinite.
	ErrInvalidPagingMode = errors.New("invalid paging mode")

	// ErrInvalidColumn is returned for malformed column definitions.
	ErrInvalidColumn = errors.New("invalid column definition")

	// ErrUnknownColumn is returned when a column id or alias is not part of the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrColumnNotSortable is returned when a sort is requested on a column that forbids it.
	ErrColumnNotSortable = errors.New("column is not sortable")

	// ErrClosed is returned by operations on a closed table.
	ErrClosed = errors.New("table is closed")
)
