package infitable

import (
	"fmt"
	"log/slog"
)

const DefaultMaxConcurrentFetches = 4

// Options configures a Shell.
type Options[T any] struct {
	// Columns is the schema, captured once by New.
	Columns []Column[T]
	// Fetch loads one page; required.
	Fetch FetchFunc[T]
	// PageSize is the number of rows requested per fetch.
	PageSize int
	// QueryKey namespaces the cache entries of this table.
	QueryKey string
	// Height of the scrollable body in lines. Zero leaves the viewport empty
	// until Resize is called with the host's full height.
	Height int
	// PagingMode is PagingDefault (one page) or PagingInfinite.
	PagingMode PagingMode
	// FixedHeader keeps the header pinned while the body scrolls. The zero
	// value leaves it unpinned, so renderers show it only while the body is
	// scrolled to the top. The infitable CLI sets it by default.
	FixedHeader bool
	// Overscan rows rendered beyond each edge of the viewport. Zero selects
	// DefaultOverscan, a negative value disables overscan.
	Overscan int
	// EstimateRowHeight is the assumed height of an unmeasured row.
	EstimateRowHeight int
	// MeasureRows enables MeasureRow; leave it off where rendered heights
	// are not reliable and rows keep EstimateRowHeight.
	MeasureRows bool
	// Client is a cache shared between tables. A private one is created
	// when nil.
	Client *Client[T]
	// MaxConcurrentFetches bounds the fetch task queue.
	MaxConcurrentFetches int
	Logger               *slog.Logger
	// OnChange is called after a fetch settles.
	OnChange func()
}

func (o Options[T]) normalize() (Options[T], error) {
	if o.Fetch == nil {
		return o, ErrMissingFetch
	}
	if len(o.Columns) == 0 {
		return o, ErrMissingColumns
	}
	if o.QueryKey == "" {
		return o, ErrMissingQueryKey
	}
	if o.PagingMode == "" {
		o.PagingMode = PagingDefault
	}
	if !o.PagingMode.Valid() {
		return o, fmt.Errorf("%w '%s'", ErrInvalidPagingMode, o.PagingMode)
	}
	if o.Height < 0 {
		return o, fmt.Errorf("negative height %d", o.Height)
	}

	o.PageSize = NormalizePageSize(o.PageSize)

	switch {
	case o.Overscan == 0:
		o.Overscan = DefaultOverscan
	case o.Overscan < 0:
		o.Overscan = 0
	}
	if o.EstimateRowHeight <= 0 {
		o.EstimateRowHeight = DefaultEstimateRowHeight
	}
	if o.MaxConcurrentFetches <= 0 {
		o.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return o, nil
}
