package infitable

import "fmt"

// Status describes what a frame shows besides rows.
type Status int

const (
	StatusIdle Status = iota
	// StatusLoading is reported before the first rows of the table arrive.
	StatusLoading
	// StatusFetching is reported while a page is in flight.
	StatusFetching
	// StatusError is reported after the last fetch failed.
	StatusError
)

const (
	LoadingText  = "Loading..."
	FetchingText = "Fetching More..."
)

// FrameRow is a mounted row positioned at Start lines from the top of the body.
type FrameRow struct {
	Row
	Start int
	Size  int
}

// Frame is an immutable render snapshot of a Shell.
type Frame struct {
	Headers     []HeaderGroup
	FixedHeader bool
	Rows        []FrameRow
	// TotalSize is the height of the whole body; ScrollOffset the first
	// visible line of it.
	TotalSize    int
	ScrollOffset int
	ViewportSize int
	RowCount     int
	Sort         SortSpec
	Status       Status
	HasNextPage  bool
	Err          error
}

// StatusText returns the textual indicator of the frame status.
func (f Frame) StatusText() string {
	switch f.Status {
	case StatusLoading:
		return LoadingText
	case StatusFetching:
		return FetchingText
	case StatusError:
		return fmt.Sprintf("Failed to fetch rows: %v", f.Err)
	default:
		return ""
	}
}

// Frame renders the current state into a Frame. Only mounted rows are
// formatted.
func (s *Shell[T]) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.query.Snapshot()
	f := Frame{
		Headers:      s.table.HeaderGroups(s.sort),
		FixedHeader:  s.opts.FixedHeader,
		TotalSize:    s.virt.TotalSize(),
		ScrollOffset: s.virt.ScrollOffset(),
		ViewportSize: s.virt.ViewportSize(),
		RowCount:     len(snap.Rows),
		Sort:         s.sort,
		HasNextPage:  snap.HasNextPage,
		Err:          snap.Err,
	}

	switch {
	case snap.IsLoading:
		f.Status = StatusLoading
	case snap.IsFetching:
		f.Status = StatusFetching
	case snap.Err != nil:
		f.Status = StatusError
	}

	if f.Status == StatusLoading {
		return f
	}

	items := s.virt.VirtualItems()
	f.Rows = make([]FrameRow, 0, len(items))
	for _, item := range items {
		if item.Index >= len(snap.Rows) {
			break
		}
		f.Rows = append(f.Rows, FrameRow{
			Row:   s.table.row(snap.Rows[item.Index], item.Index),
			Start: item.Start,
			Size:  item.Size,
		})
	}

	return f
}
