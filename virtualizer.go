package infitable

import (
	"sort"

	"github.com/samber/lo"
)

const (
	DefaultOverscan          = 5
	DefaultEstimateRowHeight = 1
)

// VirtualizerOptions configures a Virtualizer. Sizes are in display lines.
type VirtualizerOptions struct {
	Count int
	// EstimateSize returns the assumed height of a row before it is measured.
	EstimateSize func(index int) int
	// Overscan is the number of rows mounted beyond each edge of the viewport.
	Overscan int
	// MeasureEnabled lets Measure replace estimates with rendered heights.
	// When false every row keeps its estimate.
	MeasureEnabled bool
	ViewportSize   int
}

// VirtualItem is one mounted row of the virtual window.
type VirtualItem struct {
	Index int
	Start int
	Size  int
}

func (v VirtualItem) End() int {
	return v.Start + v.Size
}

// Virtualizer computes which rows of a scroll region must be mounted. It is
// not safe for concurrent use.
type Virtualizer struct {
	estimate       func(int) int
	overscan       int
	measureEnabled bool

	count    int
	viewport int
	scroll   int
	measured map[int]int
	// starts[i] is the offset of row i; starts[count] is the total size.
	// nil when a count or size change invalidated it.
	starts []int
}

func NewVirtualizer(opts VirtualizerOptions) *Virtualizer {
	estimate := opts.EstimateSize
	if estimate == nil {
		estimate = func(int) int { return DefaultEstimateRowHeight }
	}

	return &Virtualizer{
		estimate:       estimate,
		overscan:       lo.Ternary(opts.Overscan < 0, 0, opts.Overscan),
		measureEnabled: opts.MeasureEnabled,
		count:          max(opts.Count, 0),
		viewport:       max(opts.ViewportSize, 0),
		measured:       make(map[int]int),
	}
}

// SetCount updates the number of rows. Measurements of rows past the new
// count are dropped.
func (v *Virtualizer) SetCount(count int) {
	count = max(count, 0)
	if count == v.count {
		return
	}

	for i := range v.measured {
		if i >= count {
			delete(v.measured, i)
		}
	}
	v.count = count
	v.starts = nil
	v.clampScroll()
}

func (v *Virtualizer) Count() int {
	return v.count
}

// SetViewport updates the visible height of the scroll region.
func (v *Virtualizer) SetViewport(size int) {
	v.viewport = max(size, 0)
	v.clampScroll()
}

func (v *Virtualizer) ViewportSize() int {
	return v.viewport
}

// ScrollOffset returns the first visible line of the content.
func (v *Virtualizer) ScrollOffset() int {
	return v.scroll
}

// ScrollTo moves the viewport to offset, clamped to the content.
func (v *Virtualizer) ScrollTo(offset int) {
	v.scroll = offset
	v.clampScroll()
}

func (v *Virtualizer) ScrollBy(delta int) {
	v.ScrollTo(v.scroll + delta)
}

// ScrollToIndex aligns the top of row index with the top of the viewport.
func (v *Virtualizer) ScrollToIndex(index int) {
	if v.count == 0 {
		v.scroll = 0
		return
	}

	index = lo.Clamp(index, 0, v.count-1)
	v.ScrollTo(v.offsets()[index])
}

// Measure records the rendered height of row index. It reports whether the
// measurement was taken; with measurement disabled the estimate is kept.
// A size change of a row above the viewport shifts the scroll offset so the
// visible content stays in place.
func (v *Virtualizer) Measure(index, size int) bool {
	if !v.measureEnabled || size <= 0 || index < 0 || index >= v.count {
		return false
	}

	prev := v.sizeOf(index)
	if prev == size {
		return true
	}

	start := v.offsets()[index]
	v.measured[index] = size
	v.starts = nil

	if start < v.scroll {
		v.scroll += size - prev
	}
	v.clampScroll()

	return true
}

// TotalSize returns the height of the whole content.
func (v *Virtualizer) TotalSize() int {
	return v.offsets()[v.count]
}

// VisibleRange returns the inclusive range of rows intersecting the
// viewport, without overscan. ok is false when nothing is visible.
func (v *Virtualizer) VisibleRange() (first, last int, ok bool) {
	if v.count == 0 || v.viewport == 0 {
		return 0, -1, false
	}

	starts := v.offsets()
	end := v.scroll + v.viewport

	// First row whose end lies below the scroll offset.
	first = sort.Search(v.count, func(i int) bool {
		return starts[i+1] > v.scroll
	})
	// Last row starting above the viewport end.
	last = sort.Search(v.count, func(i int) bool {
		return starts[i] >= end
	}) - 1

	if first >= v.count || last < first {
		return 0, -1, false
	}

	return first, last, true
}

// VirtualItems returns the rows to mount: the visible range widened by the
// overscan on both sides.
func (v *Virtualizer) VirtualItems() []VirtualItem {
	first, last, ok := v.VisibleRange()
	if !ok {
		return nil
	}

	first = max(first-v.overscan, 0)
	last = min(last+v.overscan, v.count-1)

	starts := v.offsets()
	items := make([]VirtualItem, 0, last-first+1)
	for i := first; i <= last; i++ {
		items = append(items, VirtualItem{
			Index: i,
			Start: starts[i],
			Size:  starts[i+1] - starts[i],
		})
	}

	return items
}

func (v *Virtualizer) sizeOf(index int) int {
	if size, ok := v.measured[index]; ok {
		return size
	}

	return max(v.estimate(index), 1)
}

func (v *Virtualizer) offsets() []int {
	if v.starts != nil {
		return v.starts
	}

	starts := make([]int, v.count+1)
	for i := 0; i < v.count; i++ {
		starts[i+1] = starts[i] + v.sizeOf(i)
	}
	v.starts = starts

	return starts
}

func (v *Virtualizer) clampScroll() {
	maxScroll := max(v.TotalSize()-v.viewport, 0)
	v.scroll = lo.Clamp(v.scroll, 0, maxScroll)
}
