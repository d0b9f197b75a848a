package infitable

import (
	"fmt"
	"sync"
)

// PagingMode selects how a table pages through its source.
type PagingMode string

const (
	// PagingDefault shows the first page only.
	PagingDefault PagingMode = "default"
	// PagingInfinite fetches the next page whenever the last row scrolls into view.
	PagingInfinite PagingMode = "infinite"
)

func (m PagingMode) Valid() bool {
	return m == PagingDefault || m == PagingInfinite
}

// ParsePagingMode maps a configuration string to a PagingMode. An empty
// string selects PagingDefault.
func ParsePagingMode(s string) (PagingMode, error) {
	if s == "" {
		return PagingDefault, nil
	}

	m := PagingMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w '%s'", ErrInvalidPagingMode, s)
	}

	return m, nil
}

// Watcher reports when an observed row enters the visible range. It fires
// once per transition into view and is inert outside PagingInfinite.
type Watcher struct {
	mu        sync.Mutex
	mode      PagingMode
	onVisible func()
	target    int
	visible   bool
	closed    bool
}

func NewWatcher(mode PagingMode, onVisible func()) *Watcher {
	return &Watcher{
		mode:      mode,
		onVisible: onVisible,
		target:    -1,
	}
}

// Observe retargets the watcher on row index. The previous target is
// unobserved first. A negative index only unobserves.
func (w *Watcher) Observe(index int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.target == index {
		return
	}

	w.target = index
	w.visible = false
}

// Unobserve drops the current target.
func (w *Watcher) Unobserve() {
	w.Observe(-1)
}

// Target returns the observed row index, -1 when nothing is observed.
func (w *Watcher) Target() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.target
}

// Update reports the inclusive range of rows currently on screen. The
// callback runs outside the watcher lock.
func (w *Watcher) Update(first, last int) {
	w.mu.Lock()
	if w.closed || w.mode != PagingInfinite || w.target < 0 {
		w.mu.Unlock()
		return
	}

	inView := first <= w.target && w.target <= last
	fire := inView && !w.visible
	w.visible = inView
	cb := w.onVisible
	w.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}

// Close unobserves the target; the watcher never fires again.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	w.target = -1
	w.visible = false
}
