package infitable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Shell composes the pagination cache, visibility watcher, tabular model and
// virtualizer into one table. It owns the sort spec and the scroll position.
// All methods are safe for concurrent use.
type Shell[T any] struct {
	mu      sync.Mutex
	opts    Options[T]
	table   *Table[T]
	client  *Client[T]
	query   *Query[T]
	sort    SortSpec
	virt    *Virtualizer
	watcher *Watcher
	logger  *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// New validates opts and builds a table. Nothing is fetched before Start.
func New[T any](opts Options[T]) (*Shell[T], error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid table options: %w", err)
	}

	table, err := NewTable(opts.Columns)
	if err != nil {
		return nil, fmt.Errorf("invalid table options: %w", err)
	}

	client := opts.Client
	if client == nil {
		client, err = NewClient[T](WithLogger(opts.Logger))
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Shell[T]{
		opts:   opts,
		table:  table,
		client: client,
		logger: opts.Logger.With(slog.String("query_key", opts.QueryKey)),
		ctx:    ctx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrentFetches)),
	}

	estimate := opts.EstimateRowHeight
	s.virt = NewVirtualizer(VirtualizerOptions{
		EstimateSize:   func(int) int { return estimate },
		Overscan:       opts.Overscan,
		MeasureEnabled: opts.MeasureRows,
		ViewportSize:   opts.Height,
	})
	s.watcher = NewWatcher(opts.PagingMode, s.requestNextPageLocked)
	s.query = client.Query(s.identity(), opts.Fetch, opts.PageSize, nil)

	return s, nil
}

// Start requests the first page. Further calls do nothing.
func (s *Shell[T]) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed {
		return
	}
	s.started = true
	s.requestNextPageLocked()
}

// Sort returns the current sort spec.
func (s *Shell[T]) Sort() SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sort
}

// Table returns the tabular model.
func (s *Shell[T]) Table() *Table[T] {
	return s.table
}

// Snapshot returns the state of the current query.
func (s *Shell[T]) Snapshot() QuerySnapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.query.Snapshot()
}

// ToggleSort advances the sort cycle of columnID, as a click on its header
// would.
func (s *Shell[T]) ToggleSort(columnID string) error {
	s.mu.Lock()
	next, err := s.table.NextSort(s.sort, columnID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	return s.setSortAndUnlock(next)
}

// SetSort replaces the sort spec. An empty spec clears sorting.
func (s *Shell[T]) SetSort(spec SortSpec) error {
	if !spec.IsEmpty() {
		col, ok := s.table.Column(spec.Column)
		if !ok {
			return fmt.Errorf("%w '%s'", ErrUnknownColumn, spec.Column)
		}
		if !col.CanSort() {
			return fmt.Errorf("%w: '%s'", ErrColumnNotSortable, spec.Column)
		}
		if err := spec.validate(); err != nil {
			return err
		}
	} else {
		spec = SortSpec{}
	}

	s.mu.Lock()
	return s.setSortAndUnlock(spec)
}

// setSortAndUnlock switches to the query identity of next. The rows shown so
// far stay visible until the first page of the new identity arrives; if
// there were any, the view jumps back to the first row.
func (s *Shell[T]) setSortAndUnlock(next SortSpec) error {
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if next == s.sort {
		s.mu.Unlock()
		return nil
	}

	previous := s.query.Snapshot().Rows
	s.sort = next
	id := s.identity()
	s.client.Reset(id)
	s.query = s.client.Query(id, s.opts.Fetch, s.opts.PageSize, previous)
	s.logger.Debug("sort changed", slog.String("sort", next.String()))

	if len(previous) > 0 {
		s.virt.ScrollToIndex(0)
	}
	if s.started {
		s.requestNextPageLocked()
	}
	s.syncLocked()
	s.mu.Unlock()

	return nil
}

// ScrollTo moves the viewport to offset lines from the top of the body.
func (s *Shell[T]) ScrollTo(offset int) {
	s.update(func() { s.virt.ScrollTo(offset) })
}

// ScrollBy moves the viewport by delta lines.
func (s *Shell[T]) ScrollBy(delta int) {
	s.update(func() { s.virt.ScrollBy(delta) })
}

// ScrollToIndex aligns row index with the top of the viewport.
func (s *Shell[T]) ScrollToIndex(index int) {
	s.update(func() { s.virt.ScrollToIndex(index) })
}

// Resize sets the body height in lines.
func (s *Shell[T]) Resize(height int) {
	s.update(func() { s.virt.SetViewport(height) })
}

// MeasureRow reports the rendered height of row index. Ignored unless
// Options.MeasureRows is set.
func (s *Shell[T]) MeasureRow(index, size int) {
	s.update(func() { s.virt.Measure(index, size) })
}

// Retry re-issues the fetch that failed last, if any.
func (s *Shell[T]) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.query.Snapshot().Err == nil {
		return
	}
	s.requestNextPageLocked()
}

// Wait blocks until every scheduled fetch settled.
func (s *Shell[T]) Wait() {
	s.wg.Wait()
}

// Close stops observing rows and cancels outstanding fetches. Results that
// still arrive are kept in the cache but never notified.
func (s *Shell[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.watcher.Close()
	s.cancel()
}

func (s *Shell[T]) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()
	s.syncLocked()
}

func (s *Shell[T]) identity() QueryIdentity {
	return QueryIdentity{Key: s.opts.QueryKey, Sort: s.sort}
}

// requestNextPageLocked schedules a fetch of the next page of the current
// query on the task queue. Must be called with s.mu held.
func (s *Shell[T]) requestNextPageLocked() {
	if s.closed {
		return
	}

	q := s.query
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return
		}
		err := q.FetchNextPage(s.ctx)
		s.sem.Release(1)

		if err != nil {
			s.logger.Warn("page fetch failed", slog.String("identity", q.Identity().String()), slog.Any("error", err))
		}
		s.settled()
	}()
}

func (s *Shell[T]) settled() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.syncLocked()
	onChange := s.opts.OnChange
	s.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// syncLocked brings the virtualizer and the watcher in line with the current
// rows and scroll position.
func (s *Shell[T]) syncLocked() {
	snap := s.query.Snapshot()
	s.virt.SetCount(len(snap.Rows))

	if snap.HasNextPage && !snap.IsPlaceholder && len(snap.Rows) > 0 {
		s.watcher.Observe(len(snap.Rows) - 1)
	} else {
		s.watcher.Unobserve()
	}

	first, last, ok := s.virt.VisibleRange()
	if !ok {
		first, last = 0, -1
	}
	s.watcher.Update(first, last)
}
