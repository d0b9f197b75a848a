package infitable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheSize = 32

type clientOptions struct {
	size   int
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// WithCacheSize bounds the number of query identities kept by the client.
func WithCacheSize(size int) ClientOption {
	return func(o *clientOptions) {
		o.size = size
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// Client caches fetched pages per QueryIdentity. One client may be shared by
// several tables; their query keys keep the entries apart.
type Client[T any] struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry[T]]
	flight  singleflight.Group
	gen     uint64
	logger  *slog.Logger
}

type entry[T any] struct {
	id        QueryIdentity
	gen       uint64
	pages     pageSet[T]
	rows      []T
	exhausted bool
	fetching  bool
	err       error
}

func NewClient[T any](opts ...ClientOption) (*Client[T], error) {
	o := clientOptions{size: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.size <= 0 {
		o.size = DefaultCacheSize
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	c := &Client[T]{logger: o.logger}

	entries, err := lru.NewWithEvict[string, *entry[T]](o.size, func(key string, e *entry[T]) {
		c.logger.Debug("query evicted", slog.String("identity", key), slog.Int("pages", len(e.pages)))
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create query cache: %w", err)
	}
	c.entries = entries

	return c, nil
}

// Query binds id to the client. An entry already cached for id is reused;
// call Reset first to restart pagination from offset zero.
//
// placeholder rows are reported by snapshots until the first page of id
// resolves.
func (c *Client[T]) Query(id QueryIdentity, fetch FetchFunc[T], pageSize int, placeholder []T) *Query[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.String()
	e, ok := c.entries.Get(key)
	if !ok {
		c.gen++
		e = &entry[T]{id: id, gen: c.gen}
		c.entries.Add(key, e)
	}

	return &Query[T]{
		client:      c,
		entry:       e,
		fetch:       fetch,
		pageSize:    NormalizePageSize(pageSize),
		placeholder: placeholder,
	}
}

// Reset discards the pages cached for id. Queries already bound to the old
// entry keep it; their late results never reach a new entry.
func (c *Client[T]) Reset(id QueryIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(id.String())
}

// Len returns the number of cached identities.
func (c *Client[T]) Len() int {
	return c.entries.Len()
}

// Query is a handle on one cached identity.
type Query[T any] struct {
	client      *Client[T]
	entry       *entry[T]
	fetch       FetchFunc[T]
	pageSize    int
	placeholder []T
}

// QuerySnapshot is an immutable view of a query.
type QuerySnapshot[T any] struct {
	Identity QueryIdentity
	// Rows are the flattened pages of the identity, or the placeholder rows
	// while its first page is outstanding.
	Rows          []T
	Pages         int
	IsLoading     bool
	IsFetching    bool
	IsPlaceholder bool
	HasNextPage   bool
	Err           error
}

// Identity returns the identity the query is bound to.
func (q *Query[T]) Identity() QueryIdentity {
	return q.entry.id
}

// PageSize returns the normalized page size of the query.
func (q *Query[T]) PageSize() int {
	return q.pageSize
}

// Snapshot returns the current state of the query.
func (q *Query[T]) Snapshot() QuerySnapshot[T] {
	q.client.mu.Lock()
	defer q.client.mu.Unlock()

	e := q.entry
	s := QuerySnapshot[T]{
		Identity:    e.id,
		Rows:        e.rows,
		Pages:       len(e.pages),
		IsFetching:  e.fetching,
		HasNextPage: !e.exhausted,
		Err:         e.err,
	}
	if len(e.pages) == 0 {
		s.Rows = q.placeholder
		s.IsPlaceholder = q.placeholder != nil
		s.IsLoading = q.placeholder == nil && e.err == nil
	}

	return s
}

// FetchNextPage loads the page following the ones already cached. Concurrent
// calls for the same identity share a single fetch. Once a page shorter than
// the page size arrived the call is a no-op.
//
// A fetch error is recorded on the query and returned; the cached pages are
// left untouched and the call may be retried.
func (q *Query[T]) FetchNextPage(ctx context.Context) error {
	c := q.client

	c.mu.Lock()
	e := q.entry
	if e.exhausted {
		c.mu.Unlock()
		return nil
	}
	pageIndex := len(e.pages)
	c.mu.Unlock()

	key := fmt.Sprintf("%s#%d#%d", e.id, e.gen, pageIndex)
	_, err, _ := c.flight.Do(key, func() (any, error) {
		return nil, q.load(ctx, pageIndex)
	})

	return err
}

func (q *Query[T]) load(ctx context.Context, pageIndex int) (err error) {
	c := q.client
	e := q.entry

	c.mu.Lock()
	if e.exhausted || len(e.pages) != pageIndex {
		// Another caller already resolved this page.
		c.mu.Unlock()
		return nil
	}
	e.fetching = true
	c.mu.Unlock()

	offset := pageIndex * q.pageSize
	logger := c.logger.With(
		slog.String("identity", e.id.String()),
		slog.Int("offset", offset),
		slog.Int("page_size", q.pageSize),
		slog.String("cursor", NewOffsetCursor(offset).String()),
	)
	logger.Debug("fetching page")

	page, err := q.callFetch(ctx, offset)

	c.mu.Lock()
	defer c.mu.Unlock()

	e.fetching = false
	if err != nil {
		e.err = fmt.Errorf("fetch page %d of %s: %w", pageIndex, e.id, err)
		logger.Warn("page fetch failed", slog.Any("error", err))
		return e.err
	}

	e.err = nil
	e.pages = append(e.pages, page)
	e.rows = e.pages.flatten()
	e.exhausted = page.IsLast(q.pageSize)
	logger.Debug("page fetched", slog.Int("rows", len(page.Rows)), slog.Bool("last", e.exhausted))

	return nil
}

func (q *Query[T]) callFetch(ctx context.Context, offset int) (page Page[T], err error) {
	if q.fetch == nil {
		return page, ErrMissingFetch
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch callback panicked: %v", r)
		}
	}()

	return q.fetch(ctx, offset, q.pageSize, q.entry.id.Sort)
}
