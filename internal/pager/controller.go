// Package pager drives forward-only pagination over a remote collection: one
// reusable controller parameterized by a fetch function and a filter token,
// instead of re-implementing list state per screen.
package pager

import (
	"context"
	"sync"

	"clinic-client/internal/api"
	"clinic-client/internal/model"

	"go.uber.org/zap"
)

// Page is one fetched slice of the collection plus the server's paging block.
type Page[T any] struct {
	Items      []T
	Pagination model.Pagination
}

// FetchFunc retrieves one page under the given opaque filter token.
type FetchFunc[T any] func(ctx context.Context, page int, filter string) (Page[T], error)

// Controller accumulates pages in arrival order and guards against
// overlapping requests: while a fetch is in flight every other trigger is a
// no-op, so pages are requested strictly in increasing order and page N+1 is
// never issued before page N's outcome has been observed.
//
// Failures never propagate; the last failure message is kept for display and
// a failed page fetch leaves the accumulated items intact. Only refresh and
// filter changes clear eagerly.
type Controller[T any] struct {
	fetch FetchFunc[T]
	log   *zap.Logger

	mu         sync.Mutex
	items      []T
	page       int
	filter     string
	fetching   bool
	refreshing bool
	loaded     bool
	exhausted  bool
	errMsg     string
}

// New builds an idle controller positioned at page 1 with no filter.
func New[T any](fetch FetchFunc[T], log *zap.Logger) *Controller[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller[T]{fetch: fetch, log: log, page: 1}
}

// FetchNext requests the current (page, filter) pair. A no-op while a request
// is already outstanding. Page 1 replaces the accumulation, later pages
// append. The fetching/refreshing flags are always cleared on completion,
// success or failure, so a failed request can never wedge the controller.
func (c *Controller[T]) FetchNext(ctx context.Context) {
	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	page, filter := c.page, c.filter
	c.mu.Unlock()

	pg, err := c.fetch(ctx, page, filter)

	c.mu.Lock()
	defer func() {
		c.fetching = false
		c.refreshing = false
		c.loaded = true
		c.mu.Unlock()
	}()
	if err != nil {
		c.errMsg = api.ErrorMessage(err)
		c.log.Warn("page fetch failed", zap.Int("page", page), zap.String("filter", filter), zap.Error(err))
		return
	}
	c.errMsg = ""
	if page == 1 {
		c.items = append([]T(nil), pg.Items...)
	} else {
		c.items = append(c.items, pg.Items...)
	}
	c.exhausted = pg.Pagination.CurrentPage >= pg.Pagination.TotalPages
}

// Refresh re-fetches page 1 and discards prior accumulation once the fresh
// page arrives.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.exhausted = false
	c.refreshing = true
	c.page = 1
	c.mu.Unlock()
	c.FetchNext(ctx)
}

// LoadMore advances to the next page. A no-op when the list is exhausted, a
// fetch is in flight, the initial load has not completed, or nothing has been
// accumulated yet (spurious trigger before any data exists).
func (c *Controller[T]) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.exhausted || c.fetching || !c.loaded || len(c.items) == 0 {
		c.mu.Unlock()
		return
	}
	c.page++
	c.mu.Unlock()
	c.FetchNext(ctx)
}

// SetFilter switches the filter token. Reselecting the current token issues
// no fetch; a new token invalidates the accumulation and fetches page 1 under
// the new filter.
func (c *Controller[T]) SetFilter(ctx context.Context, filter string) {
	c.mu.Lock()
	if filter == c.filter {
		c.mu.Unlock()
		return
	}
	c.items = nil
	c.loaded = false
	c.exhausted = false
	c.filter = filter
	c.page = 1
	c.mu.Unlock()
	c.FetchNext(ctx)
}

// NotifyExternalInsert reloads the list after an item was created out of
// band, so the new item shows up at whatever position the server orders it.
func (c *Controller[T]) NotifyExternalInsert(ctx context.Context) {
	c.mu.Lock()
	c.items = nil
	c.loaded = false
	c.mu.Unlock()
	c.Refresh(ctx)
}

// Items returns a copy of the accumulated items in arrival order.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Page returns the current page number.
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Filter returns the current filter token.
func (c *Controller[T]) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// IsFetching reports whether a request is outstanding.
func (c *Controller[T]) IsFetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

// IsRefreshing reports whether the outstanding request was triggered by a
// refresh.
func (c *Controller[T]) IsRefreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Exhausted reports whether the last response said there are no further pages.
func (c *Controller[T]) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// Loaded reports whether the initial load has completed.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// ErrorMessage returns the last fetch failure message, empty after a success.
func (c *Controller[T]) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}
