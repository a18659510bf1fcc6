// Package controller implements the paginated-list state machine shared by
// every list view: page navigation, client-side search over a full sweep of
// the collection, and the refetch rules after create and delete.
package controller

import (
	"context"
	"sync"

	"github.com/exotrack/exotrack-console/internal/domain"

	"go.uber.org/zap"
)

// Fetcher loads one page of T from the backend. filter is the optional
// parent-scope id (userId for declarations, declarationId for line items);
// empty means unscoped.
type Fetcher[T any] func(ctx context.Context, q domain.PageQuery, filter string) (domain.Page[T], error)

// Matcher reports whether an item matches a search term. The term arrives
// already lower-cased and trimmed.
type Matcher[T any] func(item T, term string) bool

// List drives one paginated list view. All mutating methods are
// synchronous: they return once the state reflects the outcome. A failed
// fetch keeps the previous items and total visible; only the loading and
// searching flags are cleared.
type List[T any] struct {
	mu sync.Mutex

	fetch   Fetcher[T]
	match   Matcher[T]
	perPage int
	filter  string
	logger  *zap.Logger

	items   []T
	total   int
	page    int
	loading bool
	lastErr error

	// search state: fullSet caches the sweep result so typing a narrower
	// term re-filters locally instead of re-sweeping.
	searchTerm string
	searching  bool
	fullSet    []T
}

// NewList creates a list over the given fetcher. perPage below 1 falls back
// to 10, the default page size everywhere.
func NewList[T any](fetch Fetcher[T], match Matcher[T], perPage int, filter string, logger *zap.Logger) *List[T] {
	if perPage < 1 {
		perPage = 10
	}
	return &List[T]{
		fetch:   fetch,
		match:   match,
		perPage: perPage,
		filter:  filter,
		page:    1,
		logger:  logger,
	}
}

// Load fetches the first page. Call once after construction.
func (l *List[T]) Load(ctx context.Context) error {
	return l.SetPage(ctx, 1)
}

// SetPage navigates to the given 1-based page. Out-of-range pages clamp to
// the valid range. In search mode no request is issued: the page is a
// re-slice of the filtered set.
func (l *List[T]) SetPage(ctx context.Context, page int) error {
	l.mu.Lock()
	if page < 1 {
		page = 1
	}
	if max := l.totalPagesLocked(); l.total > 0 && page > max {
		page = max
	}

	if l.searchTerm != "" {
		l.applySearchLocked(l.searchTerm, page)
		l.mu.Unlock()
		return nil
	}

	prev := l.page
	l.page = page
	l.loading = true
	q := domain.PageQuery{Limit: l.perPage, Offset: (page - 1) * l.perPage}
	l.mu.Unlock()

	return l.refetch(ctx, q, page, prev)
}

// refetch issues the page request and applies the result, unless a newer
// navigation superseded this one while it was in flight.
func (l *List[T]) refetch(ctx context.Context, q domain.PageQuery, page, prev int) error {
	result, err := l.fetch(ctx, q, l.filter)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.page != page || l.searchTerm != "" {
		// A newer navigation or a search superseded this request; its
		// result must not clobber the current view.
		return nil
	}

	l.loading = false
	if err != nil {
		// The view still shows the previous page's rows; the page number
		// must agree with them.
		l.page = prev
		l.lastErr = err
		l.logger.Warn("list: page fetch failed", zap.Int("page", page), zap.Error(err))
		return err
	}

	l.lastErr = nil
	l.items = result.Data
	l.total = result.Total
	return nil
}

// Search enters search mode: it sweeps the full collection page by page,
// caches it, filters it with the matcher, and resets to page 1 of the
// results. An empty or whitespace-only term clears the search instead.
func (l *List[T]) Search(ctx context.Context, term string) error {
	term = normalizeTerm(term)
	if term == "" {
		return l.ClearSearch(ctx)
	}

	l.mu.Lock()
	if l.fullSet != nil {
		// Sweep already cached from a previous search; filter locally.
		l.applySearchLocked(term, 1)
		l.mu.Unlock()
		return nil
	}
	l.loading = true
	l.mu.Unlock()

	full, err := l.sweep(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.lastErr = err
		l.logger.Warn("list: search sweep failed", zap.Error(err))
		return err
	}
	l.lastErr = nil
	l.fullSet = full
	l.applySearchLocked(term, 1)
	return nil
}

// sweep pages through the entire collection at the view's page size until
// the reported total is reached.
func (l *List[T]) sweep(ctx context.Context) ([]T, error) {
	var full []T
	offset := 0
	for {
		page, err := l.fetch(ctx, domain.PageQuery{Limit: l.perPage, Offset: offset}, l.filter)
		if err != nil {
			return nil, err
		}
		full = append(full, page.Data...)
		offset += l.perPage
		if offset >= page.Total || len(page.Data) == 0 {
			return full, nil
		}
	}
}

// applySearchLocked filters the cached full set and slices out the given
// page. Caller holds l.mu.
func (l *List[T]) applySearchLocked(term string, page int) {
	var matched []T
	for _, item := range l.fullSet {
		if l.match(item, term) {
			matched = append(matched, item)
		}
	}

	l.searchTerm = term
	l.searching = true
	l.total = len(matched)

	maxPage := pages(l.total, l.perPage)
	if page > maxPage {
		page = maxPage
	}
	if page < 1 {
		page = 1
	}
	l.page = page

	start := (page - 1) * l.perPage
	end := start + l.perPage
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	l.items = matched[start:end]
}

// ClearSearch leaves search mode, drops the cached sweep, and refetches
// page 1 from the server.
func (l *List[T]) ClearSearch(ctx context.Context) error {
	l.mu.Lock()
	l.searchTerm = ""
	l.searching = false
	l.fullSet = nil
	l.mu.Unlock()
	return l.SetPage(ctx, 1)
}

// AfterCreate runs after a successful create: back to page 1 so the caller
// sees the collection from the top, with fresh data. Any active search is
// cleared, since its cached sweep is now stale.
func (l *List[T]) AfterCreate(ctx context.Context) error {
	l.mu.Lock()
	l.searchTerm = ""
	l.searching = false
	l.fullSet = nil
	l.mu.Unlock()
	return l.SetPage(ctx, 1)
}

// AfterDelete refetches the current page. When the delete emptied the last
// page, it falls back to the new last page so the view never strands on an
// empty page beyond the end.
func (l *List[T]) AfterDelete(ctx context.Context) error {
	l.mu.Lock()
	l.searchTerm = ""
	l.searching = false
	l.fullSet = nil
	current := l.page
	l.mu.Unlock()

	if err := l.SetPage(ctx, current); err != nil {
		return err
	}

	l.mu.Lock()
	empty := len(l.items) == 0 && l.total > 0
	last := l.totalPagesLocked()
	l.mu.Unlock()

	if empty && current > last {
		return l.SetPage(ctx, last)
	}
	return nil
}

// Items returns the current page's rows.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items
}

// Total returns the collection total (or, in search mode, the match count).
func (l *List[T]) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Page returns the current 1-based page.
func (l *List[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Loading reports whether a fetch is in flight.
func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Searching reports whether the list is showing search results.
func (l *List[T]) Searching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.searching
}

// SearchTerm returns the active search term, or "".
func (l *List[T]) SearchTerm() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.searchTerm
}

// Err returns the error of the most recent failed operation, or nil.
func (l *List[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// TotalPages returns the page count. An empty collection still has one page.
func (l *List[T]) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPagesLocked()
}

func (l *List[T]) totalPagesLocked() int {
	return pages(l.total, l.perPage)
}

func pages(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Ellipsis is the gap marker in a PageNumbers sequence.
const Ellipsis = -1

// PageNumbers returns the pagination strip: first page, last page, the
// current page and its direct neighbors, with Ellipsis filling the gaps.
func (l *List[T]) PageNumbers() []int {
	l.mu.Lock()
	current, last := l.page, l.totalPagesLocked()
	l.mu.Unlock()

	if last <= 7 {
		nums := make([]int, last)
		for i := range nums {
			nums[i] = i + 1
		}
		return nums
	}

	var nums []int
	nums = append(nums, 1)
	if current > 3 {
		nums = append(nums, Ellipsis)
	}
	for p := current - 1; p <= current+1; p++ {
		if p > 1 && p < last {
			nums = append(nums, p)
		}
	}
	if current < last-2 {
		nums = append(nums, Ellipsis)
	}
	return append(nums, last)
}
