package webscraper

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	errs "webscraper/pkg/errors"
)

// pagePayload is a list endpoint response when pagination fields are
// nested inside data
type pagePayload[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// Iterator is a lazy, restartable sequence over a paginated list endpoint.
// Only the current page is held in memory; the next page is fetched when
// the current one is exhausted.
//
// An Iterator is not safe for concurrent use.
//
//	it := client.GetScrapingJobs(webscraper.ListScrapingJobsOptions{SitemapID: 12})
//	for it.Next(ctx) {
//		job := it.Record()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator[T any] struct {
	executor *Executor
	path     string
	query    url.Values

	// page is the loaded page number, 0 before the first fetch
	page     int
	lastPage int
	total    int
	perPage  int
	records  []T
	position int

	started bool
	done    bool
	err     error
}

func newIterator[T any](executor *Executor, path string, query url.Values) *Iterator[T] {
	return &Iterator[T]{
		executor: executor,
		path:     path,
		query:    query,
	}
}

// Next advances to the next record, fetching pages as needed. It returns
// false when the sequence is exhausted or a fetch failed; check Err.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil || it.done {
		return false
	}

	if !it.started {
		it.started = true
		it.position = 0
		if err := it.fetch(ctx, 1); err != nil {
			it.err = err
			return false
		}
	} else {
		it.position++
	}

	// empty intermediate pages are skipped
	for it.position >= len(it.records) {
		if it.page >= it.lastPage {
			it.done = true
			return false
		}
		if err := it.fetch(ctx, it.page+1); err != nil {
			it.err = err
			return false
		}
		it.position = 0
	}

	return true
}

// Record returns the current record
func (it *Iterator[T]) Record() T {
	if it.position < len(it.records) {
		return it.records[it.position]
	}
	var zero T
	return zero
}

// Key returns the current record's global ordinal, position + per_page*(page-1)
func (it *Iterator[T]) Key() int {
	if it.page < 1 {
		return it.position
	}
	return it.position + it.perPage*(it.page-1)
}

// Err returns the error that stopped the iteration, if any
func (it *Iterator[T]) Err() error {
	return it.err
}

// Rewind resets the sequence; the next call to Next fetches page 1 again
func (it *Iterator[T]) Rewind() {
	it.started = false
	it.done = false
	it.err = nil
	it.position = 0
}

// All returns the records keyed by ordinal. Each call starts from page 1.
// A fetch error ends the sequence and is reported by Err.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		it.Rewind()
		for it.Next(ctx) {
			if !yield(it.Key(), it.Record()) {
				return
			}
		}
	}
}

// Collect reads the whole sequence from page 1
func (it *Iterator[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for _, record := range it.All(ctx) {
		out = append(out, record)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPageData returns the records of one page. Asking for the page that is
// already loaded returns it without a request; any other page is fetched.
func (it *Iterator[T]) GetPageData(ctx context.Context, page int) ([]T, error) {
	if it.page != 0 && it.page == page {
		return it.records, nil
	}
	if err := it.fetch(ctx, page); err != nil {
		return nil, err
	}
	return it.records, nil
}

// Page returns the loaded page number, 0 before the first fetch
func (it *Iterator[T]) Page() int { return it.page }

// LastPage returns the last page reported by the API
func (it *Iterator[T]) LastPage() int { return it.lastPage }

// Total returns the total record count reported by the API
func (it *Iterator[T]) Total() int { return it.total }

// PerPage returns the page size reported by the API
func (it *Iterator[T]) PerPage() int { return it.perPage }

func (it *Iterator[T]) fetch(ctx context.Context, page int) error {
	query := make(url.Values, len(it.query)+1)
	for key, values := range it.query {
		query[key] = append([]string(nil), values...)
	}
	query.Set("page", strconv.Itoa(page))

	req := &Request{Method: http.MethodGet, Path: it.path, Query: query}
	env, err := it.executor.execute(ctx, req)
	if err != nil {
		return err
	}

	payload, err := decodePage[T](env)
	if err != nil {
		it.executor.logger.ErrorWithFields("failed to decode page", map[string]interface{}{
			"path":         it.path,
			"page":         page,
			"error":        err.Error(),
			"body_preview": bodyPreview(env.Data),
		})
		return errs.NewProtocolError(env.Data, err)
	}

	it.page = page
	it.records = payload.Data
	it.lastPage = payload.LastPage
	it.total = payload.Total
	it.perPage = payload.PerPage
	return nil
}

func decodePage[T any](env *envelope) (*pagePayload[T], error) {
	if env.LastPage == nil {
		var payload pagePayload[T]
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}

	payload := &pagePayload[T]{LastPage: *env.LastPage}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload.Data); err != nil {
			return nil, err
		}
	}
	if env.CurrentPage != nil {
		payload.CurrentPage = *env.CurrentPage
	}
	if env.Total != nil {
		payload.Total = *env.Total
	}
	if env.PerPage != nil {
		payload.PerPage = *env.PerPage
	}
	return payload, nil
}
