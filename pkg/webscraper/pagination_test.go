package webscraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
	errs "webscraper/pkg/errors"
	"webscraper/pkg/logger"
)

// pagedAPI serves total records split into pages of perPage, with the
// pagination fields next to data unless nested is set
type pagedAPI struct {
	total   int
	perPage int
	nested  bool
	fetches atomic.Int32
	pages   []int
}

func (p *pagedAPI) lastPage() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + p.perPage - 1) / p.perPage
}

func (p *pagedAPI) roundTrip(r *http.Request) (*http.Response, error) {
	p.fetches.Add(1)
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return nil, err
	}
	p.pages = append(p.pages, page)

	records := []ProblematicURL{}
	for i := (page - 1) * p.perPage; i < page*p.perPage && i < p.total; i++ {
		records = append(records, ProblematicURL{URL: fmt.Sprintf("https://example.com/%d", i), Type: "empty"})
	}
	data, _ := json.Marshal(records)

	var body string
	if p.nested {
		body = fmt.Sprintf(`{"success":true,"data":{"data":%s,"current_page":%d,"last_page":%d,"total":%d,"per_page":%d}}`,
			data, page, p.lastPage(), p.total, p.perPage)
	} else {
		body = fmt.Sprintf(`{"success":true,"data":%s,"current_page":%d,"last_page":%d,"total":%d,"per_page":%d}`,
			data, page, p.lastPage(), p.total, p.perPage)
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    r,
	}, nil
}

func newPagedClient(t *testing.T, api *pagedAPI) *testClient {
	return newTestClient(t, "https://api.example.test/api/v1/", func(o *Options) {
		o.HTTPClient = &http.Client{Transport: roundTripFunc(api.roundTrip)}
	})
}

func TestIteratorWalksAllPages(t *testing.T) {
	for _, nested := range []bool{false, true} {
		t.Run(fmt.Sprintf("nested=%v", nested), func(t *testing.T) {
			api := &pagedAPI{total: 7, perPage: 3, nested: nested}
			client := newPagedClient(t, api)

			it := client.GetProblematicURLs(10)

			var keys []int
			var urls []string
			for it.Next(context.Background()) {
				keys = append(keys, it.Key())
				urls = append(urls, it.Record().URL)
			}
			require.NoError(t, it.Err())

			assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, keys)
			assert.Equal(t, "https://example.com/6", urls[6])
			assert.Equal(t, []int{1, 2, 3}, api.pages)
			assert.Equal(t, 3, it.LastPage())
			assert.Equal(t, 7, it.Total())
			assert.Equal(t, 3, it.PerPage())
			assert.Equal(t, 3, it.Page())

			assert.False(t, it.Next(context.Background()), "exhausted stays exhausted")
			assert.Equal(t, int32(3), api.fetches.Load())
		})
	}
}

func TestIteratorIsRestartable(t *testing.T) {
	api := &pagedAPI{total: 5, perPage: 2}
	client := newPagedClient(t, api)
	it := client.GetProblematicURLs(1)

	first, err := it.Collect(context.Background())
	require.NoError(t, err)
	second, err := it.Collect(context.Background())
	require.NoError(t, err)

	assert.Len(t, first, 5)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3}, api.pages, "second pass starts again at page 1")
}

func TestIteratorSinglePageRewindRefetches(t *testing.T) {
	api := &pagedAPI{total: 2, perPage: 10}
	client := newPagedClient(t, api)
	it := client.GetProblematicURLs(1)

	for range it.All(context.Background()) {
	}
	for range it.All(context.Background()) {
	}

	assert.Equal(t, []int{1, 1}, api.pages)
}

func TestIteratorAllStopsEarly(t *testing.T) {
	api := &pagedAPI{total: 10, perPage: 2}
	client := newPagedClient(t, api)
	it := client.GetProblematicURLs(1)

	seen := 0
	for key := range it.All(context.Background()) {
		seen++
		if key == 2 {
			break
		}
	}

	assert.Equal(t, 3, seen)
	assert.Equal(t, []int{1, 2}, api.pages, "later pages are never fetched")
}

func TestIteratorEmptyList(t *testing.T) {
	api := &pagedAPI{total: 0, perPage: 100}
	client := newPagedClient(t, api)

	records, err := client.GetProblematicURLs(1).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []int{1}, api.pages)
}

func TestIteratorSkipsEmptyIntermediatePages(t *testing.T) {
	server := newScriptServer(t,
		scripted{status: 200, body: `{"success":true,"data":[{"id":1,"name":"a"}],"last_page":3,"total":2,"per_page":1}`},
		scripted{status: 200, body: `{"success":true,"data":[],"last_page":3,"total":2,"per_page":1}`},
		scripted{status: 200, body: `{"success":true,"data":[{"id":3,"name":"c"}],"last_page":3,"total":2,"per_page":1}`},
	)
	client := newTestClient(t, server.URL)

	it := client.GetSitemaps()
	keys := map[int]string{}
	for key, sitemap := range it.All(context.Background()) {
		keys[key] = sitemap.Name
	}
	require.NoError(t, it.Err())

	assert.Equal(t, map[int]string{0: "a", 2: "c"}, keys)
	assert.Equal(t, 3, server.Calls())
}

func TestGetPageDataCachesCurrentPageOnly(t *testing.T) {
	api := &pagedAPI{total: 9, perPage: 3}
	client := newPagedClient(t, api)
	it := client.GetProblematicURLs(1)
	ctx := context.Background()

	page2, err := it.GetPageData(ctx, 2)
	require.NoError(t, err)
	again, err := it.GetPageData(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, page2, again)
	assert.Equal(t, int32(1), api.fetches.Load(), "same page twice is one fetch")

	_, err = it.GetPageData(ctx, 1)
	require.NoError(t, err)
	_, err = it.GetPageData(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1, 2}, api.pages, "a previously visited page is fetched again")
}

func TestGetPageDataBeyondLastPage(t *testing.T) {
	api := &pagedAPI{total: 1, perPage: 100}
	client := newPagedClient(t, api)

	records, err := client.GetProblematicURLs(1).GetPageData(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIteratorKeepsCallerFilters(t *testing.T) {
	server := newScriptServer(t,
		scripted{status: 200, body: `{"success":true,"data":[{"id":1,"sitemap_id":12,"status":"finished"}],"last_page":2,"total":2,"per_page":1}`},
		scripted{status: 200, body: `{"success":true,"data":[{"id":2,"sitemap_id":12,"status":"started"}],"last_page":2,"total":2,"per_page":1}`},
	)
	client := newTestClient(t, server.URL+"/api/v1")

	jobs, err := client.GetScrapingJobs(ListScrapingJobsOptions{SitemapID: 12}).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, JobStatusStarted, jobs[1].Status)

	for i, req := range server.Requests() {
		assert.Equal(t, "/api/v1/scraping-jobs", req.Path)
		assert.Equal(t, []string{"12"}, req.Query["sitemap_id"])
		assert.Equal(t, []string{strconv.Itoa(i + 1)}, req.Query["page"])
		assert.Equal(t, []string{testToken}, req.Query["api_token"])
	}
}

func TestIteratorStopsOnError(t *testing.T) {
	server := newScriptServer(t,
		scripted{status: 200, body: `{"success":true,"data":[{"id":1,"name":"a"}],"last_page":2,"total":2,"per_page":1}`},
		scripted{status: 500, body: "boom"},
	)
	client := newTestClient(t, server.URL)

	it := client.GetSitemaps()
	ctx := context.Background()

	require.True(t, it.Next(ctx))
	assert.False(t, it.Next(ctx))
	assert.Equal(t, 500, errs.StatusCode(it.Err()))
	assert.False(t, it.Next(ctx), "an error ends the sequence")

	_, err := it.Collect(ctx)
	assert.Error(t, err)
}

func TestIteratorOrdinalProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		perPage := rapid.IntRange(1, 15).Draw(rt, "perPage")
		total := rapid.IntRange(0, 80).Draw(rt, "total")

		api := &pagedAPI{total: total, perPage: perPage}
		client, err := NewClient(Options{
			Token:      testToken,
			HTTPClient: &http.Client{Transport: roundTripFunc(api.roundTrip)},
			Logger:     logger.NewNopLogger(),
		})
		if err != nil {
			rt.Fatal(err)
		}

		it := client.GetProblematicURLs(3)
		previous := -1
		count := 0
		for key, record := range it.All(context.Background()) {
			if key <= previous {
				rt.Fatalf("key %d not greater than %d", key, previous)
			}
			if want := fmt.Sprintf("https://example.com/%d", key); record.URL != want {
				rt.Fatalf("key %d holds %s, want %s", key, record.URL, want)
			}
			previous = key
			count++
		}
		if it.Err() != nil {
			rt.Fatal(it.Err())
		}
		if count != total {
			rt.Fatalf("yielded %d records, want %d", count, total)
		}
		if int(api.fetches.Load()) != api.lastPage() {
			rt.Fatalf("fetched %d pages, want %d", api.fetches.Load(), api.lastPage())
		}
	})
}
