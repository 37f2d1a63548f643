package webscraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webscraper/pkg/config"
)

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	assert.True(t, errors.Is(err, ErrMissingToken))
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Options{Token: "t"})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, client.transport.baseURL.String())
	assert.Equal(t, DefaultUserAgent, client.transport.userAgent)
	assert.Equal(t, DefaultRequestTimeout, client.transport.timeout)
	assert.Equal(t, DefaultDownloadTimeout, client.downloadTimeout)
	assert.Equal(t, 3, client.Executor().MaxAttempts())
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.Token = "from-config"
	cfg.API.BaseURL = "http://localhost:9000/api/v1/"
	cfg.API.Backoff = false
	cfg.API.RequestTimeout = 5 * time.Second
	cfg.RateLimit.RequestsPerMinute = 120

	client, err := NewClientFromConfig(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-config", client.transport.token)
	assert.Equal(t, "http://localhost:9000/api/v1/", client.transport.baseURL.String())
	assert.Equal(t, 5*time.Second, client.transport.timeout)
	assert.Equal(t, 1, client.Executor().MaxAttempts())
	assert.NotNil(t, client.transport.limiter)

	cfg.API.Token = ""
	_, err = NewClientFromConfig(cfg, nil)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestSitemapOperations(t *testing.T) {
	server := newScriptServer(t,
		ok(`{"id":11,"name":"books","sitemap":"{\"_id\":\"books\"}"}`),
		ok(`"ok"`),
		scripted{status: 200, body: `{"success":true,"data":[{"id":11,"name":"books"},{"id":12,"name":"news"}],"current_page":1,"last_page":1,"total":2,"per_page":100}`},
	)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	sitemap, err := client.GetSitemap(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, &Sitemap{ID: 11, Name: "books", Sitemap: `{"_id":"books"}`}, sitemap)

	require.NoError(t, client.UpdateSitemap(ctx, 11, SitemapDefinition(`{"_id":"books2"}`)))

	sitemaps, err := client.GetSitemaps().Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SitemapSummary{{ID: 11, Name: "books"}, {ID: 12, Name: "news"}}, sitemaps)

	requests := server.Requests()
	assert.Equal(t, "/sitemap/11", requests[0].Path)
	assert.Equal(t, http.MethodPut, requests[1].Method)
	assert.Equal(t, "/sitemap/11", requests[1].Path)
	assert.JSONEq(t, `{"_id":"books2"}`, requests[1].Body)
	assert.Equal(t, "/sitemaps", requests[2].Path)
	assert.Equal(t, []string{"1"}, requests[2].Query["page"])
}

func TestScrapingJobOperations(t *testing.T) {
	job := `{"id":500,"sitemap_name":"books","status":"waiting-to-be-scheduled","sitemap_id":11,"test_run":0,` +
		`"jobs_scheduled":0,"jobs_executed":0,"jobs_failed":0,"jobs_empty":0,"stored_record_count":0,` +
		`"request_interval":2000,"page_load_delay":2000,"driver":"fast","scheduled":0,"custom_id":null,` +
		`"scraping_duration":0,"time_created":1700000000}`

	server := newScriptServer(t, ok(`{"id":500}`), ok(job), ok(`"ok"`))
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	created, err := client.CreateScrapingJob(ctx, ScrapingJobConfig{
		SitemapID:       11,
		Driver:          "fast",
		PageLoadDelay:   2000,
		RequestInterval: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, 500, created.ID)
	assert.True(t, client.logs.HasMessage("scraping job created"))

	got, err := client.GetScrapingJob(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, "books", got.SitemapName)
	assert.Equal(t, JobStatusWaitingToBeScheduled, got.Status)
	assert.Nil(t, got.CustomID)
	assert.Equal(t, int64(1700000000), got.TimeCreated)
	assert.False(t, got.Done())

	require.NoError(t, client.DeleteScrapingJob(ctx, 500))

	requests := server.Requests()
	assert.Equal(t, "/scraping-job", requests[0].Path)
	assert.JSONEq(t, `{"sitemap_id":11,"driver":"fast","page_load_delay":2000,"request_interval":2000}`, requests[0].Body)
	assert.Equal(t, "/scraping-job/500", requests[1].Path)
	assert.Equal(t, http.MethodDelete, requests[2].Method)
}

func TestDataQualityAndProblematicURLs(t *testing.T) {
	server := newScriptServer(t,
		ok(`{"min_record_count":{"got":1,"expected":1,"success":true},`+
			`"max_failed_pages_percent":{"got":0,"expected":5,"success":true},`+
			`"max_empty_pages_percent":{"got":0,"expected":5,"success":true},`+
			`"min_column_records":{"title":{"got":100,"expected":95,"success":true}},`+
			`"overall_data_quality_success":true}`),
		scripted{status: 200, body: `{"success":true,"data":[{"type":"empty","url":"https://example.com/laptops"}],"last_page":1,"total":1,"per_page":100}`},
	)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	quality, err := client.GetScrapingJobDataQuality(ctx, 9)
	require.NoError(t, err)
	assert.True(t, quality.OverallDataQualitySuccess)
	assert.Equal(t, QualityCheck{Got: 100, Expected: 95, Success: true}, quality.MinColumnRecords["title"])
	assert.Equal(t, float64(5), quality.MaxEmptyPagesPercent.Expected)

	urls, err := client.GetProblematicURLs(9).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ProblematicURL{{URL: "https://example.com/laptops", Type: "empty"}}, urls)

	requests := server.Requests()
	assert.Equal(t, "/scraping-job/9/data-quality", requests[0].Path)
	assert.Equal(t, "/scraping-job/9/problematic-urls", requests[1].Path)
}

func TestSchedulerOperations(t *testing.T) {
	schedule := SchedulerConfig{
		CronMinute:      "*/10",
		CronHour:        "*",
		CronDay:         "*",
		CronMonth:       "*",
		CronWeekday:     "*",
		CronTimezone:    "Europe/Riga",
		RequestInterval: 2100,
		PageLoadDelay:   2200,
		Driver:          "fast",
		Proxy:           1,
	}

	enabled := schedule
	enabled.SchedulerEnabled = true

	server := newScriptServer(t, ok(`"ok"`), ok(mustJSON(t, enabled)), ok(`"ok"`))
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	require.NoError(t, client.EnableSitemapScheduler(ctx, 4, enabled))

	got, err := client.GetSitemapScheduler(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, &enabled, got)

	require.NoError(t, client.DisableSitemapScheduler(ctx, 4))

	requests := server.Requests()
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/sitemap/4/enable-scheduler", requests[0].Path)
	assert.JSONEq(t, mustJSON(t, schedule), requests[0].Body)
	assert.NotContains(t, requests[0].Body, "scheduler_enabled")
	assert.Equal(t, "/sitemap/4/scheduler", requests[1].Path)
	assert.Equal(t, http.MethodPost, requests[2].Method)
	assert.Equal(t, "/sitemap/4/disable-scheduler", requests[2].Path)
	assert.Empty(t, requests[2].Body)
}

func TestGetAccountInfo(t *testing.T) {
	server := newScriptServer(t, ok(`{"email":"user@example.com","firstname":"Jane","lastname":"Doe","page_credits":1500}`))
	client := newTestClient(t, server.URL)

	account, err := client.GetAccountInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &AccountInfo{Email: "user@example.com", Firstname: "Jane", Lastname: "Doe", PageCredits: 1500}, account)
	assert.Equal(t, "/account", server.Requests()[0].Path)
}

func TestDecodeMismatchIsProtocolError(t *testing.T) {
	server := newScriptServer(t, ok(`"not an object"`))
	client := newTestClient(t, server.URL)

	_, err := client.GetAccountInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsuccessful api response.")
	assert.True(t, client.logs.HasMessage("failed to decode response data"))
}

func TestScrapingJobProgress(t *testing.T) {
	tests := []struct {
		job  ScrapingJob
		want float64
		done bool
	}{
		{ScrapingJob{Status: JobStatusStarted, JobsScheduled: 10, JobsExecuted: 5}, 0.5, false},
		{ScrapingJob{Status: JobStatusStarted, JobsScheduled: 0}, 0, false},
		{ScrapingJob{Status: JobStatusFinished, JobsScheduled: 0}, 1, true},
		{ScrapingJob{Status: JobStatusShelved, JobsScheduled: 4, JobsExecuted: 6}, 1, true},
		{ScrapingJob{Status: JobStatusFailed, JobsScheduled: 4, JobsExecuted: 1}, 0.25, true},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.job.Progress(), 1e-9)
		assert.Equal(t, tt.done, tt.job.Done())
	}
}
