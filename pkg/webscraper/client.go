package webscraper

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"webscraper/pkg/config"
	"webscraper/pkg/logger"
	"webscraper/pkg/ratelimit"
	"webscraper/pkg/retry"
)

const (
	// DefaultRequestTimeout bounds a regular API call
	DefaultRequestTimeout = 60 * time.Second
	// DefaultDownloadTimeout bounds an export download
	DefaultDownloadTimeout = 600 * time.Second
)

// ErrMissingToken is returned when a client is built without an API token
var ErrMissingToken = stderrors.New("webscraper: API token is required")

// Options configure a Client. Only Token is required.
type Options struct {
	Token   string
	BaseURL string
	// Backoff enables retrying 429 responses; nil means enabled
	Backoff         *bool
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	UserAgent       string
	HTTPClient      *http.Client
	Logger          logger.Logger
	// Limiter paces requests on the client side; nil disables pacing
	Limiter ratelimit.Limiter
	// Sleep waits between rate limited attempts; defaults to retry.Wait
	Sleep retry.SleepFunc
}

// Client is a Web Scraper cloud API client. It is safe for concurrent use;
// the iterators it returns are not.
type Client struct {
	transport       *Transport
	executor        *Executor
	downloadTimeout time.Duration
	logger          logger.Logger
}

// NewClient creates a new API client
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, ErrMissingToken
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	downloadTimeout := opts.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	backoff := true
	if opts.Backoff != nil {
		backoff = *opts.Backoff
	}

	transport, err := newTransport(baseURL, opts.Token, userAgent, requestTimeout, httpClient, opts.Limiter, log)
	if err != nil {
		return nil, err
	}

	return &Client{
		transport:       transport,
		executor:        newExecutor(transport, backoff, opts.Sleep, log),
		downloadTimeout: downloadTimeout,
		logger:          log,
	}, nil
}

// NewClientFromConfig creates a client from loaded configuration
func NewClientFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	backoff := cfg.API.Backoff
	return NewClient(Options{
		Token:           cfg.API.Token,
		BaseURL:         cfg.API.BaseURL,
		Backoff:         &backoff,
		RequestTimeout:  cfg.API.RequestTimeout,
		DownloadTimeout: cfg.API.DownloadTimeout,
		UserAgent:       cfg.API.UserAgent,
		Logger:          log,
		Limiter:         ratelimit.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
	})
}

// Executor returns the request executor for endpoints without a helper
func (c *Client) Executor() *Executor {
	return c.executor
}

// CreateSitemap stores a new sitemap
func (c *Client) CreateSitemap(ctx context.Context, sitemap SitemapDefinition) (*CreatedSitemap, error) {
	created, err := doInto[CreatedSitemap](ctx, c.executor, &Request{
		Method: http.MethodPost,
		Path:   sitemapPath(0),
		Body:   sitemap,
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("sitemap created", map[string]interface{}{
		"sitemap_id": created.ID,
	})
	return created, nil
}

// GetSitemap fetches a sitemap with its definition
func (c *Client) GetSitemap(ctx context.Context, sitemapID int) (*Sitemap, error) {
	return doInto[Sitemap](ctx, c.executor, &Request{
		Method: http.MethodGet,
		Path:   sitemapPath(sitemapID),
	})
}

// GetSitemaps lists all sitemaps
func (c *Client) GetSitemaps() *Iterator[SitemapSummary] {
	return newIterator[SitemapSummary](c.executor, sitemapsPath(), nil)
}

// UpdateSitemap replaces a sitemap's definition
func (c *Client) UpdateSitemap(ctx context.Context, sitemapID int, sitemap SitemapDefinition) error {
	_, err := c.executor.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   sitemapPath(sitemapID),
		Body:   sitemap,
	})
	return err
}

// DeleteSitemap deletes a sitemap
func (c *Client) DeleteSitemap(ctx context.Context, sitemapID int) error {
	_, err := c.executor.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   sitemapPath(sitemapID),
	})
	if err == nil {
		c.logger.InfoWithFields("sitemap deleted", map[string]interface{}{
			"sitemap_id": sitemapID,
		})
	}
	return err
}

// CreateScrapingJob starts a scraping job for a sitemap
func (c *Client) CreateScrapingJob(ctx context.Context, cfg ScrapingJobConfig) (*CreatedScrapingJob, error) {
	created, err := doInto[CreatedScrapingJob](ctx, c.executor, &Request{
		Method: http.MethodPost,
		Path:   scrapingJobPath(0),
		Body:   cfg,
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("scraping job created", map[string]interface{}{
		"scraping_job_id": created.ID,
		"sitemap_id":      cfg.SitemapID,
	})
	return created, nil
}

// GetScrapingJob fetches a scraping job
func (c *Client) GetScrapingJob(ctx context.Context, jobID int) (*ScrapingJob, error) {
	return doInto[ScrapingJob](ctx, c.executor, &Request{
		Method: http.MethodGet,
		Path:   scrapingJobPath(jobID),
	})
}

// GetScrapingJobs lists scraping jobs, optionally of one sitemap
func (c *Client) GetScrapingJobs(opts ListScrapingJobsOptions) *Iterator[ScrapingJob] {
	var query url.Values
	if opts.SitemapID != 0 {
		query = url.Values{"sitemap_id": {strconv.Itoa(opts.SitemapID)}}
	}
	return newIterator[ScrapingJob](c.executor, scrapingJobsPath(), query)
}

// DeleteScrapingJob deletes a scraping job and its data
func (c *Client) DeleteScrapingJob(ctx context.Context, jobID int) error {
	_, err := c.executor.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   scrapingJobPath(jobID),
	})
	if err == nil {
		c.logger.InfoWithFields("scraping job deleted", map[string]interface{}{
			"scraping_job_id": jobID,
		})
	}
	return err
}

// GetProblematicURLs lists the failed and empty pages of a scraping job
func (c *Client) GetProblematicURLs(jobID int) *Iterator[ProblematicURL] {
	return newIterator[ProblematicURL](c.executor, scrapingJobSubPath(jobID, "problematic-urls"), nil)
}

// GetScrapingJobDataQuality fetches the data quality report of a scraping job
func (c *Client) GetScrapingJobDataQuality(ctx context.Context, jobID int) (*DataQuality, error) {
	return doInto[DataQuality](ctx, c.executor, &Request{
		Method: http.MethodGet,
		Path:   scrapingJobSubPath(jobID, "data-quality"),
	})
}

// EnableSitemapScheduler turns on a sitemap's schedule
func (c *Client) EnableSitemapScheduler(ctx context.Context, sitemapID int, cfg SchedulerConfig) error {
	// scheduler_enabled is read-only
	cfg.SchedulerEnabled = false
	_, err := c.executor.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   schedulerPath(sitemapID, "enable-scheduler"),
		Body:   cfg,
	})
	return err
}

// DisableSitemapScheduler turns off a sitemap's schedule
func (c *Client) DisableSitemapScheduler(ctx context.Context, sitemapID int) error {
	_, err := c.executor.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   schedulerPath(sitemapID, "disable-scheduler"),
	})
	return err
}

// GetSitemapScheduler fetches a sitemap's schedule
func (c *Client) GetSitemapScheduler(ctx context.Context, sitemapID int) (*SchedulerConfig, error) {
	return doInto[SchedulerConfig](ctx, c.executor, &Request{
		Method: http.MethodGet,
		Path:   schedulerPath(sitemapID, "scheduler"),
	})
}

// GetAccountInfo fetches the token owner's account, including page credits
func (c *Client) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	return doInto[AccountInfo](ctx, c.executor, &Request{
		Method: http.MethodGet,
		Path:   accountPath(),
	})
}
