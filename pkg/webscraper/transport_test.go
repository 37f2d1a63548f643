package webscraper

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"webscraper/pkg/logger"
	"webscraper/pkg/ratelimit"
)

func newBareTransport(t *testing.T, baseURL string) *Transport {
	t.Helper()
	transport, err := newTransport(baseURL, "tok en", DefaultUserAgent, time.Second, http.DefaultClient, nil, logger.NewNopLogger())
	require.NoError(t, err)
	return transport
}

func TestTransportURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		req     *Request
		want    string
	}{
		{
			name:    "default base",
			baseURL: DefaultBaseURL,
			req:     &Request{Path: "sitemap/1"},
			want:    "https://api.webscraper.io/api/v1/sitemap/1?api_token=tok+en",
		},
		{
			name:    "base without trailing slash",
			baseURL: "http://localhost:8080/api/v1",
			req:     &Request{Path: "/scraping-jobs", Query: map[string][]string{"sitemap_id": {"4"}, "page": {"2"}}},
			want:    "http://localhost:8080/api/v1/scraping-jobs?api_token=tok+en&page=2&sitemap_id=4",
		},
		{
			name:    "token cannot be overridden",
			baseURL: DefaultBaseURL,
			req:     &Request{Path: "account", Query: map[string][]string{"api_token": {"other"}}},
			want:    "https://api.webscraper.io/api/v1/account?api_token=tok+en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := newBareTransport(t, tt.baseURL).URL(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestNewTransportRejectsBadBaseURL(t *testing.T) {
	_, err := newTransport("ftp://example.com/", "t", DefaultUserAgent, 0, http.DefaultClient, nil, logger.NewNopLogger())
	assert.Error(t, err)

	_, err = newTransport("://", "t", DefaultUserAgent, 0, http.DefaultClient, nil, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestTransportSendsHeadersAndBody(t *testing.T) {
	server := newScriptServer(t, ok(`{"id":3}`), ok(`"ok"`))
	client := newTestClient(t, server.URL+"/api/v1/", func(o *Options) {
		o.UserAgent = "custom-agent/2"
	})

	created, err := client.CreateSitemap(context.Background(), SitemapDefinition(`{"_id":"books","startUrl":["https://example.com"]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)

	require.NoError(t, client.DeleteSitemap(context.Background(), 3))

	requests := server.Requests()
	require.Len(t, requests, 2)

	post := requests[0]
	assert.Equal(t, http.MethodPost, post.Method)
	assert.Equal(t, "/api/v1/sitemap", post.Path)
	assert.Equal(t, AcceptHeader, post.Header.Get("Accept"))
	assert.Equal(t, "custom-agent/2", post.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", post.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"_id":"books","startUrl":["https://example.com"]}`, post.Body)
	assert.Equal(t, []string{testToken}, post.Query["api_token"])

	del := requests[1]
	assert.Equal(t, http.MethodDelete, del.Method)
	assert.Equal(t, "/api/v1/sitemap/3", del.Path)
	assert.Empty(t, del.Header.Get("Content-Type"))
	assert.Empty(t, del.Body)
}

func TestTransportPassesStatusThrough(t *testing.T) {
	server := newScriptServer(t, scripted{status: http.StatusTeapot, body: "teapot"})
	transport := newBareTransport(t, server.URL)

	resp, err := transport.Send(context.Background(), &Request{Method: http.MethodGet, Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "teapot", string(resp.Body))
}

func TestTransportTimeout(t *testing.T) {
	client := newTestClient(t, "http://api.invalid/", func(o *Options) {
		o.RequestTimeout = 20 * time.Millisecond
		o.HTTPClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			<-r.Context().Done()
			return nil, r.Context().Err()
		})}
	})

	_, err := client.GetAccountInfo(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransportWaitsForLimiter(t *testing.T) {
	server := newScriptServer(t, ok(`1`), ok(`1`))
	limiter := ratelimit.NewTokenBucket(rate.Every(time.Hour), 1)
	client := newTestClient(t, server.URL, func(o *Options) {
		o.Limiter = limiter
	})

	_, err := client.Executor().Do(context.Background(), get("account"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Executor().Do(ctx, get("account"))
	require.Error(t, err)

	assert.Equal(t, 1, server.Calls(), "second call never left the client")
}
