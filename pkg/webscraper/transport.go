package webscraper

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "webscraper/pkg/errors"
	"webscraper/pkg/logger"
	"webscraper/pkg/ratelimit"
)

// tokenParam is the query parameter that carries the API token
const tokenParam = "api_token"

// Request describes one API call relative to the base URL
type Request struct {
	Method string
	// Path is joined to the base URL, e.g. "scraping-job/5"
	Path  string
	Query url.Values
	// Body is encoded as JSON when non-nil
	Body    any
	Headers map[string]string
	// Timeout overrides the transport's default for this call
	Timeout time.Duration
}

// Response is a completed exchange with the body fully read
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs exactly one physical HTTP request per call. It adds the
// token, the default headers and the base URL, and passes status codes
// through untouched.
type Transport struct {
	httpClient *http.Client
	baseURL    *url.URL
	token      string
	userAgent  string
	timeout    time.Duration
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

func newTransport(baseURL, token, userAgent string, timeout time.Duration, httpClient *http.Client, limiter ratelimit.Limiter, log logger.Logger) (*Transport, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	return &Transport{
		httpClient: httpClient,
		baseURL:    u,
		token:      token,
		userAgent:  userAgent,
		timeout:    timeout,
		limiter:    limiter,
		logger:     log,
	}, nil
}

// Send performs the request and reads the whole response body
func (t *Transport) Send(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	err := t.do(ctx, req, func(httpResp *http.Response) error {
		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeNetwork, 0, err, "failed to read response body")
		}
		resp = &Response{
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       body,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream performs the request and hands the open response to fn. The body
// is closed once fn returns.
func (t *Transport) Stream(ctx context.Context, req *Request, fn func(*http.Response) error) error {
	return t.do(ctx, req, fn)
}

func (t *Transport) do(ctx context.Context, req *Request, fn func(*http.Response) error) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return errs.Wrap(errs.ErrorTypeNetwork, 0, err, "request pacing interrupted")
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		err = t.redact(err)
		t.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"error":       err.Error(),
			"duration_ms": duration.Milliseconds(),
		})
		return errs.Wrap(errs.ErrorTypeNetwork, 0, err, "network error")
	}
	defer httpResp.Body.Close()

	logger.LogRequest(t.logger, req.Method, req.Path, httpResp.StatusCode, float64(duration.Microseconds())/1000)

	return fn(httpResp)
}

// URL returns the absolute URL for req including the token
func (t *Transport) URL(req *Request) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRequest, 0, err, "invalid request path")
	}

	u := t.baseURL.ResolveReference(ref)
	query := u.Query()
	for key, values := range req.Query {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set(tokenParam, t.token)
	u.RawQuery = query.Encode()

	return u, nil
}

func (t *Transport) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u, err := t.URL(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeRequest, 0, err, "failed to encode request body")
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeRequest, 0, err, "failed to create request")
	}

	httpReq.Header.Set("Accept", AcceptHeader)
	httpReq.Header.Set("User-Agent", t.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// redact strips the token from URLs embedded in client errors
func (t *Transport) redact(err error) error {
	var urlErr *url.Error
	if !stderrors.As(err, &urlErr) || t.token == "" {
		return err
	}
	redacted := *urlErr
	redacted.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(t.token), "REDACTED")
	return &redacted
}
