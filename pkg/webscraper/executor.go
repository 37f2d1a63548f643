package webscraper

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	errs "webscraper/pkg/errors"
	"webscraper/pkg/logger"
	"webscraper/pkg/retry"
)

// maxAttemptsWithBackoff is the attempt ceiling when backoff is enabled
const maxAttemptsWithBackoff = 3

// envelope is the wrapper every JSON response arrives in. List endpoints
// may put their pagination fields next to data instead of inside it.
type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	CurrentPage *int            `json:"current_page,omitempty"`
	LastPage    *int            `json:"last_page,omitempty"`
	Total       *int            `json:"total,omitempty"`
	PerPage     *int            `json:"per_page,omitempty"`
}

// Executor runs requests through the Transport, retries rate limited calls
// and unwraps the response envelope
type Executor struct {
	transport   *Transport
	maxAttempts int
	sleep       retry.SleepFunc
	logger      logger.Logger
}

func newExecutor(transport *Transport, backoff bool, sleep retry.SleepFunc, log logger.Logger) *Executor {
	maxAttempts := 1
	if backoff {
		maxAttempts = maxAttemptsWithBackoff
	}
	if sleep == nil {
		sleep = retry.Wait
	}
	return &Executor{
		transport:   transport,
		maxAttempts: maxAttempts,
		sleep:       sleep,
		logger:      log,
	}
}

// MaxAttempts returns the attempt ceiling for a single call
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Do performs req and returns the envelope's data
func (e *Executor) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	env, err := e.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (e *Executor) execute(ctx context.Context, req *Request) (*envelope, error) {
	resp, err := retry.DoWithResult(func() (*Response, error) {
		return e.attempt(ctx, req)
	}, &retry.Config{
		MaxAttempts: e.maxAttempts,
		Backoff:     retry.DefaultRetryAfterBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			retryAfter := 0
			if apiErr, ok := errs.As(err); ok {
				retryAfter, _ = retry.ParseRetryAfter(apiErr.RetryAfter)
			}
			logger.LogRateLimit(e.logger, req.Path, attempt, retryAfter)
		},
		Sleep:   e.sleep,
		Context: ctx,
	})
	if err != nil {
		if _, ok := errs.As(err); !ok {
			err = errs.Wrap(errs.ErrorTypeNetwork, 0, err, "request interrupted")
		}
		return nil, err
	}

	return e.decode(req, resp.Body)
}

// attempt is one physical call; anything but 200 becomes a status error
func (e *Executor) attempt(ctx context.Context, req *Request) (*Response, error) {
	resp, err := e.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := errs.NewStatusError(resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			statusErr.RetryAfter = resp.Header.Get("Retry-After")
		}
		return nil, statusErr
	}

	return resp, nil
}

func (e *Executor) decode(req *Request, body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		e.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.Path,
			"error":        err.Error(),
			"body_preview": bodyPreview(body),
		})
		return nil, errs.NewProtocolError(body, err)
	}

	if !env.Success {
		e.logger.WarnWithFields("unsuccessful API response", map[string]interface{}{
			"path":         req.Path,
			"body_preview": bodyPreview(body),
		})
		return nil, errs.NewProtocolError(body, nil)
	}

	return &env, nil
}

// doInto performs req and decodes the envelope's data into a T
func doInto[T any](ctx context.Context, e *Executor, req *Request) (*T, error) {
	data, err := e.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		e.logger.ErrorWithFields("failed to decode response data", map[string]interface{}{
			"path":         req.Path,
			"error":        err.Error(),
			"body_preview": bodyPreview(data),
		})
		return nil, errs.NewProtocolError(data, err)
	}
	return &out, nil
}

func bodyPreview(body []byte) string {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return preview
}
