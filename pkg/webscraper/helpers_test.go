package webscraper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"webscraper/pkg/logger"
)

const testToken = "test-token"

// sleepRecorder stands in for the retry sleep and records requested delays
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func (s *sleepRecorder) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Delays() {
		total += d
	}
	return total
}

// scripted is one canned response
type scripted struct {
	status  int
	headers map[string]string
	body    string
}

// recordedRequest is what the test server saw
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   string
}

// scriptServer replays responses in order and records every request.
// Requests past the end of the script get a 599.
type scriptServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses []scripted
	requests  []recordedRequest
}

func newScriptServer(t *testing.T, responses ...scripted) *scriptServer {
	t.Helper()

	s := &scriptServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	index := len(s.requests)
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	var resp scripted
	if index < len(s.responses) {
		resp = s.responses[index]
	} else {
		resp = scripted{status: 599, body: "unexpected request"}
	}
	s.mu.Unlock()

	for key, value := range resp.headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (s *scriptServer) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func (s *scriptServer) Calls() int {
	return len(s.Requests())
}

func ok(data string) scripted {
	return scripted{status: http.StatusOK, body: `{"success":true,"data":` + data + `}`}
}

func rateLimited(retryAfter string) scripted {
	resp := scripted{status: http.StatusTooManyRequests, body: "429 Error"}
	if retryAfter != "" {
		resp.headers = map[string]string{"Retry-After": retryAfter}
	}
	return resp
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

type testClient struct {
	*Client
	sleeper *sleepRecorder
	logs    *logger.TestLogger
}

func newTestClient(t *testing.T, baseURL string, modify ...func(*Options)) *testClient {
	t.Helper()

	sleeper := &sleepRecorder{}
	logs := logger.NewTestLogger()
	opts := Options{
		Token:   testToken,
		BaseURL: baseURL,
		Logger:  logs,
		Sleep:   sleeper.Sleep,
	}
	for _, fn := range modify {
		fn(&opts)
	}

	client, err := NewClient(opts)
	require.NoError(t, err)
	return &testClient{Client: client, sleeper: sleeper, logs: logs}
}

func withBackoff(enabled bool) func(*Options) {
	return func(o *Options) { o.Backoff = &enabled }
}

// roundTripFunc lets tests answer requests without a listener
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
