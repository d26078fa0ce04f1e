package zhihu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhexport/pkg/logger"
	"zhexport/pkg/retry"
)

// rewriteTransport redirects every request to the test server regardless
// of the host baked into endpoint constants
type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(t.target)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(t *testing.T, server *httptest.Server, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{
		WithHTTPClient(&http.Client{Transport: rewriteTransport{target: server.URL}}),
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffFactor: 1}),
	}, opts...)
	return NewClient("d_c0=test-cookie;", 5*time.Second, logger.NewTestLogger(), opts...)
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotCookie, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	var out map[string]bool
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/x", &out))

	assert.Equal(t, "d_c0=test-cookie;", gotCookie)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{http.StatusUnauthorized, ErrorTypeAuth, false},
		{http.StatusForbidden, ErrorTypeForbidden, false},
		{http.StatusNotFound, ErrorTypeNotFound, false},
		{http.StatusTooManyRequests, ErrorTypeRateLimit, true},
		{http.StatusInternalServerError, ErrorTypeServerError, true},
	}

	for _, tt := range tests {
		err := statusError(tt.status, "https://example.com/x", []byte("body"))
		require.Error(t, err, "status %d", tt.status)

		apiErr, ok := err.(*Error)
		require.True(t, ok)
		assert.Equal(t, tt.wantType, apiErr.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, apiErr.StatusCode)
		assert.Equal(t, tt.retryable, apiErr.IsRetryable(), "status %d", tt.status)
	}
}

func TestClientErrorCarriesURLAndSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.GetJSON(context.Background(), server.URL+"/answers/42", &struct{}{})

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Contains(t, apiErr.URL, "/answers/42")
	assert.Len(t, apiErr.Snippet, snippetLimit+len("..."))
	assert.Contains(t, apiErr.Error(), "status 404")
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	var out struct {
		ID ID `json:"id"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/x", &out))
	assert.Equal(t, ID("1"), out.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryAuthFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.GetJSON(context.Background(), server.URL+"/x", &struct{}{})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientInvalidJSONIsParsingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := testClient(t, server)
	err := client.GetJSON(context.Background(), server.URL+"/x", &struct{}{})

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeParsing, apiErr.Type)
	assert.False(t, IsRetryable(err))
}

func TestClientContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := testClient(t, server)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetHTML(ctx, server.URL+"/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// countingLimiter is a Limiter that never blocks but records how often it
// was consulted
type countingLimiter struct {
	waits atomic.Int32
}

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Wait()       { l.waits.Add(1) }
func (l *countingLimiter) Reset()      {}

func TestClientConsultsRateLimiterPerAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	client := testClient(t, server, WithRateLimiter(limiter))

	var out map[string]bool
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/x", &out))
	assert.Equal(t, int32(2), limiter.waits.Load())
}

func TestGetHTMLReturnsMarkup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>page</body></html>"))
	}))
	defer server.Close()

	client := testClient(t, server)
	page, err := client.GetHTML(context.Background(), server.URL+"/x")
	require.NoError(t, err)
	assert.Contains(t, page, "<body>page</body>")
}
