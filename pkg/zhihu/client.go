package zhihu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"zhexport/pkg/logger"
	"zhexport/pkg/ratelimit"
	"zhexport/pkg/retry"
)

// Error types for Zhihu API operations
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeForbidden   ErrorType = "forbidden"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Zhihu API error
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	URL        string
	// Snippet holds the start of the response body, for diagnostics
	Snippet string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("zhihu %s error (status %d) at %s: %s", e.Type, e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("zhihu %s error at %s: %s", e.Type, e.URL, e.Message)
}

// IsRetryable reports whether retrying the same request can plausibly
// succeed. Auth failures and missing resources never recover on retry.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a transient Zhihu API error
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsRetryable()
}

// IsNotFound reports whether err means the content no longer exists
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeNotFound
}

// IsForbidden reports whether err means access to the content is blocked
func IsForbidden(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeForbidden
}

// DefaultUserAgent matches a current desktop browser; the internal API
// rejects obviously non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// snippetLimit bounds how much response body is kept for error reporting
const snippetLimit = 200

// Client talks to Zhihu's internal web API with a logged-in user's cookie
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	retrier    *retry.Retrier
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy installs the retry policy for transient failures
func WithRetryPolicy(policy retry.Policy) ClientOption {
	return func(c *Client) {
		c.retrier = retry.New(policy, retry.WithRetryIf(IsRetryable), retry.WithLogger(c.logger))
	}
}

// WithRateLimiter caps the overall request rate, on top of the fixed
// pacing delays between operations
func WithRateLimiter(l ratelimit.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithUserAgent overrides the browser identity sent with every request
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.headers["User-Agent"] = ua
		}
	}
}

// NewClient creates an API client authenticated by the given cookie header
func NewClient(cookie string, timeout time.Duration, log logger.Logger, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":      DefaultUserAgent,
			"Accept":          "application/json, text/html;q=0.9, */*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":         BaseURL + "/",
			"Cookie":          cookie,
		},
		logger: log,
	}
	c.retrier = retry.New(retry.DefaultPolicy(), retry.WithRetryIf(IsRetryable), retry.WithLogger(log))

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// get performs one GET and returns the body, mapping failures onto typed
// errors. Transient failures are retried per the client's policy.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, c.retrier, func() ([]byte, error) {
		return c.getOnce(ctx, url)
	})
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		c.limiter.Wait()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Type: ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err), URL: url}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"url": url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, &Error{Type: ErrorTypeNetwork, Message: err.Error(), URL: url}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Type: ErrorTypeNetwork, Message: fmt.Sprintf("failed to read response body: %v", err), StatusCode: resp.StatusCode, URL: url}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := statusError(resp.StatusCode, url, body); err != nil {
		return nil, err
	}
	return body, nil
}

// statusError maps non-2xx statuses onto typed errors
func statusError(status int, url string, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	e := &Error{StatusCode: status, URL: url, Snippet: snippet(body)}
	switch {
	case status == http.StatusUnauthorized:
		e.Type = ErrorTypeAuth
		e.Message = "authentication required; the cookie is missing or expired"
	case status == http.StatusForbidden:
		e.Type = ErrorTypeForbidden
		e.Message = "access forbidden"
	case status == http.StatusNotFound:
		e.Type = ErrorTypeNotFound
		e.Message = "resource not found"
	case status == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
		e.Message = "rate limited"
	case status >= 500:
		e.Type = ErrorTypeServerError
		e.Message = fmt.Sprintf("server returned status %d", status)
	default:
		e.Type = ErrorTypeUnknown
		e.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return e
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > snippetLimit {
		s = s[:snippetLimit] + "..."
	}
	return s
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": snippet(body),
		})
		return &Error{Type: ErrorTypeParsing, Message: fmt.Sprintf("failed to parse JSON: %v", err), URL: url, Snippet: snippet(body)}
	}
	return nil
}

// GetHTML performs a GET request and returns the raw page markup
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
