// Package datagov provides a client for the data.gov.in resource API,
// the live side of the question-answering pipeline.
package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Luc0-0/Samarth/internal/resilience"
)

// Record is one raw row from a live resource. Column names vary by
// resource, so rows stay untyped until the synthesizer sees them.
type Record map[string]any

// Client defines the live portal operations the pipeline consumes.
type Client interface {
	// Fetch retrieves up to limit records from a resource, optionally
	// filtered by column values (e.g. state, commodity).
	Fetch(ctx context.Context, resourceID string, filters map[string]string, limit int) ([]Record, error)
}

// Option configures the portal client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second against the portal.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetryConfig overrides the retry schedule.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a data.gov.in client. The API key is mandatory for
// the portal; an empty key makes every fetch fail, which the pipeline
// absorbs through its historical fallback.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.data.gov.in/resource",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the portal's standard JSON response wrapper.
type envelope struct {
	Records []Record `json:"records"`
}

func (c *httpClient) Fetch(ctx context.Context, resourceID string, filters map[string]string, limit int) ([]Record, error) {
	if c.apiKey == "" {
		return nil, eris.New("datagov: api key not configured")
	}
	if limit <= 0 {
		limit = 100
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", fmt.Sprintf("%d", limit))
	for col, val := range filters {
		q.Set(fmt.Sprintf("filters[%s]", col), val)
	}
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(resourceID), q.Encode())

	return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]Record, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]Record, error) {
			return c.fetchOnce(ctx, reqURL)
		})
	})
}

func (c *httpClient) fetchOnce(ctx context.Context, reqURL string) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "datagov: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "datagov: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "datagov: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "datagov: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.NewTransientError(
			eris.Errorf("datagov: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("datagov: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "datagov: unmarshal response")
	}
	return env.Records, nil
}
