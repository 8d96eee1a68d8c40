// Package upstream is the shared HTTP plumbing for every market data
// provider: per-host rate limiting, a circuit breaker per provider, a short
// retry schedule and request metrics.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/aristath/factorlens/internal/metrics"
)

// DefaultRetryDelays is the wait before each attempt. The first attempt is
// immediate.
var DefaultRetryDelays = []time.Duration{0, 250 * time.Millisecond, 800 * time.Millisecond}

// maxBodyBytes caps how much of a response is read. Yahoo five year charts
// are well below this.
const maxBodyBytes = 32 << 20

// ErrCircuitOpen is returned while a provider's breaker is open.
var ErrCircuitOpen = errors.New("circuit open")

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures a Client.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	RetryDelays       []time.Duration
	// BreakerTimeout is how long a tripped breaker stays open.
	BreakerTimeout time.Duration
	// HTTPClient overrides the default transport, mostly for tests.
	HTTPClient *http.Client
}

// Client performs GET requests on behalf of named providers.
type Client struct {
	http        *http.Client
	limiter     *Limiter
	userAgent   string
	retryDelays []time.Duration
	breakerTTL  time.Duration
	metrics     *metrics.Registry
	log         zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient creates a Client. m may be nil.
func NewClient(opts Options, m *metrics.Registry, log zerolog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	delays := opts.RetryDelays
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 10
	}

	breakerTTL := opts.BreakerTimeout
	if breakerTTL <= 0 {
		breakerTTL = 30 * time.Second
	}

	return &Client{
		http:        httpClient,
		limiter:     NewLimiter(rps, burst),
		userAgent:   opts.UserAgent,
		retryDelays: delays,
		breakerTTL:  breakerTTL,
		metrics:     m,
		log:         log.With().Str("component", "upstream").Logger(),
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
}

// GetJSON fetches rawURL and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, provider, rawURL string, headers http.Header, out interface{}) error {
	body, err := c.GetBytes(ctx, provider, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}

// GetBytes fetches rawURL through the provider's breaker, retrying network
// errors, 429 and 5xx responses on the retry schedule.
func (c *Client) GetBytes(ctx context.Context, provider, rawURL string, headers http.Header) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid url: %w", provider, err)
	}

	start := time.Now()
	result, err := c.breaker(provider).Execute(func() (interface{}, error) {
		return c.withRetry(ctx, provider, u, headers)
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "circuit_open"
			err = fmt.Errorf("%s: %w", provider, ErrCircuitOpen)
		} else {
			err = fmt.Errorf("%s: %w", provider, err)
		}
		c.metrics.ObserveUpstream(provider, outcome, elapsed)
		return nil, err
	}

	c.metrics.ObserveUpstream(provider, "ok", elapsed)
	return result.([]byte), nil
}

// BreakerState returns the current state name of the provider's breaker.
func (c *Client) BreakerState(provider string) string {
	return c.breaker(provider).State().String()
}

func (c *Client) withRetry(ctx context.Context, provider string, u *url.URL, headers http.Header) ([]byte, error) {
	var lastErr error
	for attempt, delay := range c.retryDelays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.do(ctx, u, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, err
		}

		c.log.Debug().
			Err(err).
			Str("provider", provider).
			Int("attempt", attempt+1).
			Msg("Upstream attempt failed")
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, u *url.URL, headers http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: u.Redacted(), Body: snippet}
	}

	return body, nil
}

func (c *Client) breaker(provider string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[provider]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     c.breakerTTL,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A 4xx answer means the provider is up; only outages should trip.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && !se.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			c.metrics.SetBreakerState(name, float64(to))
		},
	})
	c.breakers[provider] = cb
	return cb
}

// Brief returns a short message for err: "HTTP <code>" for status errors,
// "circuit open" for an open breaker, the full text otherwise.
func Brief(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("HTTP %d", se.StatusCode)
	}
	if errors.Is(err, ErrCircuitOpen) {
		return ErrCircuitOpen.Error()
	}
	return err.Error()
}
