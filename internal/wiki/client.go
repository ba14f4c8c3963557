package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// Client fetches Wikipedia articles over HTTP.
//
// Design decision: We require the caller to supply an *http.Client rather
// than constructing one internally because:
//  1. Tests can inject a client pointed at an httptest server
//  2. Timeout policy stays in one place (the http.Client)
//  3. Callers can add transports (proxies, instrumentation) without
//     changes here
type Client struct {
	// httpClient performs the requests. Its Timeout is the per-request bound.
	httpClient *http.Client

	// baseURL is the article URL prefix, e.g. "https://en.wikipedia.org/wiki/".
	baseURL string

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits how many bytes of a response body are read.
	maxBodySize int64

	// limiter throttles outgoing requests. Nil means no throttling.
	limiter *rate.Limiter

	// robots holds the parsed robots.txt group for our user agent.
	// Nil means no robots policy is enforced.
	robots *robotstxt.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the article URL prefix.
// It must end with the article path separator (e.g. ".../wiki/").
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithRequestsPerSecond installs a rate limiter on outgoing requests.
// A non-positive value disables throttling.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a Client for the English Wikipedia by default.
func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  httpClient,
		baseURL:     "https://en.wikipedia.org/wiki/",
		userAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LoadRobotsPolicy fetches and parses robots.txt from the site root and
// enables per-article robots checks on subsequent Fetch calls.
//
// Design decision: This is a separate, explicit step rather than part of
// NewClient because constructing a client should not perform network I/O,
// and tests usually don't want a robots round trip.
func (c *Client) LoadRobotsPolicy(ctx context.Context) error {
	robotsURL := strings.TrimSuffix(c.baseURL, articlePathPrefix) + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return fmt.Errorf("parse robots.txt: %w", err)
	}

	c.robots = data.FindGroup(c.userAgent)
	return nil
}

// PageURL returns the full URL for an article title.
func (c *Client) PageURL(title string) string {
	return c.baseURL + title
}

// Fetch downloads the raw HTML of one article.
// A non-2xx status is an error; the caller decides how to degrade.
// No retries are performed here.
func (c *Client) Fetch(ctx context.Context, title string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	if c.robots != nil && !c.robots.Test(articlePathPrefix+title) {
		return "", fmt.Errorf("robots.txt disallows %s%s", articlePathPrefix, title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(title), nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", title, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// DefaultHTTPClient returns an http.Client with the given per-request timeout.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
