// Package scraper implements ports.HTMLFetcher by issuing direct HTTP GET
// and HEAD requests against merchant storefronts.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/httputil"
)

const (
	defaultFetchTimeout   = 15 * time.Second
	defaultHeadersTimeout = 10 * time.Second
	maxBodyBytes          = 8 << 20
)

// Config configures the HTML fetcher.
type Config struct {
	UserAgent      string
	FetchTimeout   time.Duration
	HeadersTimeout time.Duration
}

// Client implements ports.HTMLFetcher over plain HTTP.
type Client struct {
	fetchClient   *http.Client
	headersClient *http.Client
	userAgent     string
}

// New constructs an HTML-fetching client. Two separate *http.Client values
// are kept since a body fetch (15s) and a headers-only probe (10s) have
// distinct per-call budgets.
func New(cfg Config) (*Client, error) {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	headersTimeout := cfg.HeadersTimeout
	if headersTimeout <= 0 {
		headersTimeout = defaultHeadersTimeout
	}

	fetchClient, err := httputil.NewClient(httputil.ClientConfig{
		ServiceID: "html-scraper",
		Timeout:   fetchTimeout,
	}, httputil.ClientDefaults{Timeout: fetchTimeout, MaxBodyBytes: maxBodyBytes})
	if err != nil {
		return nil, fmt.Errorf("scraper fetch client: %w", err)
	}

	headersClient, err := httputil.NewClient(httputil.ClientConfig{
		ServiceID: "html-scraper-headers",
		Timeout:   headersTimeout,
	}, httputil.ClientDefaults{Timeout: headersTimeout})
	if err != nil {
		return nil, fmt.Errorf("scraper headers client: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; shopsignal-crawler/1.0)"
	}

	return &Client{fetchClient: fetchClient, headersClient: headersClient, userAgent: userAgent}, nil
}

// FetchHTML retrieves the full body, response headers, and status code for
// a storefront page.
func (c *Client) FetchHTML(ctx context.Context, target domain.URL) (string, map[string]string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return "", nil, 0, classifyFetchErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", nil, resp.StatusCode, errors.UpstreamTransient("fetch_html", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return "", flattenHeaders(resp.Header), resp.StatusCode, errors.ScrapingBlocked(target.String())
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", flattenHeaders(resp.Header), resp.StatusCode, errors.UpstreamRateLimit(parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	return string(body), flattenHeaders(resp.Header), resp.StatusCode, nil
}

// FetchHeaders issues a HEAD request, falling back to a range-limited GET
// when the server rejects HEAD (some storefront platforms do).
func (c *Client) FetchHeaders(ctx context.Context, target domain.URL) (map[string]string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultHeadersTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.headersClient.Do(req)
	if err != nil {
		return nil, 0, classifyFetchErr(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return c.fetchHeadersViaGet(ctx, target)
	}

	return flattenHeaders(resp.Header), resp.StatusCode, nil
}

func (c *Client) fetchHeadersViaGet(ctx context.Context, target domain.URL) (map[string]string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := c.headersClient.Do(req)
	if err != nil {
		return nil, 0, classifyFetchErr(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	return flattenHeaders(resp.Header), resp.StatusCode, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func classifyFetchErr(err error) error {
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return errors.UpstreamTimeout("fetch_html")
	}
	return errors.UpstreamTransient("fetch_html", err)
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	var seconds int
	if _, scanErr := fmt.Sscanf(header, "%d", &seconds); scanErr != nil {
		return 0
	}
	return seconds
}
