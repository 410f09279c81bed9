// Package sitemap implements ports.SitemapFetcher, fetching and parsing a
// single sitemap document (index or urlset, namespaced or not).
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/httputil"
	"github.com/shopsignal/platform/internal/ports"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 16 << 20
)

// sitemapDoc is parsed loosely: a sitemap index has <sitemapindex><sitemap><loc>,
// a regular sitemap has <urlset><url><loc>. Both shapes share the same <loc>
// leaf, namespaced or not, so one struct covers both with XPath-free
// decoding via Go's element-name matching.
type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// Config configures the sitemap client.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Client implements ports.SitemapFetcher over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New constructs a sitemap-fetching client.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient, err := httputil.NewClient(httputil.ClientConfig{
		ServiceID: "sitemap",
		Timeout:   timeout,
	}, httputil.ClientDefaults{Timeout: timeout, MaxBodyBytes: maxBodyBytes})
	if err != nil {
		return nil, fmt.Errorf("sitemap client: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; shopsignal-crawler/1.0)"
	}

	return &Client{httpClient: httpClient, userAgent: userAgent}, nil
}

// FetchSitemap retrieves and parses one sitemap document, reporting whether
// it is a sitemap index (its children are further sitemaps) or a regular
// urlset (its children are page URLs).
func (c *Client) FetchSitemap(ctx context.Context, sitemapURL string) (bool, []ports.SitemapURL, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return false, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "context deadline exceeded") {
			return false, nil, errors.UpstreamTimeout("fetch_sitemap")
		}
		return false, nil, errors.UpstreamTransient("fetch_sitemap", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil, errors.NotFound("sitemap", sitemapURL)
	}
	if resp.StatusCode != http.StatusOK {
		return false, nil, errors.UpstreamTransient("fetch_sitemap", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, nil, errors.UpstreamTransient("fetch_sitemap", err)
	}

	return parseSitemap(body)
}

func parseSitemap(body []byte) (bool, []ports.SitemapURL, error) {
	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return false, nil, errors.Validation("sitemap", fmt.Sprintf("invalid XML: %v", err))
	}

	if len(doc.Sitemaps) > 0 {
		urls := make([]ports.SitemapURL, 0, len(doc.Sitemaps))
		for _, s := range doc.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				urls = append(urls, ports.SitemapURL{Loc: loc})
			}
		}
		return true, urls, nil
	}

	urls := make([]ports.SitemapURL, 0, len(doc.URLs))
	for _, u := range doc.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, ports.SitemapURL{Loc: loc})
		}
	}
	return false, urls, nil
}
