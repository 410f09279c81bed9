// Package adslibrary implements ports.AdsLibraryClient against the public
// ads-library wire protocol (§9): a paginated GET endpoint returning
// {data:[...], paging:{next?}}, decoded tolerantly since the upstream
// payload is loosely typed.
package adslibrary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/cache"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/httputil"
	"github.com/shopsignal/platform/internal/platform/logging"
	"github.com/shopsignal/platform/internal/platform/resilience"
	"github.com/shopsignal/platform/internal/ports"
)

// responseCacheTTL bounds how long an identical ads_archive query (same
// keyword, country, paging cursor) is served from memory instead of hitting
// the upstream again; keyword searches and deep-page re-scans frequently
// repeat the same query within minutes of each other.
const responseCacheTTL = 2 * time.Minute

// basicFields/detailFields mirror the upstream distinction between a cheap
// search/page lookup and a detailed per-ad fetch.
const (
	basicFields = "id,page_id"
	detailFields = "id,page_id,page_name,ad_creation_time,ad_creative_bodies," +
		"ad_creative_link_captions,ad_creative_link_titles,ad_creative_link_urls," +
		"ad_delivery_start_time,ad_delivery_stop_time,publisher_platforms," +
		"languages,target_ages,impressions,spend,currency,cta_type,ad_snapshot_url"

	defaultLimit = 1000
)

// Config configures the ads-library HTTP client.
type Config struct {
	BaseURL       string
	AccessToken   string
	APIVersion    string
	UserAgent     string
	Timeout       time.Duration
	MaxFailures   int
	BreakerWindow time.Duration
}

// Client implements ports.AdsLibraryClient over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	breaker    *resilience.CircuitBreaker
	log        *logging.Logger
	respCache  *cache.TTLCache
}

// New constructs an ads-library client. The circuit breaker wraps this
// client specifically since it is called at high volume from many
// concurrent keyword searches (§5).
func New(cfg Config, log *logging.Logger) (*Client, error) {
	httpClient, baseURL, err := httputil.NewClientWithBaseURL(httputil.ClientConfig{
		BaseURL:   cfg.BaseURL,
		ServiceID: "ads-library",
		Timeout:   cfg.Timeout,
	}, httputil.ClientDefaults{
		Timeout:          30 * time.Second,
		MaxBodyBytes:     4 << 20,
		NormalizeBaseURL: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ads-library client: %w", err)
	}

	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	breakerWindow := cfg.BreakerWindow
	if breakerWindow <= 0 {
		breakerWindow = 30 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		userAgent:  cfg.UserAgent,
		breaker: resilience.New(resilience.Config{
			MaxFailures: maxFailures,
			Timeout:     breakerWindow,
			OnStateChange: func(from, to resilience.State) {
				log.WithFields(map[string]interface{}{
					"adapter":    "ads-library",
					"from_state": from.String(),
					"to_state":   to.String(),
				}).Warn("ads-library circuit breaker state changed")
			},
		}),
		log:       log,
		respCache: cache.NewTTLCache(responseCacheTTL),
	}, nil
}

// SearchByKeyword streams raw ads across every paginated response.
func (c *Client) SearchByKeyword(ctx context.Context, params ports.AdsLibrarySearchParams, yield func(ports.RawAd) error) error {
	limit := params.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}

	values := url.Values{}
	values.Set("ad_type", "ALL")
	values.Set("ad_active_status", "ACTIVE")
	values.Set("search_type", "KEYWORD_UNORDERED")
	values.Set("ad_reached_countries", string(params.Country))
	values.Set("search_terms", params.Keyword)
	values.Set("limit", strconv.Itoa(limit))
	values.Set("fields", basicFields)
	if params.Language != nil {
		values.Set("languages", string(*params.Language))
	}

	return c.fetchPaginated(ctx, values, limit, yield)
}

// GetByPage fetches detailed ads for a single advertiser page (§4.3).
func (c *Client) GetByPage(ctx context.Context, advertiserID string, country domain.Country) ([]ports.RawAd, error) {
	values := url.Values{}
	values.Set("ad_type", "ALL")
	values.Set("ad_active_status", "ACTIVE")
	values.Set("ad_reached_countries", string(country))
	values.Set("search_page_ids", advertiserID)
	values.Set("limit", strconv.Itoa(defaultLimit))
	values.Set("fields", detailFields)

	var out []ports.RawAd
	err := c.fetchPaginated(ctx, values, defaultLimit, func(ad ports.RawAd) error {
		out = append(out, ad)
		return nil
	})
	return out, err
}

func (c *Client) fetchPaginated(ctx context.Context, values url.Values, maxResults int, yield func(ports.RawAd) error) error {
	count := 0
	nextURL := c.requestURL(values)

	for nextURL != "" && count < maxResults {
		body, err := c.doRequest(ctx, nextURL)
		if err != nil {
			return err
		}

		data := gjson.GetBytes(body, "data")
		var yieldErr error
		data.ForEach(func(_, ad gjson.Result) bool {
			raw := decodeRawAd(ad)
			if err := yield(raw); err != nil {
				yieldErr = err
				return false
			}
			count++
			return count < maxResults
		})
		if yieldErr != nil {
			return yieldErr
		}

		next := gjson.GetBytes(body, "paging.next")
		if !next.Exists() || next.String() == "" {
			break
		}
		nextURL = next.String()
	}
	return nil
}

func (c *Client) requestURL(values url.Values) string {
	values.Set("access_token", c.token)
	base := strings.TrimSuffix(c.baseURL, "/")
	return base + "/ads_archive?" + values.Encode()
}

// doRequest executes one HTTP GET with retry-then-circuit-breaker, matching
// §5's "exponential backoff, base 1s, factor 2, jitter ±25%, cap 10s, at
// most 3 attempts" retry policy and classifying the response per §7.
func (c *Client) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	if cached, ok := c.respCache.Get(ctx, requestURL); ok {
		return cached.([]byte), nil
	}

	var body []byte

	breakerErr := c.breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			Jitter:       0.25,
		}, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return err
			}
			if c.userAgent != "" {
				req.Header.Set("User-Agent", c.userAgent)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			respBody, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return readErr
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				body = respBody
				return nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return backoff.Permanent(errors.UpstreamAuth(fmt.Errorf("status %d", resp.StatusCode)))
			case resp.StatusCode == http.StatusTooManyRequests:
				retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
				return backoff.Permanent(errors.UpstreamRateLimit(retryAfter))
			case resp.StatusCode >= 500:
				return errors.UpstreamTransient("ads_library_request", fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(respBody, "error.message").String()))
			default:
				return backoff.Permanent(errors.UpstreamTransient("ads_library_request", fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(respBody, "error.message").String())))
			}
		})
	})
	c.log.LogUpstreamCall(ctx, "ads-library", "ads_archive", breakerErr)
	if breakerErr != nil {
		return nil, breakerErr
	}
	c.respCache.Set(ctx, requestURL, body)
	return body, nil
}

// decodeRawAd tolerantly extracts the fields this spec names from a raw
// ads-library JSON object; unknown/missing fields default rather than
// error (§9).
func decodeRawAd(ad gjson.Result) ports.RawAd {
	return ports.RawAd{
		LibraryAdID:      ad.Get("id").String(),
		AdvertiserID:     ad.Get("page_id").String(),
		AdvertiserName:   ad.Get("page_name").String(),
		Title:            stringArray(ad.Get("ad_creative_link_titles")),
		Body:             stringArray(ad.Get("ad_creative_bodies")),
		LinkURLs:         stringArray(ad.Get("ad_creative_link_urls")),
		LinkCaptions:     stringArray(ad.Get("ad_creative_link_captions")),
		LinkTitles:       stringArray(ad.Get("ad_creative_link_titles")),
		LinkDescriptions: stringArray(ad.Get("ad_creative_bodies")),
		CTAType:          ad.Get("cta_type").String(),
		Status:           "active",
		Platforms:        stringArray(ad.Get("publisher_platforms")),
		Countries:        countriesOf(ad.Get("country")),
		StartedAt:        timePtr(ad.Get("ad_delivery_start_time")),
		EndedAt:          timePtr(ad.Get("ad_delivery_stop_time")),
		Currency:         ad.Get("currency").String(),
	}
}

func stringArray(field gjson.Result) []string {
	if !field.Exists() {
		return nil
	}
	if field.IsArray() {
		out := make([]string, 0, len(field.Array()))
		for _, v := range field.Array() {
			out = append(out, v.String())
		}
		return out
	}
	if s := field.String(); s != "" {
		return []string{s}
	}
	return nil
}

// countriesOf normalizes the ads-library "countries" field, which arrives
// as either a bare string or a list, to a string slice regardless of wire
// shape (§9).
func countriesOf(field gjson.Result) []string {
	return stringArray(field)
}

func timePtr(field gjson.Result) *time.Time {
	if !field.Exists() || field.String() == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, field.String())
	if err != nil {
		return nil
	}
	return &t
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		return 0
	}
	return seconds
}

