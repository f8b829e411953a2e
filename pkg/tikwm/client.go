package tikwm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/downloader"
)

const (
	// DefaultBaseURL is the public host of the aggregation API.
	DefaultBaseURL = "https://www.tikwm.com/"

	// DefaultUserAgent is a mobile-browser User-Agent the API accepts.
	DefaultUserAgent = "Mozilla/5.0 (iPad; U; CPU OS 3_2 like Mac OS X; en-us) AppleWebKit/531.21.10 (KHTML, like Gecko) Version/4.0.4 Mobile/7B334b Safari/531.21.10"

	lookupEndpoint          = "api"
	feedSearchEndpoint      = "api/feed/search"
	challengeSearchEndpoint = "api/challenge/search"
)

// SearchMethod selects which search endpoint a query routes to.
type SearchMethod string

const (
	// SearchKeyword is a general content search (result field "videos").
	SearchKeyword SearchMethod = "keyword"
	// SearchHashtag searches challenges (result field "challenge_list").
	SearchHashtag SearchMethod = "hashtag"
)

// Config holds aggregation API client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// FetchAttempts and FetchDelay bound the metadata fetch retry loop.
	FetchAttempts int
	FetchDelay    time.Duration
}

// Client issues parameterized requests to the aggregation API and unwraps
// its response envelope.
//
// The search endpoints are documented as one request per 10 seconds; the
// client does not throttle, pacing is a caller responsibility.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      downloader.RetryConfig
	logger     *slog.Logger
}

// NewClient creates a new aggregation API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = 3
	}
	if cfg.FetchDelay == 0 {
		cfg.FetchDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		retry: downloader.RetryConfig{
			MaxAttempts: cfg.FetchAttempts,
			Delay:       cfg.FetchDelay,
		},
		logger: logger,
	}
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Fetch retrieves post metadata for a link. The link is passed through to
// the API, which resolves share-links server-side, so callers may supply
// either a canonical or a shortened URL. Any failure (transport error,
// non-2xx status, malformed envelope) is retried up to the configured
// attempt budget with a fixed delay; exhaustion surfaces ErrFetch.
func (c *Client) Fetch(ctx context.Context, link string) (*domain.Post, error) {
	params := url.Values{}
	params.Set("url", link)
	params.Set("hd", "1")

	post, err := downloader.Retry(ctx, c.retry, func() (*domain.Post, error) {
		return c.fetchOnce(ctx, params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}

	c.logger.Debug("post metadata fetched", "post_id", post.ID)
	return post, nil
}

func (c *Client) fetchOnce(ctx context.Context, params url.Values) (*domain.Post, error) {
	data, err := c.get(ctx, lookupEndpoint, params)
	if err != nil {
		return nil, err
	}

	var post domain.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return &post, nil
}

// Search queries the feed-search or challenge-search endpoint. An
// unrecognized method fails before any network call. A response without
// the expected result field yields an empty slice, never an error.
// Pagination is caller-driven via cursor; the client never auto-paginates.
func (c *Client) Search(ctx context.Context, method SearchMethod, keyword string, count, cursor int) ([]map[string]any, error) {
	var endpoint, field string
	switch method {
	case SearchKeyword:
		endpoint, field = feedSearchEndpoint, "videos"
	case SearchHashtag:
		endpoint, field = challengeSearchEndpoint, "challenge_list"
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSearchMethod, method)
	}

	if count <= 0 {
		count = 10
	}

	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("count", strconv.Itoa(count))
	params.Set("cursor", strconv.Itoa(cursor))

	data, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	raw, ok := fields[field]
	if !ok {
		return []map[string]any{}, nil
	}

	var results []map[string]any
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decode %s field: %w", field, err)
	}

	c.logger.Info("search complete", "method", string(method), "keyword", keyword, "results", len(results))
	return results, nil
}

// envelope is the fixed response wrapper of the aggregation API.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// get issues a GET and unwraps the response envelope, returning the raw
// inner data document.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("api error (%d): %s", env.Code, env.Msg)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("malformed envelope: missing data")
	}

	return env.Data, nil
}
