// Package api reads ledger records from the bookkeeping backend's JSON API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ledgerstats/internal/cache"
	"ledgerstats/internal/core"
	"ledgerstats/internal/log"
	"ledgerstats/internal/sources"
)

const (
	statisticsPath = "/api/statistics"
	categoriesPath = "/api/categories"
	metaCacheKey   = "category_meta"
	maxBodyBytes   = 64 << 20
)

// Ensure interface conformance
var _ sources.Source = (*Client)(nil)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	metaCache  *cache.LRUCache[map[string]core.CategoryMeta]
	logger     *log.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetaTTL sets how long category metadata is reused between loads.
// A zero TTL disables the cache.
func WithMetaTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.metaCache = nil
			return
		}
		c.metaCache = cache.NewLRUCache[map[string]core.CategoryMeta](1, ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentSource)
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: newHTTPClientWithPooling(),
		metaCache:  cache.NewLRUCache[map[string]core.CategoryMeta](1, 5*time.Minute),
		logger:     log.Discard().WithComponent(log.ComponentSource),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MetaCache exposes the metadata cache so it can be registered for cleanup.
func (c *Client) MetaCache() *cache.LRUCache[map[string]core.CategoryMeta] {
	return c.metaCache
}

// FetchRecords calls the statistics endpoint. A response with success=false
// is returned as is, without error, so callers can show its message.
func (c *Client) FetchRecords(ctx context.Context, params url.Values) (core.StatisticsResponse, error) {
	var out core.StatisticsResponse
	if err := c.getJSON(ctx, statisticsPath, params, &out); err != nil {
		return core.StatisticsResponse{}, err
	}
	if out.AllItems == nil {
		out.AllItems = []core.Record{}
	}
	c.logger.DebugContext(ctx, "Fetched records",
		log.FieldRecords, len(out.AllItems),
		log.FieldSuccess, out.Success)
	return out, nil
}

// FetchCategoryMeta calls the categories endpoint, reusing a cached mapping
// while it is fresh.
func (c *Client) FetchCategoryMeta(ctx context.Context) (core.CategoryMetaResponse, error) {
	if c.metaCache != nil {
		if meta, ok := c.metaCache.Get(metaCacheKey); ok {
			return core.CategoryMetaResponse{Success: true, Meta: meta}, nil
		}
	}

	var out core.CategoryMetaResponse
	if err := c.getJSON(ctx, categoriesPath, nil, &out); err != nil {
		return core.CategoryMetaResponse{}, err
	}
	if out.Success && out.Meta != nil && c.metaCache != nil {
		c.metaCache.Set(metaCacheKey, out.Meta)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	u := c.baseURL.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", sources.ErrFetchFailed, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", sources.ErrFetchFailed, path, err)
	}
	// Error responses still carry {success:false,error}, so decode before
	// looking at the status.
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: GET %s: status %d: %w", sources.ErrFetchFailed, path, resp.StatusCode, err)
	}

	c.logger.DebugContext(ctx, "Backend request completed",
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// timeouts and keep-alive for repeated dashboard reloads.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
