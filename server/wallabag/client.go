package wallabag

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

const (
	// DefaultTimeout is the default timeout for API requests
	DefaultTimeout = 30 * time.Second
	// DefaultRefreshBuffer is the default margin before token expiry at which
	// the token is considered invalid
	DefaultRefreshBuffer = 60 * time.Second
	// DefaultMaxAttempts is the default number of attempts for a save
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the default delay between save attempts
	DefaultRetryDelay = 2 * time.Second
	// DefaultUserAgent identifies the plugin against the Wallabag instance
	DefaultUserAgent = "Mattermost-Wallabag-Plugin/1.0"

	// maxErrorBodyBytes bounds how much of an error response is carried in
	// the resulting error
	maxErrorBodyBytes = 512
)

// Entry is a saved article in Wallabag.
type Entry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	DomainName  string `json:"domain_name"`
	ReadingTime int    `json:"reading_time"`
	CreatedAt   string `json:"created_at"`
}

// entriesPage mirrors the HAL envelope returned by GET /api/entries.json.
type entriesPage struct {
	Embedded struct {
		Items []Entry `json:"items"`
	} `json:"_embedded"`
	Total int `json:"total"`
}

// Config carries everything the client needs to talk to a Wallabag instance.
type Config struct {
	Credentials
	RequestTimeout time.Duration
	RefreshBuffer  time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	UserAgent      string
	SkipSSLVerify  bool
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeout
	}
	if c.RefreshBuffer <= 0 {
		c.RefreshBuffer = DefaultRefreshBuffer
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Client talks to a Wallabag instance. Saves retry transient failures with a
// constant delay; a 401 on any call forces a single token refresh and one
// retry outside that budget.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryDelay  time.Duration
	tokens      *tokenManager
}

// NewClient creates a client for the given instance. Zero values in cfg fall
// back to the package defaults.
func NewClient(cfg Config) *Client {
	return newClient(cfg, clockwork.NewRealClock())
}

func newClient(cfg Config, clock clockwork.Clock) *Client {
	cfg.applyDefaults()

	transport := http.DefaultTransport
	if cfg.SkipSSLVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-in for self-hosted instances
		}
	}
	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		tokens:      newTokenManager(httpClient, clock, cfg.Credentials, cfg.RefreshBuffer),
	}
}

// RestoreToken seeds the client with a persisted token pair and reports
// whether the pair was accepted. Tokens granted under different credentials
// are rejected so the caller can drop the stale record.
func (c *Client) RestoreToken(st StoredToken) bool {
	return c.tokens.Restore(st)
}

// OnTokenChange registers a callback invoked whenever a grant succeeds, so the
// caller can persist the new token pair. Must be set before first use.
func (c *Client) OnTokenChange(fn func(StoredToken)) {
	c.tokens.onChange = fn
}

// SaveEntry creates an entry for the given URL. Transient failures are retried
// up to the configured number of attempts; on exhaustion the last cause is
// wrapped in a SaveError. The URL itself is not touched: Wallabag fetches and
// parses the page server-side.
func (c *Client) SaveEntry(ctx context.Context, rawURL string) (*Entry, error) {
	var entry Entry

	operation := func() error {
		err := c.doAuthenticated(ctx, http.MethodPost, "/api/entries.json", map[string]string{"url": rawURL}, &entry)
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, &SaveError{URL: rawURL, Cause: err}
	}

	return &entry, nil
}

// ListEntries returns the most recently created entries, newest first.
func (c *Client) ListEntries(ctx context.Context, limit int) ([]Entry, error) {
	var page entriesPage
	path := fmt.Sprintf("/api/entries.json?perPage=%d&sort=created&order=desc", limit)
	if err := c.doAuthenticated(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Embedded.Items, nil
}

// DeleteEntry removes the entry with the given remote id.
func (c *Client) DeleteEntry(ctx context.Context, id int) error {
	return c.doAuthenticated(ctx, http.MethodDelete, fmt.Sprintf("/api/entries/%d.json", id), nil, nil)
}

// doAuthenticated performs one API request with a valid token. On a 401 it
// invalidates the token, forces one refresh and retries the request exactly
// once; a second 401 is returned as-is.
func (c *Client) doAuthenticated(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, path, token, body, out)

	var aErr *apiError
	if errors.As(err, &aErr) && aErr.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(token)
		token, err = c.tokens.ValidToken(ctx)
		if err != nil {
			return err
		}
		return c.do(ctx, method, path, token, body, out)
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, refused connections and resets all land here.
		return &transientError{cause: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}

	return nil
}
