package timeclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/zgpcy/time-display/internal/display"
	"github.com/zgpcy/time-display/internal/logger"
)

const (
	// APIPath is the path the time is served on
	APIPath = "/api/time"

	// MaxBodyBytes caps how much of a response body is read as the time string
	MaxBodyBytes = 1 << 20
)

// Observer is told about every completed refresh
type Observer interface {
	ObserveRefresh(duration time.Duration, err error)
}

// Client fetches the time string and renders it into a display target
type Client struct {
	endpoint   string
	httpClient *http.Client
	target     display.Target
	diag       Diagnostics
	observer   Observer
	logger     *logger.Logger

	inflight sync.WaitGroup
}

// NewClient creates a client for the given /api/time URL. The default HTTP
// client has no timeout: a refresh is a single attempt that runs until the
// server answers or the connection fails.
func NewClient(endpoint string, target display.Target, diag Diagnostics, log *logger.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		target:     target,
		diag:       diag,
		logger:     log.WithFields("endpoint", endpoint),
	}
}

// WithObserver attaches an observer and returns the client
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// WithHTTPClient replaces the HTTP client and returns the client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Endpoint returns the URL the client fetches
func (c *Client) Endpoint() string {
	return c.endpoint
}

// RefreshTime fetches the time and writes it into the display target.
// It returns immediately; failures go to the diagnostic sink and the display
// is left as it was. Overlapping calls are not ordered: the response that
// arrives last is the one left on the display.
func (c *Client) RefreshTime() {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.refresh(context.Background())
	}()
}

// Wait blocks until every refresh started so far has finished
func (c *Client) Wait() {
	c.inflight.Wait()
}

func (c *Client) refresh(ctx context.Context) {
	start := time.Now()

	text, err := c.Fetch(ctx)
	if err == nil {
		err = c.target.SetText(text)
	}
	duration := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveRefresh(duration, err)
	}
	if err != nil {
		c.diag.Report(err)
		return
	}

	c.logger.Debug("Time refreshed", "value", text, "duration_seconds", duration.Seconds())
}

// Fetch performs one GET against the endpoint and returns the body as text
func (c *Client) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", c.fail("request", 0, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail("get", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return "", c.fail("status", resp.StatusCode, fmt.Errorf("unexpected response %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return "", c.fail("read", 0, err)
	}
	if len(body) > MaxBodyBytes {
		return "", c.fail("read", 0, fmt.Errorf("body exceeds %d bytes", MaxBodyBytes))
	}
	if !utf8.Valid(body) {
		return "", c.fail("decode", 0, errors.New("body is not valid UTF-8 text"))
	}

	return string(body), nil
}

func (c *Client) fail(op string, status int, err error) *FetchError {
	return &FetchError{Op: op, Endpoint: c.endpoint, StatusCode: status, Err: err}
}

// ResolveEndpoint turns a configured endpoint into the /api/time URL.
// A bare base URL gets the API path appended; a URL already ending in it is kept.
func ResolveEndpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", base)
	}

	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, APIPath) {
		path += APIPath
	}
	u.Path = path
	u.RawPath = ""
	return u.String(), nil
}
