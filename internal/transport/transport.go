// Package transport wraps net/http for requests against the provider's web
// surface: browser-like headers, user-agent rotation, per-request proxy
// selection and a cookie/crumb session bootstrap. HTTP error statuses are
// returned to the caller, not raised, so the retry orchestrator can inspect
// them and decide.
package transport

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// userAgents is the rotation pool; one entry is picked per client, matching
// the upstream surface's tolerance for a stable agent within a session.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// defaultHeaders mirror what a browser sends to the provider's origin.
var defaultHeaders = map[string]string{
	"accept":          "*/*",
	"accept-language": "en-US,en;q=0.9",
	"origin":          "https://finance.yahoo.com",
	"referer":         "https://finance.yahoo.com",
	"sec-fetch-dest":  "empty",
	"sec-fetch-mode":  "cors",
	"sec-fetch-site":  "same-site",
}

// Response is the transport-level result handed to the orchestrator.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client issues GET requests with rotated user agents and optional proxies.
type Client struct {
	timeout   time.Duration
	proxies   []string
	userAgent string
	logger    arbor.ILogger

	mu      sync.Mutex
	clients map[string]*http.Client // keyed by proxy URL, "" = direct
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithProxies sets the proxy pool; one is chosen at random per request.
func WithProxies(proxies []string) Option {
	return func(c *Client) {
		c.proxies = proxies
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a transport client with a randomly chosen user agent.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:   30 * time.Second,
		userAgent: userAgents[rand.Intn(len(userAgents))],
		clients:   make(map[string]*http.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserAgent returns the agent string chosen for this client.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// pickProxy randomly selects a proxy from the pool, or "" for direct.
func (c *Client) pickProxy() string {
	if len(c.proxies) == 0 {
		return ""
	}
	return c.proxies[rand.Intn(len(c.proxies))]
}

// httpClient returns a cached http.Client for the given proxy.
func (c *Client) httpClient(proxy string) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[proxy]; ok {
		return client, nil
	}

	transport := &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %s: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}
	c.clients[proxy] = client
	return client, nil
}

// Open performs a GET against the given URL. Extra headers override the
// defaults. Network errors propagate; HTTP error statuses do not.
func (c *Client) Open(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	httpClient, err := c.httpClient(c.pickProxy())
	if err != nil {
		return nil, err
	}
	return open(ctx, httpClient, rawURL, c.userAgent, headers)
}

// open is shared between the anonymous client and the crumb session.
func open(ctx context.Context, httpClient *http.Client, rawURL, userAgent string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}
