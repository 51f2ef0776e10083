package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// cookieURL sets the session cookie required before a crumb is issued.
	cookieURL = "https://fc.yahoo.com"

	// crumbURL returns the short-lived auth token for crumb-gated endpoints.
	crumbURL = "https://query2.finance.yahoo.com/v1/test/getcrumb"
)

// Session is a cookie-jar backed client that carries the provider's crumb
// token. A handshake against the cookie endpoint followed by the crumb
// endpoint authorizes subsequent API requests.
type Session struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger

	// Handshake endpoints, overridable in tests.
	cookieURL string
	crumbURL  string

	mu    sync.Mutex
	crumb string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHandshakeEndpoints overrides the cookie and crumb endpoints.
func WithHandshakeEndpoints(cookie, crumb string) SessionOption {
	return func(s *Session) {
		s.cookieURL = cookie
		s.crumbURL = crumb
	}
}

// NewSession creates an unbootstrapped session. The first Authorize call
// (or an explicit Refresh) performs the handshake.
func NewSession(timeout time.Duration, logger arbor.ILogger, opts ...SessionOption) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	s := &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		userAgent: userAgents[0],
		logger:    logger,
		cookieURL: cookieURL,
		crumbURL:  crumbURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Refresh performs the cookie+crumb handshake, replacing any held token.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The cookie endpoint responds with an error page; only the Set-Cookie
	// side effect matters.
	if _, err := open(ctx, s.client, s.cookieURL, s.userAgent, nil); err != nil {
		return fmt.Errorf("session cookie handshake: %w", err)
	}

	resp, err := open(ctx, s.client, s.crumbURL, s.userAgent, nil)
	if err != nil {
		return fmt.Errorf("crumb handshake: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("crumb handshake replied HTTP %d", resp.StatusCode)
	}

	crumb := strings.TrimSpace(string(resp.Body))
	if crumb == "" || strings.Contains(crumb, "<html") {
		return fmt.Errorf("crumb handshake returned no token")
	}

	s.crumb = crumb
	if s.logger != nil {
		s.logger.Debug().Msg("Session crumb refreshed")
	}
	return nil
}

// Crumb returns the held token, empty when not yet bootstrapped.
func (s *Session) Crumb() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crumb
}

// Authorize appends the crumb to an API URL, performing the handshake first
// if no token is held.
func (s *Session) Authorize(ctx context.Context, rawURL string) (string, error) {
	if s.Crumb() == "" {
		if err := s.Refresh(ctx); err != nil {
			return "", err
		}
	}
	separator := "&"
	if !strings.Contains(rawURL, "?") {
		separator = "?"
	}
	return rawURL + separator + "crumb=" + s.Crumb(), nil
}

// Open performs a GET carrying the session cookies.
func (s *Session) Open(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return open(ctx, s.client, rawURL, s.userAgent, headers)
}
