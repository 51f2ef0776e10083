// Package fetch implements the retry orchestrator sitting between the
// transport layer and the normalizers. It owns the retry budgets, the
// host rotation between the two equivalent API gateways, the crumb
// re-authorization on HTTP 401, the global request throttle and the
// per-instance URL cache that guarantees each URL is fetched at most once.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finfetch/internal/transport"
)

const (
	// maxScrapeAttempts bounds HTML page scrapes, which raise a
	// ManagedError when the budget runs out.
	maxScrapeAttempts = 10

	// maxAPIAttempts bounds JSON API calls. Statement and module paths
	// raise a ManagedError on exhaustion; the chart path degrades to an
	// empty result instead.
	maxAPIAttempts = 6
)

// Fetcher coordinates retries, throttling and caching for all network
// operations. One Fetcher per pipeline instance; the cache lives for the
// lifetime of the instance, so repeated reads of the same URL never touch
// the network twice.
type Fetcher struct {
	client   *transport.Client
	session  *transport.Session
	throttle *rate.Limiter
	logger   arbor.ILogger
	sleep    func(time.Duration)

	mu        sync.Mutex
	apiCache  map[string]json.RawMessage
	pageCache map[string]map[string]interface{}
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithThrottle replaces the process-wide request limiter.
func WithThrottle(limiter *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.throttle = limiter
	}
}

// WithSleep replaces the inter-attempt sleep, for tests.
func WithSleep(sleep func(time.Duration)) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// NewFetcher creates a fetcher bound to the given transport client and
// crumb session.
func NewFetcher(client *transport.Client, session *transport.Session, logger arbor.ILogger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		session:   session,
		throttle:  sharedThrottle,
		logger:    logger,
		sleep:     time.Sleep,
		apiCache:  make(map[string]json.RawMessage),
		pageCache: make(map[string]map[string]interface{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAPI opens an API URL and returns the inner content of the named
// response envelope field. Results are cached under the original URL, so
// host rotation during retries never splits the cache. Budget exhaustion
// returns a *ManagedError.
func (f *Fetcher) FetchAPI(ctx context.Context, rawURL, responseField string) (json.RawMessage, error) {
	f.mu.Lock()
	if cached, ok := f.apiCache[rawURL]; ok {
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	currentURL := rawURL
	reauthorize := false
	lastStatus := 0
	for attempt := 1; attempt <= maxAPIAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := f.open(ctx, currentURL, reauthorize)
		reauthorize = false
		if err != nil {
			f.logRetry(currentURL, attempt, 0, err)
			f.backoff(1, 5)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			payload, perr := extractEnvelopeField(resp.Body, responseField)
			if perr != nil {
				f.logRetry(currentURL, attempt, resp.StatusCode, perr)
				f.backoff(1, 5)
				continue
			}
			f.mu.Lock()
			f.apiCache[rawURL] = payload
			f.mu.Unlock()
			return payload, nil
		}

		lastStatus = resp.StatusCode
		f.logRetry(currentURL, attempt, resp.StatusCode, nil)
		if resp.StatusCode == http.StatusUnauthorized {
			// Expired crumb; re-run the cookie handshake before retrying.
			reauthorize = true
		}
		f.backoff(1, 5)
		if attempt%2 == 0 {
			currentURL = alternateHost(currentURL)
		}
	}

	return nil, &ManagedError{StatusCode: lastStatus, URL: currentURL, Attempts: maxAPIAttempts}
}

// FetchChart opens a price-history URL and returns the raw response body.
// Unlike FetchAPI this path degrades: when the budget runs out it reports
// ok=false and the caller emits whatever partial data it already has.
func (f *Fetcher) FetchChart(ctx context.Context, rawURL string) (json.RawMessage, bool) {
	f.mu.Lock()
	if cached, ok := f.apiCache[rawURL]; ok {
		f.mu.Unlock()
		return cached, true
	}
	f.mu.Unlock()

	currentURL := rawURL
	for attempt := 1; attempt <= maxAPIAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, false
		}

		resp, err := f.client.Open(ctx, currentURL, nil)
		if err != nil {
			f.logRetry(currentURL, attempt, 0, err)
			f.backoff(1, 5)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			body := json.RawMessage(resp.Body)
			f.mu.Lock()
			f.apiCache[rawURL] = body
			f.mu.Unlock()
			return body, true
		}

		f.logRetry(currentURL, attempt, resp.StatusCode, nil)
		f.backoff(1, 5)
		if attempt%2 == 0 {
			currentURL = alternateHost(currentURL)
		}
	}

	return nil, false
}

// Forget drops a cached payload so the next fetch goes back to the network.
// Used when a cached chart turns out to carry unusable rows.
func (f *Fetcher) Forget(rawURL string) {
	f.mu.Lock()
	delete(f.apiCache, rawURL)
	f.mu.Unlock()
}

// open issues a single GET, going through the crumb session when the
// previous attempt saw HTTP 401.
func (f *Fetcher) open(ctx context.Context, rawURL string, reauthorize bool) (*transport.Response, error) {
	if !reauthorize {
		return f.client.Open(ctx, rawURL, nil)
	}
	if err := f.session.Refresh(ctx); err != nil {
		return nil, err
	}
	authorized, err := f.session.Authorize(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return f.session.Open(ctx, authorized, nil)
}

// backoff sleeps a random whole number of seconds in [minSec, maxSec].
func (f *Fetcher) backoff(minSec, maxSec int) {
	f.sleep(time.Duration(minSec+rand.Intn(maxSec-minSec+1)) * time.Second)
}

func (f *Fetcher) logRetry(url string, attempt, status int, err error) {
	if f.logger == nil {
		return
	}
	event := f.logger.Debug().Str("url", url).Int("attempt", attempt)
	if status != 0 {
		event.Int("status", status)
	}
	if err != nil {
		event.Err(err)
	}
	event.Msg("Retrying request")
}

// alternateHost swaps between the two equivalent API gateways. URLs that
// name neither gateway are returned unchanged.
func alternateHost(rawURL string) string {
	if strings.Contains(rawURL, "query1.") {
		return strings.Replace(rawURL, "query1.", "query2.", 1)
	}
	return strings.Replace(rawURL, "query2.", "query1.", 1)
}

// extractEnvelopeField parses an API response body and returns the content
// of the named top-level field.
func extractEnvelopeField(body []byte, field string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	payload, ok := envelope[field]
	if !ok {
		return nil, fmt.Errorf("response envelope has no %q field", field)
	}
	return payload, nil
}
