package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/finfetch/internal/decrypt"
)

// appMainPattern captures the JSON object assigned to the root application
// variable inside one of the page's script tags.
var appMainPattern = regexp.MustCompile(`root\.App\.main\s*=\s*(\{.*\})`)

// FetchPage scrapes a quote page and returns its decoded data stores.
// Decoded stores are cached under the URL; budget exhaustion returns a
// *ManagedError carrying the last HTTP status.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (map[string]interface{}, error) {
	f.mu.Lock()
	if cached, ok := f.pageCache[rawURL]; ok {
		f.mu.Unlock()
		return cached, nil
	}
	f.mu.Unlock()

	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	lastStatus := 0
	for attempt := 1; attempt <= maxScrapeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := f.client.Open(ctx, rawURL, map[string]string{
			"accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		})
		if err != nil {
			f.logRetry(rawURL, attempt, 0, err)
			f.backoff(10, 20)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			stores, serr := extractStores(resp.Body)
			if serr == nil {
				f.mu.Lock()
				f.pageCache[rawURL] = stores
				f.mu.Unlock()
				return stores, nil
			}
			// Consent walls and bot interstitials return 200 with no
			// embedded payload; treat them as retryable.
			lastStatus = resp.StatusCode
			f.logRetry(rawURL, attempt, resp.StatusCode, serr)
			f.backoff(10, 20)
			continue
		}

		lastStatus = resp.StatusCode
		f.logRetry(rawURL, attempt, resp.StatusCode, nil)
		f.backoff(10, 20)
	}

	return nil, &ManagedError{StatusCode: lastStatus, URL: rawURL, Attempts: maxScrapeAttempts}
}

// extractStores locates the embedded application payload in a scraped page
// and decodes its data stores, decrypting when necessary.
func extractStores(page []byte) (map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("unparseable page: %w", err)
	}

	var source string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, "root.App.main") {
			source = text
			return false
		}
		return true
	})
	if source == "" {
		return nil, fmt.Errorf("page carries no application payload")
	}

	match := appMainPattern.FindStringSubmatch(source)
	if match == nil {
		return nil, fmt.Errorf("application payload assignment not found")
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return nil, fmt.Errorf("malformed application payload: %w", err)
	}

	stores, err := decrypt.DecodeStores(payload)
	if err != nil {
		return nil, err
	}
	if _, ok := stores["QuoteSummaryStore"]; !ok {
		return nil, fmt.Errorf("stores carry no quote summary")
	}
	return stores, nil
}
