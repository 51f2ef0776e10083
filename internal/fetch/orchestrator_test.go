package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ternarybob/finfetch/internal/transport"
)

func newTestFetcher(t *testing.T, session *transport.Session) *Fetcher {
	t.Helper()
	client := transport.NewClient(transport.WithTimeout(5 * time.Second))
	return NewFetcher(client, session, nil,
		WithThrottle(rate.NewLimiter(rate.Inf, 1)),
		WithSleep(func(time.Duration) {}))
}

func TestFetchAPICachesByURL(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"timeseries":{"result":[{"meta":{"symbol":["AAPL"]}}]}}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	first, err := fetcher.FetchAPI(context.Background(), server.URL, "timeseries")
	require.NoError(t, err)
	second, err := fetcher.FetchAPI(context.Background(), server.URL, "timeseries")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits), "cached fetch must not reach the network")
}

func TestFetchAPIExhaustsRetryBudget(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchAPI(context.Background(), server.URL, "timeseries")
	var managed *ManagedError
	require.ErrorAs(t, err, &managed)
	assert.Equal(t, http.StatusServiceUnavailable, managed.StatusCode)
	assert.Equal(t, maxAPIAttempts, managed.Attempts)
	assert.EqualValues(t, maxAPIAttempts, atomic.LoadInt64(&hits))
}

func TestFetchAPIRefreshesCrumbOn401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "d=session"})
	})
	mux.HandleFunc("/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("testcrumb"))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("crumb") != "testcrumb" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"quoteSummary":{"result":[{"price":{}}]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	session, err := transport.NewSession(5*time.Second, nil,
		transport.WithHandshakeEndpoints(server.URL+"/cookie", server.URL+"/getcrumb"))
	require.NoError(t, err)

	fetcher := newTestFetcher(t, session)

	payload, err := fetcher.FetchAPI(context.Background(), server.URL+"/v10/finance/quoteSummary/AAPL?modules=price", "quoteSummary")
	require.NoError(t, err)
	assert.Contains(t, string(payload), "price")
	assert.Equal(t, "testcrumb", session.Crumb())
}

func TestFetchAPIRejectsMissingEnvelopeField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"finance":{"error":null}}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchAPI(context.Background(), server.URL, "timeseries")
	var managed *ManagedError
	assert.ErrorAs(t, err, &managed)
}

func TestFetchChartDegradesInsteadOfFailing(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	payload, ok := fetcher.FetchChart(context.Background(), server.URL)
	assert.False(t, ok)
	assert.Nil(t, payload)
	assert.EqualValues(t, maxAPIAttempts, atomic.LoadInt64(&hits))
}

func TestFetchChartCachesAndForgets(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"chart":{"result":[{}]}}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, ok := fetcher.FetchChart(context.Background(), server.URL)
	require.True(t, ok)
	_, ok = fetcher.FetchChart(context.Background(), server.URL)
	require.True(t, ok)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))

	fetcher.Forget(server.URL)
	_, ok = fetcher.FetchChart(context.Background(), server.URL)
	require.True(t, ok)
	assert.EqualValues(t, 2, atomic.LoadInt64(&hits))
}

func TestFetchPageDecodesEmbeddedStores(t *testing.T) {
	var hits int64
	page := `<html><head><script>window.x=1;</script></head><body>
<script>
root.App.main = {"context":{"dispatcher":{"stores":{"QuoteSummaryStore":{"price":{"regularMarketPrice":{"raw":187.3}}}}}}};
</script>
</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(page))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	stores, err := fetcher.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, stores, "QuoteSummaryStore")

	_, err = fetcher.FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits), "decoded stores must be served from cache")
}

func TestFetchPageExhaustsRetryBudget(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchPage(context.Background(), server.URL)
	var managed *ManagedError
	require.ErrorAs(t, err, &managed)
	assert.Equal(t, http.StatusNotFound, managed.StatusCode)
	assert.EqualValues(t, maxScrapeAttempts, atomic.LoadInt64(&hits))
}

func TestFetchPageRetriesConsentWall(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("<html><body>Before you continue</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchPage(context.Background(), server.URL)
	assert.Error(t, err)
	assert.EqualValues(t, maxScrapeAttempts, atomic.LoadInt64(&hits))
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchAPI(ctx, "http://127.0.0.1:1", "timeseries")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAlternateHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://query2.finance.yahoo.com/v8/finance/chart/AAPL", "https://query1.finance.yahoo.com/v8/finance/chart/AAPL"},
		{"https://query1.finance.yahoo.com/v8/finance/chart/AAPL", "https://query2.finance.yahoo.com/v8/finance/chart/AAPL"},
		{"http://127.0.0.1:9999/chart", "http://127.0.0.1:9999/chart"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alternateHost(tt.in))
	}
}

func TestSharedThrottleSpacing(t *testing.T) {
	limiter := SharedThrottle()
	require.NotNil(t, limiter)
	assert.Equal(t, rate.Every(MinRequestInterval), limiter.Limit())
}
