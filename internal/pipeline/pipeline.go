// Package pipeline runs the fetch-normalize flow for batches of tickers.
// Each pipeline instance owns one fetcher (and therefore one cache); fan-out
// across tickers is sequential by default or runs on a bounded worker pool
// when configured.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/finfetch/internal/common"
	"github.com/ternarybob/finfetch/internal/endpoints"
	"github.com/ternarybob/finfetch/internal/fetch"
	"github.com/ternarybob/finfetch/internal/normalize"
)

// historyAttempts bounds re-fetches of a chart payload whose periods come
// back without dates; the final attempt accepts null dates instead.
const historyAttempts = 6

// Pipeline executes fetch and normalize operations for a fixed
// configuration. The configuration is copied at construction and never
// mutated afterwards.
type Pipeline struct {
	cfg     common.FetchConfig
	builder *endpoints.Builder
	fetcher *fetch.Fetcher
	logger  arbor.ILogger
}

// New creates a pipeline for the given configuration. An unsupported
// country code fails here, not at request time.
func New(cfg common.FetchConfig, logger arbor.ILogger, builderOpts ...endpoints.BuilderOption) (*Pipeline, error) {
	builder, err := endpoints.NewBuilder(cfg.Country, builderOpts...)
	if err != nil {
		return nil, err
	}

	client := transportClient(cfg, logger)
	session, err := newSession(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		builder: builder,
		fetcher: fetch.NewFetcher(client, session, logger),
		logger:  logger,
	}, nil
}

// workerCount sizes the pool for a batch.
func (p *Pipeline) workerCount(tickers int) int {
	if tickers < p.cfg.MaxWorkers {
		return tickers
	}
	return p.cfg.MaxWorkers
}

// runTickers fans a task out over tickers and merges results by ticker.
// Sequential mode records a nil result for a ticker whose task fails with
// a ManagedError and keeps going; pool mode propagates the first failure
// and aborts the batch.
func runTickers[T any](ctx context.Context, p *Pipeline, tickers []string, task func(context.Context, string) (T, error)) (map[string]T, error) {
	tickers = common.NormalizeTickers(tickers)
	results := make(map[string]T, len(tickers))
	batch := uuid.New().String()[:8]

	if p.logger != nil {
		p.logger.Debug().Str("batch", batch).Int("tickers", len(tickers)).
			Bool("concurrent", p.cfg.Concurrent).Msg("Running ticker batch")
	}

	if !p.cfg.Concurrent {
		for _, ticker := range tickers {
			result, err := task(ctx, ticker)
			if err != nil {
				var managed *fetch.ManagedError
				if errors.As(err, &managed) {
					if p.logger != nil {
						p.logger.Warn().Str("batch", batch).Str("ticker", ticker).
							Err(err).Msg("Ticker failed, continuing extraction")
					}
					var zero T
					results[ticker] = zero
					continue
				}
				return nil, err
			}
			results[ticker] = result
		}
		return results, nil
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workerCount(len(tickers)))
	for _, ticker := range tickers {
		group.Go(func() error {
			result, err := task(groupCtx, ticker)
			if err != nil {
				return err
			}
			mu.Lock()
			results[ticker] = result
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Statements fetches fundamentals timeseries for one statement kind and
// returns per-ticker records grouped by as-of date.
func (p *Pipeline) Statements(ctx context.Context, tickers []string, kind endpoints.StatementKind, freq endpoints.Frequency) (map[string]normalize.StatementRecord, error) {
	period2 := time.Now().Unix()
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (normalize.StatementRecord, error) {
		url, err := p.builder.TimeseriesURL(ticker, kind, freq, period2)
		if err != nil {
			return nil, err
		}
		raw, err := p.fetcher.FetchAPI(ctx, url, endpoints.ResponseFieldTimeseries)
		if err != nil {
			return nil, err
		}
		return normalize.NormalizeStatements(raw)
	})
}

// Module fetches one quote-summary module per ticker, merged but otherwise
// raw.
func (p *Pipeline) Module(ctx context.Context, tickers []string, module string) (map[string]map[string]interface{}, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (map[string]interface{}, error) {
		return p.fetchModule(ctx, ticker, module)
	})
}

// Report fetches a quote-summary module and applies the report field rules
// (timestamp and date formatting, wrapper reduction).
func (p *Pipeline) Report(ctx context.Context, tickers []string, module string) (map[string]map[string]interface{}, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (map[string]interface{}, error) {
		raw, err := p.fetchModule(ctx, ticker, module)
		if err != nil {
			return nil, err
		}
		return normalize.CleanReport(raw), nil
	})
}

// Earnings fetches the earnings module and reshapes its chart data.
func (p *Pipeline) Earnings(ctx context.Context, tickers []string) (map[string]map[string]interface{}, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (map[string]interface{}, error) {
		raw, err := p.fetchModule(ctx, ticker, "earnings")
		if err != nil {
			return nil, err
		}
		return normalize.CleanEarnings(raw), nil
	})
}

func (p *Pipeline) fetchModule(ctx context.Context, ticker, module string) (map[string]interface{}, error) {
	url := p.builder.QuoteSummaryURL(ticker, module)
	raw, err := p.fetcher.FetchAPI(ctx, url, endpoints.ResponseFieldQuoteSummary)
	if err != nil {
		return nil, err
	}
	return normalize.MergeModule(raw, module)
}

// Historical fetches OHLCV series for the given period and interval. A
// payload with missing period dates is dropped and re-fetched; after the
// final attempt, periods without dates are kept with null dates. An
// exhausted fetch budget degrades to an empty series.
func (p *Pipeline) Historical(ctx context.Context, tickers []string, start, end int64, interval string) (map[string]*normalize.HistoricalSeries, error) {
	intervalCode, err := endpoints.IntervalCode(interval)
	if err != nil {
		return nil, err
	}
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (*normalize.HistoricalSeries, error) {
		url := p.builder.ChartURL(ticker, start, end, intervalCode, nil)
		var series *normalize.HistoricalSeries
		for attempt := 1; attempt <= historyAttempts; attempt++ {
			raw, ok := p.fetcher.FetchChart(ctx, url)
			if !ok {
				raw = nil
			}
			lastAttempt := attempt == historyAttempts
			normalized, nerr := normalize.NormalizeChart(raw, lastAttempt)
			if errors.Is(nerr, normalize.ErrMissingPeriodDate) {
				p.fetcher.Forget(url)
				continue
			}
			if nerr != nil {
				return nil, nerr
			}
			series = normalized
			break
		}
		return series, nil
	})
}

// Dividends fetches the dividend series for the given period. Failures
// degrade to a nil series for the ticker.
func (p *Pipeline) Dividends(ctx context.Context, tickers []string, start, end int64, interval string) (map[string][]normalize.Dividend, error) {
	intervalCode, err := endpoints.IntervalCode(interval)
	if err != nil {
		return nil, err
	}
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) ([]normalize.Dividend, error) {
		url := p.builder.ChartURL(ticker, start, end, intervalCode, []string{"div"})
		raw, ok := p.fetcher.FetchChart(ctx, url)
		if !ok {
			return nil, nil
		}
		dividends, err := normalize.NormalizeDividends(raw)
		if err != nil {
			return nil, nil
		}
		return dividends, nil
	})
}

// SummaryStore scrapes a quote page and returns a section of the embedded
// quote summary store, the whole store when section is empty.
func (p *Pipeline) SummaryStore(ctx context.Context, tickers []string, kind endpoints.StatementKind, section string) (map[string]map[string]interface{}, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (map[string]interface{}, error) {
		url, err := p.builder.PageURL(ticker, kind)
		if err != nil {
			return nil, err
		}
		stores, err := p.fetcher.FetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		store, _ := stores["QuoteSummaryStore"].(map[string]interface{})
		if section == "" {
			return store, nil
		}
		sub, _ := store[section].(map[string]interface{})
		return sub, nil
	})
}

// Recommendations fetches analyst recommendations, raw.
func (p *Pipeline) Recommendations(ctx context.Context, tickers []string) (map[string]json.RawMessage, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (json.RawMessage, error) {
		url := p.builder.RecommendationsURL(ticker)
		return p.fetcher.FetchAPI(ctx, url, endpoints.ResponseFieldFinance)
	})
}

// Insights fetches research insights, raw.
func (p *Pipeline) Insights(ctx context.Context, tickers []string) (map[string]json.RawMessage, error) {
	return runTickers(ctx, p, tickers, func(ctx context.Context, ticker string) (json.RawMessage, error) {
		url := p.builder.InsightsURL(ticker)
		return p.fetcher.FetchAPI(ctx, url, endpoints.ResponseFieldFinance)
	})
}

// FlatFormat reports the configured fundamentals output shape.
func (p *Pipeline) FlatFormat() bool {
	return p.cfg.FlatFormat
}
