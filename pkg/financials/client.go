// Package financials is the public entry point for fetching normalized
// financial data for one or more tickers. A Client wraps one pipeline
// instance; construction validates the configuration, so every method can
// assume a supported country and a positive worker count.
package financials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finfetch/internal/common"
	"github.com/ternarybob/finfetch/internal/endpoints"
	"github.com/ternarybob/finfetch/internal/normalize"
	"github.com/ternarybob/finfetch/internal/pipeline"
)

// Frequency selects the reporting period of fundamentals requests.
type Frequency string

const (
	Annual    Frequency = "annual"
	Quarterly Frequency = "quarterly"
	Trailing  Frequency = "trailing"
)

// Statement selects a fundamental statement category.
type Statement string

const (
	Income  Statement = "income"
	Balance Statement = "balance"
	Cash    Statement = "cash"
)

// Canonical record shapes produced by the normalizer.
type (
	StatementRecord  = normalize.StatementRecord
	StatementList    = normalize.StatementList
	HistoricalSeries = normalize.HistoricalSeries
	PricePeriod      = normalize.PricePeriod
	Dividend         = normalize.Dividend
)

// statementKinds maps the public statement names onto endpoint categories.
var statementKinds = map[Statement]endpoints.StatementKind{
	Income:  endpoints.StatementIncome,
	Balance: endpoints.StatementBalance,
	Cash:    endpoints.StatementCash,
}

// reportNames are the top-level keys of the financial-statements output,
// one per statement and reporting period.
var reportNames = map[Statement][2]string{
	Income:  {"incomeStatementHistory", "incomeStatementHistoryQuarterly"},
	Balance: {"balanceSheetHistory", "balanceSheetHistoryQuarterly"},
	Cash:    {"cashflowStatementHistory", "cashflowStatementHistoryQuarterly"},
}

// Client fetches and normalizes provider data for a fixed ticker list.
type Client struct {
	tickers []string
	cfg     common.FetchConfig
	pipe    *pipeline.Pipeline
}

// Option configures a Client.
type Option func(*options)

type options struct {
	cfg    common.FetchConfig
	logger arbor.ILogger
}

// WithCountry sets the locale country code (default "US").
func WithCountry(country string) Option {
	return func(o *options) { o.cfg.Country = country }
}

// WithConcurrent fans requests out over a worker pool.
func WithConcurrent(concurrent bool) Option {
	return func(o *options) { o.cfg.Concurrent = concurrent }
}

// WithMaxWorkers caps the worker pool size.
func WithMaxWorkers(workers int) Option {
	return func(o *options) { o.cfg.MaxWorkers = workers }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.cfg.Timeout = timeout }
}

// WithProxies sets the proxy pool, one picked at random per request.
func WithProxies(proxies ...string) Option {
	return func(o *options) { o.cfg.Proxies = proxies }
}

// WithFlatFormat returns fundamentals as one flattened date-to-fields map
// instead of a list of dated records.
func WithFlatFormat(flat bool) Option {
	return func(o *options) { o.cfg.FlatFormat = flat }
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFetchConfig replaces the whole fetch configuration, for callers that
// load it from files.
func WithFetchConfig(cfg common.FetchConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// New creates a client for the given tickers. Symbols are normalized to
// uppercase; an empty list or an unsupported country is an error.
func New(tickers []string, opts ...Option) (*Client, error) {
	o := options{cfg: common.NewDefaultConfig().Fetch}
	for _, opt := range opts {
		opt(&o)
	}

	normalized := common.NormalizeTickers(tickers)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("no tickers given")
	}
	if o.cfg.MaxWorkers <= 0 {
		return nil, fmt.Errorf("max workers must be positive, got %d", o.cfg.MaxWorkers)
	}

	pipe, err := pipeline.New(o.cfg, o.logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		tickers: normalized,
		cfg:     o.cfg,
		pipe:    pipe,
	}, nil
}

// Tickers returns the normalized ticker list.
func (c *Client) Tickers() []string {
	out := make([]string, len(c.tickers))
	copy(out, c.tickers)
	return out
}

// FinancialStatements fetches fundamental statements for the given
// reporting period. The result maps report name to per-ticker records; a
// ticker that failed irrecoverably maps to nil.
func (c *Client) FinancialStatements(ctx context.Context, freq Frequency, statements ...Statement) (map[string]map[string]interface{}, error) {
	if len(statements) == 0 {
		statements = []Statement{Income, Balance, Cash}
	}

	result := make(map[string]map[string]interface{}, len(statements))
	for _, statement := range statements {
		kind, ok := statementKinds[statement]
		if !ok {
			return nil, fmt.Errorf("unsupported statement type: %s", statement)
		}

		records, err := c.pipe.Statements(ctx, c.tickers, kind, endpoints.Frequency(freq))
		if err != nil {
			return nil, err
		}

		byTicker := make(map[string]interface{}, len(records))
		for ticker, record := range records {
			byTicker[ticker] = c.shapeStatements(record)
		}
		result[c.reportName(statement, freq)] = byTicker
	}
	return result, nil
}

// shapeStatements applies the configured fundamentals output shape.
func (c *Client) shapeStatements(record StatementRecord) interface{} {
	if record == nil {
		return nil
	}
	if c.cfg.FlatFormat {
		return record
	}
	return record.List()
}

func (c *Client) reportName(statement Statement, freq Frequency) string {
	names := reportNames[statement]
	if freq == Annual {
		return names[0]
	}
	return names[1]
}

// PriceData returns the cleaned price module per ticker.
func (c *Client) PriceData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Report(ctx, c.tickers, "price")
}

// SummaryData returns the cleaned summary-detail module per ticker.
func (c *Client) SummaryData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Report(ctx, c.tickers, "summaryDetail")
}

// KeyStatistics returns the cleaned key-statistics module per ticker.
func (c *Client) KeyStatistics(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Report(ctx, c.tickers, "defaultKeyStatistics")
}

// FinancialData returns the cleaned financial-data module per ticker.
func (c *Client) FinancialData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Report(ctx, c.tickers, "financialData")
}

// ProfileData returns the company profile module per ticker.
func (c *Client) ProfileData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Module(ctx, c.tickers, "assetProfile")
}

// EarningsData returns the reshaped earnings module per ticker.
func (c *Client) EarningsData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Earnings(ctx, c.tickers)
}

// QuoteTypeData returns the quote-type module per ticker, raw.
func (c *Client) QuoteTypeData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Module(ctx, c.tickers, "quoteType")
}

// ESGData returns the ESG scores module per ticker, raw.
func (c *Client) ESGData(ctx context.Context) (map[string]map[string]interface{}, error) {
	return c.pipe.Module(ctx, c.tickers, "esgScores")
}

// HistoricalPriceData returns OHLCV series between two calendar dates
// ("2006-01-02") at the given interval ("daily", "weekly", "monthly").
func (c *Client) HistoricalPriceData(ctx context.Context, startDate, endDate, interval string) (map[string]*HistoricalSeries, error) {
	start, err := normalize.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := normalize.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	return c.pipe.Historical(ctx, c.tickers, start, end, interval)
}

// DailyDividendData returns the dividend series between two calendar
// dates.
func (c *Client) DailyDividendData(ctx context.Context, startDate, endDate string) (map[string][]Dividend, error) {
	start, err := normalize.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := normalize.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	return c.pipe.Dividends(ctx, c.tickers, start, end, "daily")
}

// AnalystRecommendations returns analyst recommendations per ticker, raw.
func (c *Client) AnalystRecommendations(ctx context.Context) (map[string]json.RawMessage, error) {
	return c.pipe.Recommendations(ctx, c.tickers)
}

// Insights returns research insights per ticker, raw.
func (c *Client) Insights(ctx context.Context) (map[string]json.RawMessage, error) {
	return c.pipe.Insights(ctx, c.tickers)
}

// SummaryURL returns the provider's quote page URL per ticker.
func (c *Client) SummaryURL() map[string]string {
	urls := make(map[string]string, len(c.tickers))
	for _, ticker := range c.tickers {
		urls[ticker] = endpoints.BasePageURL + ticker
	}
	return urls
}
