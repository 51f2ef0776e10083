// Package endpoints constructs fully qualified provider URLs for the
// distinct data categories: HTML statement pages, quote-summary modules,
// fundamentals timeseries and the historical chart API. All builders inject
// lang/region/corsDomain parameters from the country table.
package endpoints

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/finfetch/internal/common"
)

const (
	// BasePageURL is the base URL for scraped HTML quote pages.
	BasePageURL = "https://finance.yahoo.com/quote/"

	// DefaultAPIHost is the load-balanced API host used for the first
	// attempt. The orchestrator alternates to its sibling on failures.
	DefaultAPIHost = "query2.finance.yahoo.com"

	// timeseriesEpochStart predates every listed instrument, so a single
	// request covers the full reporting history.
	timeseriesEpochStart = 493590046
)

// Builder constructs provider URLs for one locale.
type Builder struct {
	country  Country
	apiBase  string
	pageBase string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithAPIBase overrides the API base URL, scheme included.
func WithAPIBase(base string) BuilderOption {
	return func(b *Builder) {
		b.apiBase = base
	}
}

// WithPageBase overrides the HTML page base URL.
func WithPageBase(base string) BuilderOption {
	return func(b *Builder) {
		b.pageBase = base
	}
}

// NewBuilder creates a URL builder for the given country code. An
// unsupported code is a construction-time error.
func NewBuilder(countryCode string, opts ...BuilderOption) (*Builder, error) {
	country, err := LookupCountry(countryCode)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		country:  country,
		apiBase:  "https://" + DefaultAPIHost,
		pageBase: BasePageURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// localeValues returns the query parameters shared by every request.
func (b *Builder) localeValues() url.Values {
	values := url.Values{}
	values.Set("lang", b.country.Lang)
	values.Set("region", b.country.Region)
	values.Set("corsDomain", b.country.CorsDomain)
	return values
}

// PageURL builds the HTML page URL for a statement category scrape.
func (b *Builder) PageURL(ticker string, kind StatementKind) (string, error) {
	slug, err := PageSlug(kind)
	if err != nil {
		return "", err
	}
	encoded := common.EncodeTicker(ticker)
	pageURL := b.pageBase + encoded + "/" + slug + "?p=" + encoded +
		"&lang=" + b.country.Lang + "&region=" + b.country.Region
	return pageURL, nil
}

// QuoteSummaryURL builds a quote-summary module URL.
func (b *Builder) QuoteSummaryURL(ticker, module string) string {
	values := b.localeValues()
	values.Set("modules", module)
	values.Set("symbol", strings.ToLower(ticker))
	return b.apiBase + "/v10/finance/quoteSummary/" +
		common.EncodeTicker(ticker) + "?" + values.Encode()
}

// TimeseriesURL builds a fundamentals timeseries URL listing the
// frequency-prefixed field codes for one statement kind.
func (b *Builder) TimeseriesURL(ticker string, kind StatementKind, freq Frequency, period2 int64) (string, error) {
	codes, err := StatementFieldCodes(kind, freq)
	if err != nil {
		return "", err
	}
	values := b.localeValues()
	values.Set("symbol", strings.ToLower(ticker))
	values.Set("merge", "false")
	values.Set("padTimeSeries", "true")
	values.Set("period1", strconv.Itoa(timeseriesEpochStart))
	values.Set("period2", strconv.FormatInt(period2, 10))

	// The type parameter keeps literal commas between field codes.
	return b.apiBase + "/ws/fundamentals-timeseries/v1/finance/timeseries/" +
		common.EncodeTicker(ticker) + "?type=" + strings.Join(codes, ",") + "&" + values.Encode(), nil
}

// ChartURL builds a historical chart URL with an events filter.
func (b *Builder) ChartURL(ticker string, period1, period2 int64, intervalCode string, events []string) string {
	if len(events) == 0 {
		events = []string{"div", "split", "earn"}
	}
	values := b.localeValues()
	values.Set("symbol", ticker)
	values.Set("period1", strconv.FormatInt(period1, 10))
	values.Set("period2", strconv.FormatInt(period2, 10))
	values.Set("interval", intervalCode)

	// The events filter keeps its literal '|' separators.
	return b.apiBase + "/v8/finance/chart/" + common.EncodeTicker(ticker) +
		"?events=" + strings.Join(events, "|") + "&" + values.Encode()
}

// RecommendationsURL builds the analyst recommendations URL.
func (b *Builder) RecommendationsURL(ticker string) string {
	values := b.localeValues()
	return b.apiBase + "/v6/finance/recommendationsbysymbol/" +
		common.EncodeTicker(ticker) + "?" + values.Encode()
}

// InsightsURL builds the research insights URL.
func (b *Builder) InsightsURL(ticker string) string {
	values := b.localeValues()
	values.Set("symbol", ticker)
	return b.apiBase + "/ws/insights/v2/finance/insights?" + values.Encode()
}
