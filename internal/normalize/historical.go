package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrMissingPeriodDate signals a chart payload carrying a period without
// a timestamp. The caller discards the payload and re-fetches; only on
// the final attempt is such a payload accepted with a null date.
var ErrMissingPeriodDate = errors.New("chart period has no timestamp")

// DateStamp pairs a Unix timestamp with its calendar-date form. Both are
// nil when the provider reported no date.
type DateStamp struct {
	FormattedDate *string `json:"formatted_date"`
	Date          *int64  `json:"date"`
}

// PricePeriod is one OHLCV entry of a historical series.
type PricePeriod struct {
	Date          *int64   `json:"date"`
	FormattedDate *string  `json:"formatted_date"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Open          *float64 `json:"open"`
	Close         *float64 `json:"close"`
	Volume        *int64   `json:"volume"`
	AdjClose      *float64 `json:"adjclose"`
}

// TimeZoneInfo carries the exchange's UTC offset in seconds.
type TimeZoneInfo struct {
	GmtOffset int `json:"gmtOffset"`
}

// HistoricalSeries is the normalized price-history record for a ticker.
// Events (dividends, splits, earnings) are re-keyed by calendar date with
// the raw fields preserved alongside a formatted date.
type HistoricalSeries struct {
	Events         map[string]map[string]map[string]interface{} `json:"eventsData"`
	FirstTradeDate DateStamp                                    `json:"firstTradeDate"`
	Currency       string                                       `json:"currency"`
	InstrumentType string                                       `json:"instrumentType"`
	TimeZone       TimeZoneInfo                                 `json:"timeZone"`
	Prices         []PricePeriod                                `json:"prices"`
}

// Dividend is one payout of a daily dividend series.
type Dividend struct {
	Date          int64    `json:"date"`
	FormattedDate string   `json:"formatted_date"`
	Amount        *float64 `json:"amount"`
}

type chartPayload struct {
	Chart struct {
		Result []chartResult `json:"result"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		FirstTradeDate *int64 `json:"firstTradeDate"`
		Currency       string `json:"currency"`
		InstrumentType string `json:"instrumentType"`
		GmtOffset      int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []*int64                                     `json:"timestamp"`
	Events     map[string]map[string]map[string]interface{} `json:"events"`
	Indicators struct {
		Quote []struct {
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Open   []*float64 `json:"open"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// NormalizeChart converts a chart payload into a historical series. A
// period without a timestamp discards the payload via ErrMissingPeriodDate
// unless lastAttempt is set, in which case the period is kept with a null
// date.
func NormalizeChart(raw json.RawMessage, lastAttempt bool) (*HistoricalSeries, error) {
	series := &HistoricalSeries{
		Events: make(map[string]map[string]map[string]interface{}),
		Prices: []PricePeriod{},
	}
	if len(raw) == 0 {
		return series, nil
	}

	var payload chartPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed chart payload: %w", err)
	}

	for _, result := range payload.Chart.Result {
		if result.Meta.FirstTradeDate != nil {
			epoch := *result.Meta.FirstTradeDate
			formatted := FormatDate(epoch)
			series.FirstTradeDate = DateStamp{FormattedDate: &formatted, Date: &epoch}
		}
		series.Currency = result.Meta.Currency
		series.InstrumentType = result.Meta.InstrumentType
		series.TimeZone = TimeZoneInfo{GmtOffset: result.Meta.GmtOffset}
		series.Events = normalizeEvents(result.Events)

		prices, err := zipPrices(result, lastAttempt)
		if err != nil {
			return nil, err
		}
		series.Prices = prices
	}
	return series, nil
}

// zipPrices joins the parallel indicator arrays into one entry per period.
func zipPrices(result chartResult, lastAttempt bool) ([]PricePeriod, error) {
	if len(result.Indicators.Quote) == 0 {
		return []PricePeriod{}, nil
	}
	quote := result.Indicators.Quote[0]

	prices := make([]PricePeriod, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		period := PricePeriod{
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Open:   at(quote.Open, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		}
		if len(result.Indicators.AdjClose) > 0 {
			period.AdjClose = at(result.Indicators.AdjClose[0].AdjClose, i)
		}
		if ts := result.Timestamp[i]; ts != nil {
			formatted := FormatDate(*ts)
			period.Date = ts
			period.FormattedDate = &formatted
		} else if !lastAttempt {
			return nil, ErrMissingPeriodDate
		}
		prices = append(prices, period)
	}
	return prices, nil
}

// normalizeEvents re-keys each event group by calendar date, attaching a
// formatted date to every event object.
func normalizeEvents(events map[string]map[string]map[string]interface{}) map[string]map[string]map[string]interface{} {
	normalized := make(map[string]map[string]map[string]interface{}, len(events))
	for eventType, group := range events {
		byDate := make(map[string]map[string]interface{}, len(group))
		for epochKey, event := range group {
			epoch, err := strconv.ParseInt(epochKey, 10, 64)
			if err != nil {
				continue
			}
			if eventEpoch, ok := event["date"].(float64); ok {
				event["formatted_date"] = FormatDate(int64(eventEpoch))
			}
			byDate[FormatDate(epoch)] = event
		}
		normalized[eventType] = byDate
	}
	return normalized
}

// NormalizeDividends extracts the dividend events of a chart payload as a
// date-ordered series.
func NormalizeDividends(raw json.RawMessage) ([]Dividend, error) {
	var payload chartPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed chart payload: %w", err)
	}

	dividends := []Dividend{}
	for _, result := range payload.Chart.Result {
		for _, event := range result.Events["dividends"] {
			epoch, ok := event["date"].(float64)
			if !ok {
				continue
			}
			dividend := Dividend{
				Date:          int64(epoch),
				FormattedDate: FormatDate(int64(epoch)),
			}
			if amount, ok := event["amount"].(float64); ok {
				dividend.Amount = &amount
			}
			dividends = append(dividends, dividend)
		}
	}
	sort.Slice(dividends, func(i, j int) bool { return dividends[i].Date < dividends[j].Date })
	return dividends, nil
}

// at indexes a parallel array; positions past its end read as nil.
func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
