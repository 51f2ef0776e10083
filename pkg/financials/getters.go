package financials

import "context"

// Scalar convenience getters. Each one fetches a whole module and picks a
// single field from it per ticker; the fetch-once cache makes a run of
// getters against the same module cost one network call.

func (c *Client) priceField(ctx context.Context, field string) (map[string]interface{}, error) {
	reports, err := c.PriceData(ctx)
	if err != nil {
		return nil, err
	}
	return extractField(reports, field), nil
}

func (c *Client) summaryField(ctx context.Context, field string) (map[string]interface{}, error) {
	reports, err := c.SummaryData(ctx)
	if err != nil {
		return nil, err
	}
	return extractField(reports, field), nil
}

func (c *Client) keyStatsField(ctx context.Context, field string) (map[string]interface{}, error) {
	reports, err := c.KeyStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return extractField(reports, field), nil
}

// extractField projects one field out of per-ticker reports. A ticker whose
// report is nil, or lacks the field, maps to nil.
func extractField(reports map[string]map[string]interface{}, field string) map[string]interface{} {
	out := make(map[string]interface{}, len(reports))
	for ticker, report := range reports {
		if report == nil {
			out[ticker] = nil
			continue
		}
		out[ticker] = report[field]
	}
	return out
}

// CurrentPrice returns the regular-market price per ticker.
func (c *Client) CurrentPrice(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketPrice")
}

// CurrentChange returns the regular-market price change per ticker.
func (c *Client) CurrentChange(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketChange")
}

// CurrentPercentChange returns the regular-market percent change per ticker.
func (c *Client) CurrentPercentChange(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketChangePercent")
}

// CurrentVolume returns the regular-market volume per ticker.
func (c *Client) CurrentVolume(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketVolume")
}

// PrevClosePrice returns the previous close per ticker.
func (c *Client) PrevClosePrice(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketPreviousClose")
}

// OpenPrice returns the regular-market open per ticker.
func (c *Client) OpenPrice(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketOpen")
}

// DailyLow returns the regular-market day low per ticker.
func (c *Client) DailyLow(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketDayLow")
}

// DailyHigh returns the regular-market day high per ticker.
func (c *Client) DailyHigh(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "regularMarketDayHigh")
}

// TenDayAvgDailyVolume returns the ten-day average daily volume per ticker.
func (c *Client) TenDayAvgDailyVolume(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "averageDailyVolume10Day")
}

// ThreeMonthAvgDailyVolume returns the three-month average daily volume per
// ticker.
func (c *Client) ThreeMonthAvgDailyVolume(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "averageDailyVolume3Month")
}

// StockExchange returns the exchange name per ticker.
func (c *Client) StockExchange(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "exchangeName")
}

// MarketCap returns the market capitalization per ticker.
func (c *Client) MarketCap(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "marketCap")
}

// Currency returns the quote currency per ticker.
func (c *Client) Currency(ctx context.Context) (map[string]interface{}, error) {
	return c.priceField(ctx, "currency")
}

// YearlyHigh returns the 52-week high per ticker.
func (c *Client) YearlyHigh(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "fiftyTwoWeekHigh")
}

// YearlyLow returns the 52-week low per ticker.
func (c *Client) YearlyLow(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "fiftyTwoWeekLow")
}

// DividendYield returns the dividend yield per ticker.
func (c *Client) DividendYield(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "dividendYield")
}

// DividendRate returns the annual dividend rate per ticker.
func (c *Client) DividendRate(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "dividendRate")
}

// FiveYearAvgDividendYield returns the five-year average dividend yield per
// ticker.
func (c *Client) FiveYearAvgDividendYield(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "fiveYearAvgDividendYield")
}

// PayoutRatio returns the dividend payout ratio per ticker.
func (c *Client) PayoutRatio(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "payoutRatio")
}

// ExDividendDate returns the ex-dividend date per ticker.
func (c *Client) ExDividendDate(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "exDividendDate")
}

// Beta returns the equity beta per ticker.
func (c *Client) Beta(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "beta")
}

// PERatio returns the trailing price-to-earnings ratio per ticker.
func (c *Client) PERatio(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "trailingPE")
}

// PriceToSales returns the trailing twelve-month price-to-sales ratio per
// ticker.
func (c *Client) PriceToSales(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "priceToSalesTrailing12Months")
}

// FiftyDayMovingAvg returns the 50-day moving average per ticker.
func (c *Client) FiftyDayMovingAvg(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "fiftyDayAverage")
}

// TwoHundredDayMovingAvg returns the 200-day moving average per ticker.
func (c *Client) TwoHundredDayMovingAvg(ctx context.Context) (map[string]interface{}, error) {
	return c.summaryField(ctx, "twoHundredDayAverage")
}

// BookValue returns the book value per share per ticker.
func (c *Client) BookValue(ctx context.Context) (map[string]interface{}, error) {
	return c.keyStatsField(ctx, "bookValue")
}

// PriceToBook returns the price-to-book ratio per ticker.
func (c *Client) PriceToBook(ctx context.Context) (map[string]interface{}, error) {
	return c.keyStatsField(ctx, "priceToBook")
}

// EarningsPerShare returns trailing earnings per share per ticker.
func (c *Client) EarningsPerShare(ctx context.Context) (map[string]interface{}, error) {
	return c.keyStatsField(ctx, "trailingEps")
}

// NumShares returns the share count per ticker.
func (c *Client) NumShares(ctx context.Context) (map[string]interface{}, error) {
	return c.keyStatsField(ctx, "sharesOutstanding")
}
