// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// NormalizeTicker normalizes a raw ticker symbol to the canonical uppercase
// form used throughout the pipeline. Supports equities ("AAPL"), FX pairs
// ("JPY=X"), indices ("^TNX"), cryptocurrencies ("XRP-USD") and commodity
// futures ("GC=F").
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NormalizeTickers normalizes a list of raw ticker symbols, dropping empty
// entries while preserving order.
func NormalizeTickers(tickers []string) []string {
	result := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if normalized := NormalizeTicker(t); normalized != "" {
			result = append(result, normalized)
		}
	}
	return result
}

// EncodeTicker encodes a ticker for embedding into a URL path. The provider
// accepts most symbols verbatim but rejects a literal '=' (FX and futures
// symbols), which must be percent-encoded.
func EncodeTicker(ticker string) string {
	return strings.ReplaceAll(ticker, "=", "%3D")
}
