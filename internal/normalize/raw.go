// Package normalize converts the provider's three raw JSON shapes into
// canonical records: dated statement records from the fundamentals
// timeseries, labeled scalar reports from quote-summary modules, and
// OHLCV series from the chart endpoint. All shape validation happens
// here; downstream consumers only see the canonical types.
package normalize

// RawValue reduces a value wrapper to its numeric member. For
// {"raw": 42.5, "fmt": "42.50"} it returns 42.5; wrappers without a
// "raw" key, and values that are not wrappers at all, reduce to nil.
func RawValue(v interface{}) interface{} {
	wrapper, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return wrapper["raw"]
}
