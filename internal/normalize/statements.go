package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StatementFields maps normalized field names to reported values; a nil
// value records a field the provider reported without a number.
type StatementFields map[string]*float64

// StatementRecord groups statement fields by their as-of date.
type StatementRecord map[string]StatementFields

// StatementList is the alternative output shape: one single-date record
// per entry, dates ascending.
type StatementList []StatementRecord

// frequencyPrefixes are stripped from timeseries field codes, in order.
var frequencyPrefixes = []string{"quarterly", "annual", "trailing"}

// NormalizeStatements converts a fundamentals timeseries payload into a
// statement record grouped by as-of date.
func NormalizeStatements(raw json.RawMessage) (StatementRecord, error) {
	var payload struct {
		Result []map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed timeseries payload: %w", err)
	}

	record := make(StatementRecord)
	for _, item := range payload.Result {
		for key, value := range item {
			if key == "meta" || key == "timestamp" {
				continue
			}
			field := normalizeFieldName(key)

			var entries []*struct {
				AsOfDate      string `json:"asOfDate"`
				ReportedValue *struct {
					Raw *float64 `json:"raw"`
				} `json:"reportedValue"`
			}
			if err := json.Unmarshal(value, &entries); err != nil {
				continue
			}
			for _, entry := range entries {
				if entry == nil {
					continue
				}
				var reported *float64
				if entry.ReportedValue != nil {
					reported = entry.ReportedValue.Raw
				}
				fields, ok := record[entry.AsOfDate]
				if !ok {
					fields = make(StatementFields)
					record[entry.AsOfDate] = fields
				}
				fields[field] = reported
			}
		}
	}
	return record, nil
}

// normalizeFieldName strips the reporting-frequency prefix and lowercases
// the leading character. Acronym codes that would degrade to a mixed case
// form are lowercased whole.
func normalizeFieldName(key string) string {
	for _, prefix := range frequencyPrefixes {
		key = strings.TrimPrefix(key, prefix)
	}
	if key == "EBIT" {
		return "ebit"
	}
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToLower(r)) + key[size:]
}

// List converts the record into the list-of-single-date-records shape,
// ordered by date ascending.
func (r StatementRecord) List() StatementList {
	dates := make([]string, 0, len(r))
	for date := range r {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	list := make(StatementList, 0, len(dates))
	for _, date := range dates {
		list = append(list, StatementRecord{date: r[date]})
	}
	return list
}
