package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MergeModule extracts the named quote-summary module from an API payload,
// merging it across result entries.
func MergeModule(raw json.RawMessage, module string) (map[string]interface{}, error) {
	var payload struct {
		Result []map[string]map[string]interface{} `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("malformed module payload: %w", err)
	}

	merged := make(map[string]interface{})
	for _, item := range payload.Result {
		for key, value := range item[module] {
			merged[key] = value
		}
	}
	return merged, nil
}

// CleanReport applies the field rules to a raw module mapping:
// timestamp fields become UTC timestamp strings, date fields keep their
// pre-formatted form (placeholder "-" when absent), scalars pass through
// and remaining value wrappers reduce to their numeric member.
func CleanReport(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	cleaned := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		switch {
		case strings.Contains(key, "Time"):
			cleaned[key] = cleanTime(value)
		case strings.Contains(key, "Date"):
			cleaned[key] = cleanDate(value)
		default:
			switch value.(type) {
			case nil, string, bool, float64, json.Number:
				cleaned[key] = value
			default:
				cleaned[key] = RawValue(value)
			}
		}
	}
	return cleaned
}

func cleanTime(value interface{}) interface{} {
	epoch, ok := value.(float64)
	if !ok {
		return value
	}
	return FormatTime(int64(epoch))
}

func cleanDate(value interface{}) string {
	wrapper, ok := value.(map[string]interface{})
	if !ok {
		return "-"
	}
	formatted, ok := wrapper["fmt"].(string)
	if !ok {
		return "-"
	}
	return formatted
}
