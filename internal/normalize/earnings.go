package normalize

// CleanEarnings reshapes a raw earnings module: the earnings chart
// becomes "earningsData", the financials chart "financialsData", the
// cache-control field is dropped and everything else passes through.
func CleanEarnings(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	cleaned := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		switch key {
		case "earningsChart":
			chart, ok := value.(map[string]interface{})
			if !ok {
				cleaned["earningsData"] = value
				continue
			}
			sub := make(map[string]interface{}, len(chart))
			for chartKey, chartValue := range chart {
				switch chartKey {
				case "quarterly":
					sub[chartKey] = cleanPeriodList(chartValue)
				case "currentQuarterEstimate":
					sub[chartKey] = RawValue(chartValue)
				default:
					sub[chartKey] = chartValue
				}
			}
			cleaned["earningsData"] = sub
		case "financialsChart":
			chart, ok := value.(map[string]interface{})
			if !ok {
				cleaned["financialsData"] = value
				continue
			}
			sub := make(map[string]interface{}, len(chart))
			for chartKey, chartValue := range chart {
				sub[chartKey] = cleanPeriodList(chartValue)
			}
			cleaned["financialsData"] = sub
		case "maxAge":
		default:
			cleaned[key] = value
		}
	}
	return cleaned
}

// cleanPeriodList reduces every value wrapper in a list of per-period
// records, keeping the period label as-is.
func cleanPeriodList(value interface{}) interface{} {
	list, ok := value.([]interface{})
	if !ok {
		return value
	}
	cleaned := make([]interface{}, 0, len(list))
	for _, entry := range list {
		record, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		cleanedRecord := make(map[string]interface{}, len(record))
		for key, v := range record {
			if key == "date" {
				cleanedRecord[key] = v
			} else {
				cleanedRecord[key] = RawValue(v)
			}
		}
		cleaned = append(cleaned, cleanedRecord)
	}
	return cleaned
}
