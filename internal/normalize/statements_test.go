package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatementsGroupsByDate(t *testing.T) {
	raw := json.RawMessage(`{
		"result": [
			{
				"meta": {"symbol": ["AAPL"], "type": ["annualTotalRevenue"]},
				"timestamp": [1664496000, 1696032000],
				"annualTotalRevenue": [
					{"asOfDate": "2022-09-30", "reportedValue": {"raw": 394328000000, "fmt": "394.33B"}},
					{"asOfDate": "2023-09-30", "reportedValue": {"raw": 383285000000, "fmt": "383.29B"}}
				]
			},
			{
				"meta": {"symbol": ["AAPL"], "type": ["annualNetIncome"]},
				"annualNetIncome": [
					{"asOfDate": "2023-09-30", "reportedValue": {"raw": 96995000000, "fmt": "97.00B"}}
				]
			}
		]
	}`)

	record, err := NormalizeStatements(raw)
	require.NoError(t, err)

	require.Contains(t, record, "2022-09-30")
	require.Contains(t, record, "2023-09-30")
	require.NotNil(t, record["2023-09-30"]["totalRevenue"])
	assert.Equal(t, 383285000000.0, *record["2023-09-30"]["totalRevenue"])
	require.NotNil(t, record["2023-09-30"]["netIncome"])
	assert.Equal(t, 96995000000.0, *record["2023-09-30"]["netIncome"])
}

func TestNormalizeStatementsHandlesMissingValues(t *testing.T) {
	raw := json.RawMessage(`{
		"result": [
			{
				"quarterlyEBIT": [
					{"asOfDate": "2023-12-31", "reportedValue": {"fmt": "n/a"}},
					null
				]
			}
		]
	}`)

	record, err := NormalizeStatements(raw)
	require.NoError(t, err)

	require.Contains(t, record, "2023-12-31")
	fields := record["2023-12-31"]
	require.Contains(t, fields, "ebit")
	assert.Nil(t, fields["ebit"])
}

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"annualTotalRevenue", "totalRevenue"},
		{"quarterlyNetIncome", "netIncome"},
		{"trailingPeRatio", "peRatio"},
		{"annualEBIT", "ebit"},
		{"quarterlyEBIT", "ebit"},
		{"annualBasicEPS", "basicEPS"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeFieldName(tt.in), tt.in)
	}
}

func TestStatementRecordList(t *testing.T) {
	value := 1.0
	record := StatementRecord{
		"2023-09-30": {"totalRevenue": &value},
		"2021-09-30": {"totalRevenue": &value},
		"2022-09-30": {"totalRevenue": &value},
	}

	list := record.List()
	require.Len(t, list, 3)
	for i, date := range []string{"2021-09-30", "2022-09-30", "2023-09-30"} {
		require.Len(t, list[i], 1)
		assert.Contains(t, list[i], date)
	}
}

func TestRawValue(t *testing.T) {
	assert.Equal(t, 42.5, RawValue(map[string]interface{}{"raw": 42.5, "fmt": "42.50"}))
	assert.Nil(t, RawValue(map[string]interface{}{"fmt": "42.50"}))
	assert.Nil(t, RawValue("not a wrapper"))
	assert.Nil(t, RawValue(nil))
}
