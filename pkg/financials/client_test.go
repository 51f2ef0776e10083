package financials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/finfetch/internal/common"
	"github.com/ternarybob/finfetch/internal/endpoints"
)

func TestNewNormalizesTickers(t *testing.T) {
	client, err := New([]string{" aapl ", "msft", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, client.Tickers())
}

func TestNewRejectsEmptyTickerList(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]string{"  ", ""})
	assert.Error(t, err)
}

func TestNewRejectsUnsupportedCountry(t *testing.T) {
	_, err := New([]string{"AAPL"}, WithCountry("XX"))
	require.Error(t, err)
	var countryErr *endpoints.CountryError
	assert.ErrorAs(t, err, &countryErr)
}

func TestNewRejectsNonPositiveWorkerCount(t *testing.T) {
	_, err := New([]string{"AAPL"}, WithMaxWorkers(0))
	assert.Error(t, err)
}

func TestReportName(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "incomeStatementHistory", client.reportName(Income, Annual))
	assert.Equal(t, "incomeStatementHistoryQuarterly", client.reportName(Income, Quarterly))
	assert.Equal(t, "balanceSheetHistoryQuarterly", client.reportName(Balance, Trailing))
	assert.Equal(t, "cashflowStatementHistory", client.reportName(Cash, Annual))
}

func TestShapeStatements(t *testing.T) {
	value := 1.0
	record := StatementRecord{
		"2022-09-30": {"totalRevenue": &value},
		"2023-09-30": {"totalRevenue": &value},
	}

	listClient := &Client{cfg: common.FetchConfig{FlatFormat: false}}
	shaped := listClient.shapeStatements(record)
	list, ok := shaped.(StatementList)
	require.True(t, ok)
	assert.Len(t, list, 2)

	flatClient := &Client{cfg: common.FetchConfig{FlatFormat: true}}
	shaped = flatClient.shapeStatements(record)
	flat, ok := shaped.(StatementRecord)
	require.True(t, ok)
	assert.Len(t, flat, 2)

	assert.Nil(t, listClient.shapeStatements(nil))
}

func TestSummaryURL(t *testing.T) {
	client, err := New([]string{"AAPL", "GC=F"})
	require.NoError(t, err)

	urls := client.SummaryURL()
	assert.Equal(t, "https://finance.yahoo.com/quote/AAPL", urls["AAPL"])
	assert.Equal(t, "https://finance.yahoo.com/quote/GC=F", urls["GC=F"])
}
