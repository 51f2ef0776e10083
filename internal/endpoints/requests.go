package endpoints

import "fmt"

// StatementKind identifies a fundamental statement category.
type StatementKind string

const (
	StatementIncome  StatementKind = "income"
	StatementBalance StatementKind = "balance"
	StatementCash    StatementKind = "cash"
)

// Frequency identifies the reporting period of a fundamentals request.
type Frequency string

const (
	FrequencyAnnual    Frequency = "annual"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyTrailing  Frequency = "trailing"
)

// Response envelope fields per API family. The interesting payload of each
// JSON response lives under one of these top-level keys.
const (
	ResponseFieldTimeseries   = "timeseries"
	ResponseFieldQuoteSummary = "quoteSummary"
	ResponseFieldChart        = "chart"
	ResponseFieldFinance      = "finance"
)

// statementPages maps statement kinds to the HTML page slug used for scrapes.
var statementPages = map[StatementKind]string{
	StatementIncome:  "financials",
	StatementBalance: "balance-sheet",
	StatementCash:    "cash-flow",
}

// intervalCodes translates the public interval names to provider codes.
var intervalCodes = map[string]string{
	"daily":   "1d",
	"weekly":  "1wk",
	"monthly": "1mo",
}

// IntervalCode translates a public interval name ("daily", "weekly",
// "monthly") to the provider's interval code.
func IntervalCode(interval string) (string, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return "", fmt.Errorf("unsupported time interval: %s", interval)
	}
	return code, nil
}

// Timeseries field codes per statement kind. The provider expects each code
// prefixed with the reporting frequency ("annualTotalRevenue").
var statementFields = map[StatementKind][]string{
	StatementIncome: {
		"TotalRevenue", "CostOfRevenue", "GrossProfit", "OperatingExpense",
		"OperatingIncome", "NetNonOperatingInterestIncomeExpense",
		"OtherIncomeExpense", "PretaxIncome", "TaxProvision",
		"NetIncomeCommonStockholders", "DilutedNIAvailtoComStockholders",
		"BasicEPS", "DilutedEPS", "BasicAverageShares", "DilutedAverageShares",
		"TotalOperatingIncomeAsReported", "TotalExpenses",
		"NetIncomeFromContinuingAndDiscontinuedOperation", "NormalizedIncome",
		"InterestIncome", "InterestExpense", "NetInterestIncome", "EBIT",
		"ReconciledCostOfRevenue", "ReconciledDepreciation",
		"NetIncomeFromContinuingOperationNetMinorityInterest",
		"NormalizedEBITDA", "TaxRateForCalcs", "TaxEffectOfUnusualItems",
	},
	StatementBalance: {
		"TotalAssets", "TotalLiabilitiesNetMinorityInterest",
		"TotalEquityGrossMinorityInterest", "TotalCapitalization",
		"CommonStockEquity", "CapitalLeaseObligations", "NetTangibleAssets",
		"WorkingCapital", "InvestedCapital", "TangibleBookValue", "TotalDebt",
		"NetDebt", "ShareIssued", "OrdinarySharesNumber",
		"TreasurySharesNumber",
	},
	StatementCash: {
		"OperatingCashFlow", "InvestingCashFlow", "FinancingCashFlow",
		"EndCashPosition", "IncomeTaxPaidSupplementalData",
		"InterestPaidSupplementalData", "CapitalExpenditure",
		"IssuanceOfCapitalStock", "IssuanceOfDebt", "RepaymentOfDebt",
		"RepurchaseOfCapitalStock", "FreeCashFlow",
	},
}

// StatementFieldCodes returns the frequency-prefixed timeseries type codes
// for a statement kind.
func StatementFieldCodes(kind StatementKind, freq Frequency) ([]string, error) {
	fields, ok := statementFields[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported statement kind: %s", kind)
	}
	codes := make([]string, 0, len(fields))
	for _, field := range fields {
		codes = append(codes, string(freq)+field)
	}
	return codes, nil
}

// PageSlug returns the HTML page slug for a statement kind.
func PageSlug(kind StatementKind) (string, error) {
	slug, ok := statementPages[kind]
	if !ok {
		return "", fmt.Errorf("unsupported statement kind: %s", kind)
	}
	return slug, nil
}
