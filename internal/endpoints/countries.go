package endpoints

import (
	"fmt"
	"strings"
)

// Country holds the locale query parameters injected into every provider URL.
type Country struct {
	Lang       string
	Region     string
	CorsDomain string
}

// CountryError is returned when an unsupported country code is requested.
// It is raised at construction time, before any network activity.
type CountryError struct {
	Code string
}

func (e *CountryError) Error() string {
	return fmt.Sprintf("invalid country code: %s", e.Code)
}

// countryMap mirrors the locale table of the upstream web surface. Each entry
// supplies the lang/region/corsDomain parameters the provider expects for
// that market.
var countryMap = map[string]Country{
	"US": {Lang: "en-US", Region: "US", CorsDomain: "finance.yahoo.com"},
	"AU": {Lang: "en-AU", Region: "AU", CorsDomain: "au.finance.yahoo.com"},
	"CA": {Lang: "en-CA", Region: "CA", CorsDomain: "ca.finance.yahoo.com"},
	"FR": {Lang: "fr-FR", Region: "FR", CorsDomain: "fr.finance.yahoo.com"},
	"DE": {Lang: "de-DE", Region: "DE", CorsDomain: "de.finance.yahoo.com"},
	"HK": {Lang: "zh-Hant-HK", Region: "HK", CorsDomain: "hk.finance.yahoo.com"},
	"IN": {Lang: "en-IN", Region: "IN", CorsDomain: "in.finance.yahoo.com"},
	"IT": {Lang: "it-IT", Region: "IT", CorsDomain: "it.finance.yahoo.com"},
	"ES": {Lang: "es-ES", Region: "ES", CorsDomain: "es.finance.yahoo.com"},
	"GB": {Lang: "en-GB", Region: "GB", CorsDomain: "uk.finance.yahoo.com"},
	"SG": {Lang: "en-SG", Region: "SG", CorsDomain: "sg.finance.yahoo.com"},
}

// LookupCountry resolves a country code to its locale parameters.
func LookupCountry(code string) (Country, error) {
	country, ok := countryMap[strings.ToUpper(code)]
	if !ok {
		return Country{}, &CountryError{Code: code}
	}
	return country, nil
}

// SupportedCountries returns the list of supported country codes.
func SupportedCountries() []string {
	codes := make([]string, 0, len(countryMap))
	for code := range countryMap {
		codes = append(codes, code)
	}
	return codes
}
