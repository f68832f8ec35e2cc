package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Reconciler maps one source's country names onto the case-data convention.
// The zero value folds diacritics only.
type Reconciler struct {
	source string
	names  map[string]string
}

// NewReconciler copies names so the returned Reconciler is immutable.
func NewReconciler(source string, names map[string]string) Reconciler {
	m := make(map[string]string, len(names))
	for k, v := range names {
		m[k] = v
	}
	return Reconciler{source: source, names: m}
}

// Source names the dataset the table was written for.
func (r Reconciler) Source() string { return r.source }

// Canonical returns the case-data name for a source country name. Names not
// in the table are returned trimmed and without diacritics.
func (r Reconciler) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if c, ok := r.names[name]; ok {
		return c
	}
	return FoldDiacritics(name)
}

// FoldDiacritics strips combining marks, e.g. "Curaçao" -> "Curacao".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// WorldBankNames reconciles World Bank indicator country names.
var WorldBankNames = NewReconciler("worldbank", map[string]string{
	"Bahamas, The":                   "The Bahamas",
	"Brunei Darussalam":              "Brunei",
	"Congo, Rep.":                    "Congo (Brazzaville)",
	"Congo, Dem. Rep.":               "Congo (Kinshasa)",
	"Czech Republic":                 "Czechia",
	"Egypt, Arab Rep.":               "Egypt",
	"Iran, Islamic Rep.":             "Iran",
	"Korea, Rep.":                    "Korea, South",
	"Kyrgyz Republic":                "Kyrgyzstan",
	"Russian Federation":             "Russia",
	"Slovak Republic":                "Slovakia",
	"St. Lucia":                      "Saint Lucia",
	"St. Vincent and the Grenadines": "Saint Vincent and the Grenadines",
	"United States":                  "US",
	"Venezuela, RB":                  "Venezuela",
})

// UNWPPNames reconciles UN World Population Prospects location names.
var UNWPPNames = NewReconciler("unwpp", map[string]string{
	"Bahamas":                            "The Bahamas",
	"Bolivia (Plurinational State of)":   "Bolivia",
	"Brunei Darussalam":                  "Brunei",
	"China, Taiwan Province of China":    "Taiwan*",
	"Congo":                              "Congo (Brazzaville)",
	"Côte d'Ivoire":                      "Cote d'Ivoire",
	"Democratic Republic of the Congo":   "Congo (Kinshasa)",
	"Gambia":                             "The Gambia",
	"Iran (Islamic Republic of)":         "Iran",
	"Republic of Korea":                  "Korea, South",
	"Republic of Moldova":                "Moldova",
	"Réunion":                            "Reunion",
	"Russian Federation":                 "Russia",
	"United Republic of Tanzania":        "Tanzania",
	"United States of America":           "US",
	"Venezuela (Bolivarian Republic of)": "Venezuela",
	"Viet Nam":                           "Vietnam",
})
