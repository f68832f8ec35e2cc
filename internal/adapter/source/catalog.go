// Package source reads the raw case, World Bank and UN WPP datasets from the
// datasets directory.
package source

import (
	"fmt"
	"path/filepath"

	"github.com/couchcryptid/covid-forecast/internal/adapter/fetch"
	"github.com/couchcryptid/covid-forecast/internal/domain"
)

// Layout of the datasets directory.
const (
	CasesDir  = "covid19-global-forecasting-week-1"
	TrainFile = "train.csv"
	TestFile  = "test.csv"

	PopulationDir  = "population"
	PopulationFile = "WPP2019_PopulationByAgeSex_Medium.csv"
	PopulationURL  = "https://github.com/ordinaryevidence/leep-cea/raw/refs/heads/master/WPP2019_PopulationByAgeSex_Medium.zip"

	PopulationFromYear = 2014
	PopulationToYear   = 2019
)

// ColCountryHospitalBeds is downloaded with the other indicators but is not
// a model feature.
const ColCountryHospitalBeds = "CountryHospitalBedsPer1000"

// Indicator is one World Bank indicator. Its value per country is the last
// non-empty year in [FromYear, ToYear].
type Indicator struct {
	Name     string
	Code     string
	Column   string
	FromYear int
	ToYear   int
	Merged   bool // false for indicators fetched but not used as features
}

// Indicators are the World Bank datasets, in merge order.
var Indicators = []Indicator{
	{Name: "area", Code: "AG.LND.TOTL.K2", Column: domain.ColCountryArea, FromYear: 1960, ToYear: 2019, Merged: true},
	{Name: "smoking", Code: "SH.PRV.SMOK", Column: domain.ColCountrySmokingRate, FromYear: 2010, ToYear: 2019, Merged: true},
	{Name: "hospital_beds", Code: "SH.MED.BEDS.ZS", Column: ColCountryHospitalBeds, FromYear: 2010, ToYear: 2019},
	{Name: "health_expenditure", Code: "SH.XPD.CHEX.PP.CD", Column: domain.ColCountryHealthExpense, FromYear: 2010, ToYear: 2019, Merged: true},
}

// Dir is where the indicator archive is unpacked.
func (i Indicator) Dir(root string) string { return filepath.Join(root, i.Name) }

// URL is the CSV download of the indicator.
func (i Indicator) URL() string {
	return fmt.Sprintf("http://api.worldbank.org/v2/en/indicator/%s?downloadformat=csv", i.Code)
}

// Pattern matches the data file inside the archive. The numeric suffix
// changes between releases; metadata files do not match.
func (i Indicator) Pattern() string { return fmt.Sprintf("API_%s_DS2_*.csv", i.Code) }

// Archives lists every downloadable dataset rooted at root. The Kaggle case
// files are not downloadable and must be placed by hand.
func Archives(root string) []fetch.Archive {
	out := make([]fetch.Archive, 0, len(Indicators)+1)
	for _, ind := range Indicators {
		out = append(out, fetch.Archive{
			Name: ind.Name,
			URL:  ind.URL(),
			Dir:  ind.Dir(root),
			File: ind.Name + ".zip",
		})
	}
	return append(out, fetch.Archive{
		Name: "population",
		URL:  PopulationURL,
		Dir:  filepath.Join(root, PopulationDir),
		File: "population.zip",
	})
}
