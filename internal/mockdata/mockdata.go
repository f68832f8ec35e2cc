// Package mockdata writes a small synthetic datasets tree with the same
// layout and file formats as the real sources, for offline runs and tests.
package mockdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/adapter/source"
	"github.com/couchcryptid/covid-forecast/internal/domain"
)

// FirstDate is the first day of the synthetic case series.
var FirstDate = time.Date(2020, time.January, 22, 0, 0, 0, 0, time.UTC)

// Location is one synthetic series: a logistic curve of confirmed cases
// reaching Cap around Midpoint days after FirstDate.
type Location struct {
	Region    string
	SubRegion string
	Lat, Long float64
	Cap       float64
	Midpoint  float64
	Scale     float64
	Fatality  float64 // fatalities per confirmed case
	DropDay   int     // day whose cumulative count is revised down, 0 for none
}

// Locations covers the origin, accented and reconciled country names, a
// cruise ship, a country absent from every covariate source, and one
// series that decreases.
var Locations = []Location{
	{Region: "China", SubRegion: "Hubei", Lat: 30.9756, Long: 112.2707, Cap: 68000, Midpoint: 18, Scale: 4, Fatality: 0.045},
	{Region: "China", SubRegion: "Beijing", Lat: 40.1824, Long: 116.4142, Cap: 580, Midpoint: 20, Scale: 5, Fatality: 0.015},
	{Region: "Italy", Lat: 43, Long: 12, Cap: 180000, Midpoint: 72, Scale: 7, Fatality: 0.12},
	{Region: "Korea, South", Lat: 36, Long: 128, Cap: 10500, Midpoint: 40, Scale: 4, Fatality: 0.02},
	{Region: "US", SubRegion: "Washington", Lat: 47.4009, Long: -121.4905, Cap: 13000, Midpoint: 68, Scale: 6, Fatality: 0.05},
	{Region: "US", SubRegion: "Grand Princess", Lat: 37.6489, Long: -122.6655, Cap: 103, Midpoint: 48, Scale: 2, Fatality: 0.03},
	{Region: "Canada", SubRegion: "Quebec", Lat: 52.9399, Long: -73.5491, Cap: 20000, Midpoint: 78, Scale: 6, Fatality: 0.05},
	{Region: "Curacao", Lat: 12.1696, Long: -68.99, Cap: 14, Midpoint: 62, Scale: 3, Fatality: 0.07},
	{Region: "Atlantis", Lat: 0, Long: -30, Cap: 300, Midpoint: 60, Scale: 5, Fatality: 0.01},
	{Region: "Australia", SubRegion: "Queensland", Lat: -28.0167, Long: 153.4, Cap: 1000, Midpoint: 66, Scale: 5, Fatality: 0.005, DropDay: 50},
}

// Confirmed is the cumulative confirmed count on day d. On DropDay it falls
// one below the previous day.
func (l Location) Confirmed(d int) float64 {
	if l.DropDay > 0 && d == l.DropDay {
		return math.Max(0, l.curve(d-1)-1)
	}
	return l.curve(d)
}

func (l Location) curve(d int) float64 {
	return math.Round(l.Cap / (1 + math.Exp(-(float64(d)-l.Midpoint)/l.Scale)))
}

// Fatalities is the cumulative fatality count on day d.
func (l Location) Fatalities(d int) float64 {
	return math.Round(l.Confirmed(d) * l.Fatality)
}

// Summary reports what Generate wrote.
type Summary struct {
	TrainRows      int
	TestRows       int
	Indicators     int
	PopulationRows int
}

// Generate writes the tree under root. train.csv runs from FirstDate to the
// last eval date; test.csv runs from the day after the last train date to
// the last test date, overlapping train as the public files do.
func Generate(root string, dates domain.SplitDates) (Summary, error) {
	var s Summary
	var err error
	if s.TrainRows, err = writeTrain(root, dates.LastEval); err != nil {
		return s, err
	}
	if s.TestRows, err = writeTest(root, dates.FirstEval(), dates.LastTest); err != nil {
		return s, err
	}
	for _, ind := range source.Indicators {
		if err := writeIndicator(root, ind); err != nil {
			return s, err
		}
		s.Indicators++
	}
	if s.PopulationRows, err = writePopulation(root); err != nil {
		return s, err
	}
	return s, nil
}

func writeTrain(root string, last time.Time) (int, error) {
	header := []string{"Id", "Province/State", "Country/Region", "Lat", "Long", "Date", "ConfirmedCases", "Fatalities"}
	var rows [][]string
	id := 1
	for _, loc := range Locations {
		for d := 0; !FirstDate.AddDate(0, 0, d).After(last); d++ {
			rows = append(rows, []string{
				strconv.Itoa(id), loc.SubRegion, loc.Region, ftoa(loc.Lat), ftoa(loc.Long),
				FirstDate.AddDate(0, 0, d).Format(domain.DateLayout),
				ftoa(loc.Confirmed(d)), ftoa(loc.Fatalities(d)),
			})
			id++
		}
	}
	return len(rows), writeCSV(filepath.Join(root, source.CasesDir, source.TrainFile), header, rows)
}

func writeTest(root string, first, last time.Time) (int, error) {
	header := []string{"ForecastId", "Province/State", "Country/Region", "Lat", "Long", "Date"}
	var rows [][]string
	id := 1
	for _, loc := range Locations {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			rows = append(rows, []string{
				strconv.Itoa(id), loc.SubRegion, loc.Region, ftoa(loc.Lat), ftoa(loc.Long),
				day.Format(domain.DateLayout),
			})
			id++
		}
	}
	return len(rows), writeCSV(filepath.Join(root, source.CasesDir, source.TestFile), header, rows)
}

// indicatorValues holds one value per World Bank country name, reported for
// a few years only so the last-valid-year reduction is exercised.
var indicatorValues = map[string]map[string]float64{
	"area": {
		"China": 9388210, "Italy": 294140, "Korea, Rep.": 97489, "United States": 9147420,
		"Canada": 8965590, "Curaçao": 444, "Australia": 7692020,
	},
	"smoking": {
		"China": 25.6, "Italy": 23.7, "Korea, Rep.": 22.8, "United States": 21.8,
		"Canada": 14.3, "Australia": 14.7,
	},
	"hospital_beds": {
		"China": 4.3, "Italy": 3.2, "Korea, Rep.": 12.3, "United States": 2.9, "Canada": 2.5, "Australia": 3.8,
	},
	"health_expenditure": {
		"China": 935, "Italy": 3624, "Korea, Rep.": 3192, "United States": 10624,
		"Canada": 5418, "Curaçao": 3100, "Australia": 5332,
	},
}

func writeIndicator(root string, ind source.Indicator) error {
	header := []string{"Country Name", "Country Code", "Indicator Name", "Indicator Code"}
	for y := 1960; y <= 2019; y++ {
		header = append(header, strconv.Itoa(y))
	}
	header = append(header, "")

	var rows [][]string
	for country, v := range indicatorValues[ind.Name] {
		row := make([]string, len(header))
		row[0], row[1], row[2], row[3] = country, "XXX", ind.Name, ind.Code
		// An older value followed by the latest one, then empty years.
		row[4+(2014-1960)] = ftoa(v * 0.95)
		row[4+(2016-1960)] = ftoa(v)
		rows = append(rows, row)
	}

	path := filepath.Join(ind.Dir(root), fmt.Sprintf("API_%s_DS2_en_csv_v2_1.csv", ind.Code))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	preamble := "\ufeff\"Data Source\",\"World Development Indicators\",\n\n\"Last Updated Date\",\"2020-03-18\",\n\n"
	if _, err := f.WriteString(preamble); err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// populationThousands is the 2019 total per WPP location name.
var populationThousands = map[string]float64{
	"China": 1433784, "Italy": 60550, "Republic of Korea": 51225, "United States of America": 329065,
	"Canada": 37411, "Curaçao": 164, "Australia": 25203,
}

var ageGroups = []string{
	"0-4", "5-9", "10-14", "15-19", "20-24", "25-29", "30-34", "35-39", "40-44", "45-49",
	"50-54", "55-59", "60-64", "65-69", "70-74", "75-79", "80-84", "85-89", "90-94", "95-99", "100+",
}

func writePopulation(root string) (int, error) {
	header := []string{"LocID", "Location", "VarID", "Variant", "Time", "MidPeriod", "AgeGrp", "AgeGrpStart", "AgeGrpSpan", "PopMale", "PopFemale", "PopTotal"}
	var rows [][]string
	for location, total := range populationThousands {
		for year := 2012; year <= 2021; year++ {
			growth := 1 + 0.004*float64(year-2019)
			for i, age := range ageGroups {
				// Older groups shrink linearly.
				share := float64(len(ageGroups)-i) / float64(len(ageGroups)*(len(ageGroups)+1)/2)
				pop := total * growth * share
				male, female := pop*0.49, pop*0.51
				rows = append(rows, []string{
					"1", location, "2", "Medium", strconv.Itoa(year), strconv.Itoa(year) + ".5",
					age, strconv.Itoa(i * 5), "5", ftoa(male), ftoa(female), ftoa(male + female),
				})
			}
		}
	}
	return len(rows), writeCSV(filepath.Join(root, source.PopulationDir, source.PopulationFile), header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
