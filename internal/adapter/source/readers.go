package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
)

const bom = "\ufeff"

// Case file columns.
const (
	colID             = "Id"
	colForecastID     = "ForecastId"
	colSubRegion      = "Province/State"
	colRegion         = "Country/Region"
	colLat            = "Lat"
	colLong           = "Long"
	colDate           = "Date"
	colConfirmedCases = "ConfirmedCases"
	colFatalities     = "Fatalities"
)

// header maps column names to indices.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(strings.TrimPrefix(name, bom))] = i
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed field or "" when the column is absent or the
// record is short.
func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ReadCases parses a Kaggle train or test file. Train files carry Id and
// the cumulative counts; test files carry ForecastId and leave the counts
// undefined.
func ReadCases(r io.Reader) ([]domain.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(first)
	if err := h.require(colSubRegion, colRegion, colLat, colLong, colDate); err != nil {
		return nil, err
	}

	var out []domain.Observation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		o, err := parseCase(h, rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseCase(h header, rec []string) (domain.Observation, error) {
	date, err := time.Parse(domain.DateLayout, h.get(rec, colDate))
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse date: %w", err)
	}
	o := domain.NewObservation(domain.Location{
		Region:    h.get(rec, colRegion),
		SubRegion: h.get(rec, colSubRegion),
	}, date)

	if o.ID, err = parseInt(h.get(rec, colID)); err != nil {
		return o, fmt.Errorf("parse %s: %w", colID, err)
	}
	if o.ForecastID, err = parseInt(h.get(rec, colForecastID)); err != nil {
		return o, fmt.Errorf("parse %s: %w", colForecastID, err)
	}
	if o.Lat, err = parseFloat(h.get(rec, colLat)); err != nil {
		return o, fmt.Errorf("parse %s: %w", colLat, err)
	}
	if o.Long, err = parseFloat(h.get(rec, colLong)); err != nil {
		return o, fmt.Errorf("parse %s: %w", colLong, err)
	}
	for _, f := range domain.Fields {
		if o.Cumulative[f], err = parseFloat(h.get(rec, f.String())); err != nil {
			return o, fmt.Errorf("parse %s: %w", f, err)
		}
	}
	return o, nil
}

// ReadWorldBank parses a World Bank indicator export into a one-column
// table keyed by reconciled country name. Lines before the "Country Name"
// header are skipped.
func ReadWorldBank(r io.Reader, names domain.Reconciler, ind Indicator) (*domain.CovariateTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var h header
	for h == nil {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, errors.New(`no "Country Name" header`)
		}
		if err != nil {
			return nil, fmt.Errorf("read preamble: %w", err)
		}
		if len(rec) > 0 && strings.TrimSpace(strings.TrimPrefix(rec[0], bom)) == "Country Name" {
			h = newHeader(rec)
		}
	}

	var years []string
	for y := ind.FromYear; y <= ind.ToYear; y++ {
		if _, ok := h[strconv.Itoa(y)]; ok {
			years = append(years, strconv.Itoa(y))
		}
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no year columns in %d-%d", ind.FromYear, ind.ToYear)
	}

	table := domain.NewCovariateTable(ind.Name, ind.Column)
	values := make([]float64, len(years))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ind.Name, err)
		}
		country := h.get(rec, "Country Name")
		if country == "" {
			continue
		}
		for i, y := range years {
			v, err := parseFloat(h.get(rec, y))
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", country, y, err)
			}
			values[i] = v
		}
		table.Set(names.Canonical(country), domain.LastValid(values))
	}
	return table, nil
}

// WPP columns.
const (
	colLocation  = "Location"
	colTime      = "Time"
	colAgeGroup  = "AgeGrp"
	colPopMale   = "PopMale"
	colPopFemale = "PopFemale"
)

// ReadPopulation parses the UN WPP population-by-age file, keeping the
// records dated within [fromYear, toYear] and reconciling country names.
func ReadPopulation(r io.Reader, names domain.Reconciler, fromYear, toYear int) ([]domain.PopulationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(first)
	if err := h.require(colLocation, colTime, colAgeGroup, colPopMale, colPopFemale); err != nil {
		return nil, err
	}

	var out []domain.PopulationRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		year, err := strconv.Atoi(h.get(rec, colTime))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, colTime, err)
		}
		if year < fromYear || year > toYear {
			continue
		}
		male, err := strconv.ParseFloat(h.get(rec, colPopMale), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, colPopMale, err)
		}
		female, err := strconv.ParseFloat(h.get(rec, colPopFemale), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, colPopFemale, err)
		}
		out = append(out, domain.PopulationRecord{
			Location:  names.Canonical(h.get(rec, colLocation)),
			Year:      year,
			AgeGroup:  h.get(rec, colAgeGroup),
			PopMale:   male,
			PopFemale: female,
		})
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
