package domain

import (
	"encoding/json"
	"math"
	"time"
)

// forecastJSON is the wire shape of a Forecast. NaN is not representable in
// JSON, so undefined values travel as null.
type forecastJSON struct {
	Region                        string   `json:"region"`
	SubRegion                     string   `json:"sub_region"`
	Date                          string   `json:"date"`
	Partition                     string   `json:"partition,omitempty"`
	ConfirmedCases                *float64 `json:"confirmed_cases"`
	Fatalities                    *float64 `json:"fatalities"`
	PredictedLogNewConfirmedCases *float64 `json:"predicted_log_new_confirmed_cases"`
	PredictedLogNewFatalities     *float64 `json:"predicted_log_new_fatalities"`
	PredictedConfirmedCases       *float64 `json:"predicted_confirmed_cases"`
	PredictedFatalities           *float64 `json:"predicted_fatalities"`
}

// DateLayout is the calendar date format used by every source and artifact.
const DateLayout = "2006-01-02"

func (f Forecast) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastJSON{
		Region:                        f.Location.Region,
		SubRegion:                     f.Location.SubRegion,
		Date:                          f.Date.Format(DateLayout),
		Partition:                     string(f.Partition),
		ConfirmedCases:                nullable(f.Cumulative[ConfirmedCases]),
		Fatalities:                    nullable(f.Cumulative[Fatalities]),
		PredictedLogNewConfirmedCases: nullable(f.PredictedLogNew[ConfirmedCases]),
		PredictedLogNewFatalities:     nullable(f.PredictedLogNew[Fatalities]),
		PredictedConfirmedCases:       nullable(f.PredictedCumulative[ConfirmedCases]),
		PredictedFatalities:           nullable(f.PredictedCumulative[Fatalities]),
	})
}

func (f *Forecast) UnmarshalJSON(data []byte) error {
	var w forecastJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, w.Date)
	if err != nil {
		return err
	}
	*f = Forecast{
		Location:  Location{Region: w.Region, SubRegion: w.SubRegion},
		Date:      date,
		Partition: Partition(w.Partition),
		Cumulative: [NumFields]float64{
			fromNullable(w.ConfirmedCases), fromNullable(w.Fatalities),
		},
		PredictedLogNew: [NumFields]float64{
			fromNullable(w.PredictedLogNewConfirmedCases), fromNullable(w.PredictedLogNewFatalities),
		},
		PredictedCumulative: [NumFields]float64{
			fromNullable(w.PredictedConfirmedCases), fromNullable(w.PredictedFatalities),
		},
	}
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
