// Command genmock writes a synthetic datasets tree that the forecaster can
// train and predict on without network access: case files, World Bank
// indicator CSVs and the UN population table.
//
// Usage:
//
//	go run ./cmd/genmock -out datasets
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "datasets directory to write")
	lastTrain := flag.String("last-train", domain.DefaultLastTrainDate.Format(domain.DateLayout), "last train date")
	lastEval := flag.String("last-eval", domain.DefaultLastEvalDate.Format(domain.DateLayout), "last eval date")
	lastTest := flag.String("last-test", domain.DefaultLastTestDate.Format(domain.DateLayout), "last test date")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	var dates domain.SplitDates
	for _, d := range []struct {
		name  string
		value string
		dst   *time.Time
	}{
		{"-last-train", *lastTrain, &dates.LastTrain},
		{"-last-eval", *lastEval, &dates.LastEval},
		{"-last-test", *lastTest, &dates.LastTest},
	} {
		t, err := time.Parse(domain.DateLayout, d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = t
	}
	if err := dates.Validate(); err != nil {
		return err
	}

	summary, err := mockdata.Generate(*out, dates)
	if err != nil {
		return err
	}

	log.Printf("train: %d rows", summary.TrainRows)
	log.Printf("test: %d rows", summary.TestRows)
	log.Printf("indicators: %d files", summary.Indicators)
	log.Printf("population: %d rows", summary.PopulationRows)
	log.Printf("wrote %s", *out)
	return nil
}
