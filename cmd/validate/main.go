// Command validate checks a predictions file for integrity: partitions match
// the split dates and appear in order, predicted cumulative counts never
// decrease, and every forecast location has a full test range whose rows
// exist in the case files.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -predictions predictions \
//	  -datasets datasets
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/adapter/source"
	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/features"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	predictionsDir := flag.String("predictions", "predictions", "directory holding predictions files; the newest is checked")
	datasetsDir := flag.String("datasets", "", "datasets directory with the case files; coverage is skipped when empty")
	lastTrain := flag.String("last-train", domain.DefaultLastTrainDate.Format(domain.DateLayout), "last train date")
	lastEval := flag.String("last-eval", domain.DefaultLastEvalDate.Format(domain.DateLayout), "last eval date")
	lastTest := flag.String("last-test", domain.DefaultLastTestDate.Format(domain.DateLayout), "last test date")
	flag.Parse()

	dates, err := parseDates(*lastTrain, *lastEval, *lastTest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(*predictionsDir, *datasetsDir, dates))
}

func parseDates(lastTrain, lastEval, lastTest string) (domain.SplitDates, error) {
	var d domain.SplitDates
	var err error
	if d.LastTrain, err = time.Parse(domain.DateLayout, lastTrain); err != nil {
		return d, fmt.Errorf("invalid -last-train: %w", err)
	}
	if d.LastEval, err = time.Parse(domain.DateLayout, lastEval); err != nil {
		return d, fmt.Errorf("invalid -last-eval: %w", err)
	}
	if d.LastTest, err = time.Parse(domain.DateLayout, lastTest); err != nil {
		return d, fmt.Errorf("invalid -last-test: %w", err)
	}
	return d, d.Validate()
}

func run(predictionsDir, datasetsDir string, dates domain.SplitDates) int {
	fmt.Println("=== Forecast Integrity Validation ===")
	fmt.Println()

	store := artifact.NewPredictionStore(predictionsDir, features.DefaultSchema(), slog.Default())
	snapshot, err := store.ReadLatest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read predictions: %v\n", err)
		return 1
	}
	fmt.Printf("Checking %s\n\n", snapshot.Path)

	phases := []*phase{
		validatePartitions(snapshot.Forecasts, dates),
		validatePredictions(snapshot.Forecasts),
		validateTestRange(snapshot.Forecasts, dates),
	}
	if datasetsDir != "" {
		cases, err := loadTestCases(datasetsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load test cases: %v\n", err)
			return 1
		}
		phases = append(phases, validateCoverage(snapshot.Forecasts, cases))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d predictions across %d locations\n", len(snapshot.Forecasts), len(locations(snapshot.Forecasts)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadTestCases(datasetsDir string) ([]domain.Observation, error) {
	f, err := os.Open(filepath.Join(datasetsDir, source.CasesDir, source.TestFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := source.ReadCases(f)
	if err != nil {
		return nil, err
	}
	return domain.SwapCruiseShips(rows), nil
}

func locations(forecasts []domain.Forecast) map[domain.Location]bool {
	out := map[domain.Location]bool{}
	for i := range forecasts {
		out[forecasts[i].Location] = true
	}
	return out
}

// ── Phase 1: Partitions ──

var partitionOrder = map[domain.Partition]int{
	domain.PartitionTrain: 0,
	domain.PartitionEval:  1,
	domain.PartitionTest:  2,
}

func validatePartitions(forecasts []domain.Forecast, dates domain.SplitDates) *phase {
	p := &phase{name: "Phase 1: Partitions (tags and order)"}

	prev := 0
	for i := range forecasts {
		f := &forecasts[i]
		want := dates.PartitionOf(f.Date)
		if f.Partition != want {
			p.errorf("row %d %s %s: partition %q, expected %q", i, f.Location, f.Date.Format(domain.DateLayout), f.Partition, want)
			continue
		}
		order := partitionOrder[f.Partition]
		if order < prev {
			p.errorf("row %d: %s row after %s rows", i, f.Partition, partitionName(prev))
		}
		prev = max(prev, order)
	}
	return p
}

func partitionName(order int) domain.Partition {
	for name, o := range partitionOrder {
		if o == order {
			return name
		}
	}
	return domain.PartitionNone
}

// ── Phase 2: Predictions ──

func validatePredictions(forecasts []domain.Forecast) *phase {
	p := &phase{name: "Phase 2: Predictions (non-decreasing)"}

	type key struct {
		loc       domain.Location
		partition domain.Partition
	}
	last := map[key][domain.NumFields]float64{}
	for i := range forecasts {
		f := &forecasts[i]
		if f.Partition == domain.PartitionTrain {
			continue
		}
		for _, field := range domain.Fields {
			if v := f.PredictedLogNew[field]; v < 0 {
				p.errorf("%s %s: negative %s %g", f.Location, f.Date.Format(domain.DateLayout), field.PredictedTarget(), v)
			}
		}
		k := key{f.Location, f.Partition}
		prev, seen := last[k]
		for _, field := range domain.Fields {
			v := f.PredictedCumulative[field]
			if seen && !math.IsNaN(v) && !math.IsNaN(prev[field]) && v < prev[field] {
				p.errorf("%s %s: %s fell from %g to %g", f.Location, f.Date.Format(domain.DateLayout), field.Predicted(), prev[field], v)
			}
		}
		last[k] = f.PredictedCumulative
	}
	return p
}

// ── Phase 3: Test range ──

func validateTestRange(forecasts []domain.Forecast, dates domain.SplitDates) *phase {
	p := &phase{name: "Phase 3: Test Range (one row per day)"}

	days := domain.DaysBetween(dates.FirstTest(), dates.LastTest) + 1
	perLocation := map[domain.Location]map[string]bool{}
	for i := range forecasts {
		f := &forecasts[i]
		if f.Partition != domain.PartitionTest {
			continue
		}
		if perLocation[f.Location] == nil {
			perLocation[f.Location] = map[string]bool{}
		}
		day := f.Date.Format(domain.DateLayout)
		if perLocation[f.Location][day] {
			p.errorf("%s: duplicate test row for %s", f.Location, day)
		}
		perLocation[f.Location][day] = true
	}
	if len(perLocation) == 0 {
		p.errorf("no test rows")
	}
	for loc, seen := range perLocation {
		if len(seen) != days {
			p.errorf("%s: %d test days, expected %d", loc, len(seen), days)
		}
	}
	return p
}

// ── Phase 4: Coverage ──

func validateCoverage(forecasts []domain.Forecast, cases []domain.Observation) *phase {
	p := &phase{name: "Phase 4: Coverage (predictions vs test.csv)"}

	type key struct {
		loc  domain.Location
		date string
	}
	want := map[key]bool{}
	for i := range cases {
		want[key{cases[i].Location, cases[i].Date.Format(domain.DateLayout)}] = true
	}
	for i := range forecasts {
		f := &forecasts[i]
		if f.Partition != domain.PartitionTest {
			continue
		}
		if !want[key{f.Location, f.Date.Format(domain.DateLayout)}] {
			p.errorf("%s %s: predicted row not in test.csv", f.Location, f.Date.Format(domain.DateLayout))
		}
	}

	predicted := locations(forecasts)
	missing := 0
	for k := range want {
		if !predicted[k.loc] {
			missing++
		}
	}
	if missing > 0 {
		fmt.Printf("  note: %d test.csv rows belong to locations without predictions\n", missing)
	}
	return p
}
