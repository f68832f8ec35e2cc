package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/covid-forecast/internal/adapter/artifact"
	"github.com/couchcryptid/covid-forecast/internal/adapter/chart"
	"github.com/couchcryptid/covid-forecast/internal/config"
	"github.com/couchcryptid/covid-forecast/internal/domain"
)

func runPlot(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	region := fs.String("region", "", "Country/Region to plot")
	subRegion := fs.String("subregion", "", "Province/State to plot")
	fieldName := fs.String("field", domain.ConfirmedCases.String(), "ConfirmedCases or Fatalities")
	linear := fs.Bool("linear", false, "use a linear y axis")
	out := fs.String("out", "", "output image, format taken from the extension (default <location>_<field>.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *region == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -region")
	}
	field, err := parseField(*fieldName)
	if err != nil {
		return err
	}

	snapshot, err := artifact.NewPredictionStore(cfg.PredictionsDir, schemaFor(cfg), logger).ReadLatest()
	if err != nil {
		return err
	}
	loc := domain.Location{Region: *region, SubRegion: *subRegion}
	p, err := chart.Render(snapshot.Forecasts, chart.Options{
		Location: loc,
		Field:    field,
		Dates:    cfg.Split,
		Linear:   *linear,
	})
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = strings.NewReplacer("/", "_", " ", "_", ",", "").Replace(loc.String()) + "_" + field.String() + ".png"
	}
	if err := chart.Save(p, path); err != nil {
		return err
	}
	logger.Info("chart written", "path", path, "location", loc.String(), "source", snapshot.Path)
	return nil
}

func parseField(name string) (domain.Field, error) {
	for _, f := range domain.Fields {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}
