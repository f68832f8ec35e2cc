package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/couchcryptid/covid-forecast/internal/model"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all forecaster settings, populated from environment variables.
type Config struct {
	DatasetsDir    string
	ModelsDir      string
	PredictionsDir string

	Split           domain.SplitDates
	HistoryDays     int
	OriginSubRegion string
	Boost           model.Params

	DownloadEnabled bool
	FetchTimeout    time.Duration

	// Forecast publication is disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaForecastTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	split, err := parseSplitDates()
	if err != nil {
		return nil, err
	}

	historyDays, err := parsePositiveInt("HISTORY_DAYS", domain.DefaultHistoryDays)
	if err != nil {
		return nil, err
	}

	boost, err := parseBoostParams()
	if err != nil {
		return nil, err
	}

	downloadEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("DOWNLOAD_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid DOWNLOAD_ENABLED")
	}

	cfg := &Config{
		DatasetsDir:    sharedcfg.EnvOrDefault("DATASETS_DIR", "datasets"),
		ModelsDir:      sharedcfg.EnvOrDefault("MODELS_DIR", "models"),
		PredictionsDir: sharedcfg.EnvOrDefault("PREDICTIONS_DIR", "predictions"),

		Split:           split,
		HistoryDays:     historyDays,
		OriginSubRegion: sharedcfg.EnvOrDefault("ORIGIN_SUBREGION", domain.DefaultOriginSubRegion),
		Boost:           boost,

		DownloadEnabled: downloadEnabled,
		FetchTimeout:    fetchTimeout,

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaForecastTopic: sharedcfg.EnvOrDefault("KAFKA_FORECAST_TOPIC", "covid-forecasts"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	return cfg, nil
}

// PublishEnabled reports whether forecasts are sent to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

func parseSplitDates() (domain.SplitDates, error) {
	var d domain.SplitDates
	for _, f := range []struct {
		key string
		def time.Time
		dst *time.Time
	}{
		{"LAST_TRAIN_DATE", domain.DefaultLastTrainDate, &d.LastTrain},
		{"LAST_EVAL_DATE", domain.DefaultLastEvalDate, &d.LastEval},
		{"LAST_TEST_DATE", domain.DefaultLastTestDate, &d.LastTest},
	} {
		t, err := time.Parse(domain.DateLayout, sharedcfg.EnvOrDefault(f.key, f.def.Format(domain.DateLayout)))
		if err != nil {
			return d, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = t
	}
	if err := d.Validate(); err != nil {
		return d, fmt.Errorf("invalid split dates: %w", err)
	}
	return d, nil
}

func parseBoostParams() (model.Params, error) {
	p := model.DefaultParams()
	var err error
	if p.Iterations, err = parsePositiveInt("BOOST_ITERATIONS", p.Iterations); err != nil {
		return p, err
	}
	if p.MaxDepth, err = parsePositiveInt("BOOST_MAX_DEPTH", p.MaxDepth); err != nil {
		return p, err
	}
	if p.BorderCount, err = parsePositiveInt("BOOST_BORDER_COUNT", p.BorderCount); err != nil {
		return p, err
	}
	if p.LearningRate, err = parseFloat("BOOST_LEARNING_RATE", p.LearningRate); err != nil {
		return p, err
	}
	if p.L2Reg, err = parseFloat("BOOST_L2_REG", p.L2Reg); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid BOOST_* settings: %w", err)
	}
	return p, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.Itoa(def))
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.FormatFloat(def, 'g', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
