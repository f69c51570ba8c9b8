// Package config loads the run configuration from a YAML file. Missing
// required keys abort startup; there is no partial-config recovery.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full run configuration.
type Config struct {
	General  General  `mapstructure:"general"`
	ModelFit ModelFit `mapstructure:"model_fit"`
}

// General holds run-wide settings.
type General struct {
	// DataDir is where local artifacts (the training-report database) live.
	DataDir string `mapstructure:"data_dir"`
	// TrainFile is the labels CSV: one row per recording, one 0/1 column
	// per species.
	TrainFile string `mapstructure:"train_file"`
	// DBName is the MongoDB database holding spectrograms and statistics.
	DBName string `mapstructure:"db_name"`
	// DBRW selects the persisted spectrogram source; false means a live
	// generator must be supplied.
	DBRW bool `mapstructure:"db_rw"`
	// NumProcessors bounds the worker pool; zero or negative derives the
	// count from the CPUs available.
	NumProcessors int `mapstructure:"num_processors"`
	// SpeciesTable is an optional species-lookup CSV.
	SpeciesTable string `mapstructure:"species_table"`
}

// ModelFit holds the feature-pipeline and classifier settings.
type ModelFit struct {
	NumFrequencyBands            int     `mapstructure:"num_frequency_bands"`
	TemplateMatchFrequencyBuffer int     `mapstructure:"template_match_frequency_buffer"`
	GaussianFilterSigma          float64 `mapstructure:"gaussian_filter_sigma"`
	// TemplatePool optionally restricts matching templates to a curated
	// CSV of labels and box indices.
	TemplatePool string `mapstructure:"template_pool"`
	// TemplatePoolDB optionally reads pooled spectrograms from another
	// database.
	TemplatePoolDB string `mapstructure:"template_pool_db"`

	NEstimators     []int `mapstructure:"n_estimators"`
	MaxFeatures     []int `mapstructure:"max_features"`
	MinSamplesSplit []int `mapstructure:"min_samples_split"`
}

var requiredKeys = []string{
	"general.data_dir",
	"general.train_file",
	"general.db_name",
	"model_fit.num_frequency_bands",
	"model_fit.template_match_frequency_buffer",
	"model_fit.gaussian_filter_sigma",
	"model_fit.n_estimators",
	"model_fit.max_features",
	"model_fit.min_samples_split",
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("config %s: required key %s is missing", path, key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if cfg.ModelFit.NumFrequencyBands < 1 {
		return nil, fmt.Errorf("config %s: num_frequency_bands must be positive", path)
	}
	if cfg.ModelFit.TemplateMatchFrequencyBuffer < 0 {
		return nil, fmt.Errorf("config %s: template_match_frequency_buffer must not be negative", path)
	}
	if cfg.ModelFit.GaussianFilterSigma < 0 {
		return nil, fmt.Errorf("config %s: gaussian_filter_sigma must not be negative", path)
	}
	return &cfg, nil
}
