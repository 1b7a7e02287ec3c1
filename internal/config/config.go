// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"time"

	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a marketing-targets run.
type Configuration struct {
	Scenario ScenarioConfig
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
}

// ScenarioConfig describes one target entry: the period, the evaluation date,
// the operator's input values, and (for yearly targets) optional actual
// monthly revenue used by the allocator's revenue-weighted mode.
type ScenarioConfig struct {
	Period        string             `yaml:"period"`
	Date          string             `yaml:"date"`
	Inputs        map[string]float64 `yaml:"inputs"`
	ActualRevenue []float64          `yaml:"actualRevenue,omitempty"` // Jan..Dec
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// DatabaseConfig holds the target store location.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

func (conf *Configuration) applyDefaults() {
	if conf.Scenario.Period == "" {
		conf.Scenario.Period = string(constants.PeriodMonthly)
	}
	if conf.Scenario.Date == "" {
		conf.Scenario.Date = time.Now().Format(constants.DateLayout)
	}
	if conf.Database.Path == "" {
		conf.Database.Path = constants.DefaultDatabasePath
	}
}

// Period returns the scenario's period type.
func (conf *Configuration) Period() constants.Period {
	return constants.Period(conf.Scenario.Period)
}

// EvaluationDate parses the scenario date.
func (conf *Configuration) EvaluationDate() (time.Time, error) {
	t, err := time.Parse(constants.DateLayout, conf.Scenario.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scenario date %q: %w", conf.Scenario.Date, err)
	}
	return t, nil
}

// ActualsProvided reports whether the scenario carries monthly actual
// revenue for the allocator.
func (conf *Configuration) ActualsProvided() bool {
	return len(conf.Scenario.ActualRevenue) > 0
}
