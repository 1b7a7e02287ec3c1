package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationScenario(t *testing.T) {
	path := writeTestConfig(t, `scenario:
  period: yearly
  date: 2026-01-01
  inputs:
    revenue: 120000
    avgJobSize: 5000
    appointmentRate: 50
    showRate: 50
    closeRate: 50
    com: 10
  actualRevenue: [10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000]
logging:
  level: debug
  format: console
output:
  format: csv
database:
  path: /tmp/targets-test.db
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Period() != constants.PeriodYearly {
		t.Errorf("Period() = %v, want yearly", conf.Period())
	}
	if conf.Scenario.Inputs["revenue"] != 120000 {
		t.Errorf("revenue input = %v, want 120000", conf.Scenario.Inputs["revenue"])
	}
	if !conf.ActualsProvided() {
		t.Errorf("ActualsProvided() = false, want true")
	}
	if len(conf.Scenario.ActualRevenue) != 12 {
		t.Errorf("ActualRevenue length = %d, want 12", len(conf.Scenario.ActualRevenue))
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("logging config = %+v, want debug/console", conf.Logging)
	}
	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %v, want csv", conf.Output.Format)
	}
	if conf.Database.Path != "/tmp/targets-test.db" {
		t.Errorf("database path = %v", conf.Database.Path)
	}

	date, err := conf.EvaluationDate()
	if err != nil {
		t.Fatalf("EvaluationDate() error = %v", err)
	}
	if date.Year() != 2026 {
		t.Errorf("EvaluationDate() year = %d, want 2026", date.Year())
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	path := writeTestConfig(t, `scenario:
  inputs:
    revenue: 50000
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Period() != constants.PeriodMonthly {
		t.Errorf("default period = %v, want monthly", conf.Period())
	}
	if conf.Scenario.Date == "" {
		t.Errorf("default date not applied")
	}
	if conf.Database.Path != constants.DefaultDatabasePath {
		t.Errorf("default database path = %v, want %v", conf.Database.Path, constants.DefaultDatabasePath)
	}
	if conf.ActualsProvided() {
		t.Errorf("ActualsProvided() = true for scenario without actuals")
	}
	if _, err := conf.EvaluationDate(); err != nil {
		t.Errorf("EvaluationDate() error on defaulted date: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    LoggingConfig
		override  string
		wantError bool
	}{
		{
			name:   "defaults",
			config: LoggingConfig{},
		},
		{
			name:   "console format with debug level",
			config: LoggingConfig{Level: "debug", Format: "console"},
		},
		{
			name:     "CLI override takes precedence",
			config:   LoggingConfig{Level: "bogus"},
			override: "warn",
		},
		{
			name:      "invalid level",
			config:    LoggingConfig{Level: "verbose"},
			wantError: true,
		},
		{
			name:      "invalid format",
			config:    LoggingConfig{Format: "xml"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config, tt.override)
			if tt.wantError {
				if err == nil {
					t.Errorf("NewLogger() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("NewLogger() error = %v", err)
				return
			}
			if logger == nil {
				t.Errorf("NewLogger() returned nil logger")
			}
		})
	}
}

func TestNewLoggerOutputFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "targets.log")
	logger, err := NewLogger(LoggingConfig{OutputFile: logFile}, "")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("test entry")
	_ = logger.Sync()

	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
