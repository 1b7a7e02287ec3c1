// Command marketing-targets calculates a full marketing-target scenario from
// a YAML config and prints it, optionally with the monthly budget allocation
// for yearly targets.
package main

import (
	"flag"
	"fmt"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/config"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/datetime"
	"github.com/fieldserve/marketing-targets/pkg/output"
	"github.com/fieldserve/marketing-targets/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	err = validation.ValidatePeriod(conf.Scenario.Period)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	date, err := conf.EvaluationDate()
	if err != nil {
		logger.Fatal("failed to parse scenario date",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	reg := registry.New()

	// Validate scenario inputs and display any warnings
	warnings := validation.ScenarioWarnings(reg, conf.Period(), conf.Scenario.Inputs)
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	// Run one full calculation pass over the registry.
	calculator := calc.New(reg, logger)
	daysInPeriod := datetime.DaysInPeriod(conf.Period(), date)
	snapshot, err := calculator.CalculateAll(conf.Scenario.Inputs, daysInPeriod, conf.Period())
	if err != nil {
		logger.Fatal("failed to calculate targets",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(reg, snapshot)
	case constants.OutputFormatCSV:
		output.CsvFormat(reg, snapshot)
	}

	// Yearly targets with actual revenue also get the monthly plan.
	if conf.Period() == constants.PeriodYearly && conf.ActualsProvided() {
		printAllocation(conf, snapshot, outputFormat, logger)
	}
}

func printAllocation(conf *config.Configuration, snapshot calc.Snapshot, outputFormat string, logger *zap.Logger) {
	alloc := allocator.New(snapshot, logger)

	var actuals [constants.MonthsPerYear]allocator.MonthActuals
	for i, revenue := range conf.Scenario.ActualRevenue {
		if i >= constants.MonthsPerYear {
			logger.Warn("ignoring actual revenue beyond twelve months",
				zap.String("op", "main"),
			)
			break
		}
		actuals[i] = allocator.MonthActuals{Revenue: revenue, HasData: revenue != 0}
	}
	alloc.ApplyActuals(actuals)

	months := alloc.Months()
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyAllocation(months, alloc.Balance())
	case constants.OutputFormatCSV:
		output.CsvAllocation(months)
	}
}
