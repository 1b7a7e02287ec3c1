// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidatePeriod checks that the period string names a known period type.
func ValidatePeriod(period string) error {
	if !constants.Period(period).Valid() {
		return fmt.Errorf("expected period of %s, %s or %s, got %q",
			constants.PeriodWeekly, constants.PeriodMonthly, constants.PeriodYearly, period)
	}
	return nil
}

// ValidateDate checks that the date parses with the expected layout.
func ValidateDate(date string) error {
	if _, err := time.Parse(constants.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: expected layout %s", date, constants.DateLayout)
	}
	return nil
}

// ScenarioWarnings inspects a scenario's inputs against the registry and
// returns human-readable warnings. Nothing here blocks a calculation; the
// registry clamps whatever arrives.
func ScenarioWarnings(reg *registry.Registry, period constants.Period, inputs map[string]float64) []string {
	var warnings []string

	// Keys are matched case-insensitively, mirroring the registry's input
	// handling of viper-lowercased config maps.
	known := make(map[string]registry.FieldDefinition)
	knownIDs := make(map[string]string)
	for _, f := range reg.Inputs(period) {
		known[f.ID] = f
		knownIDs[strings.ToLower(f.ID)] = f.ID
	}

	for id, v := range inputs {
		if canonical, ok := knownIDs[strings.ToLower(id)]; ok {
			id = canonical
		}
		f, ok := known[id]
		if !ok {
			if _, defined := reg.Definition(id); defined {
				warnings = append(warnings, fmt.Sprintf("field %q is not an input for %s targets and will be ignored", id, period))
			} else {
				warnings = append(warnings, fmt.Sprintf("unknown field %q will be ignored", id))
			}
			continue
		}
		if v < f.Min {
			warnings = append(warnings, fmt.Sprintf("field %q value %v is below minimum %v and will be clamped", id, v, f.Min))
		} else if v > f.Max {
			warnings = append(warnings, fmt.Sprintf("field %q value %v is above maximum %v and will be clamped", id, v, f.Max))
		}
	}

	for _, f := range []string{"revenue", "avgJobSize"} {
		value := inputs[f]
		if v, ok := inputs[strings.ToLower(f)]; ok {
			value = v
		}
		if value == 0 {
			warnings = append(warnings, fmt.Sprintf("field %q is 0; derived volume metrics will be 0", f))
		}
	}

	return warnings
}
