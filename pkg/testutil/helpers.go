// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/fieldserve/marketing-targets/internal/registry"
)

// FindField finds a field definition by id in a definitions slice.
// Returns a pointer to the definition if found, nil otherwise.
func FindField(fields []registry.FieldDefinition, id string) *registry.FieldDefinition {
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i]
		}
	}
	return nil
}

// BaselineInputs returns a full operator input set used as a fixture across
// tests. The values are chosen so every derived field lands on a round
// number: 120000 revenue at 5000 per job is 24 sales, and 50% rates double
// each funnel stage.
func BaselineInputs() map[string]float64 {
	return map[string]float64{
		"revenue":         120000,
		"avgJobSize":      5000,
		"appointmentRate": 50,
		"showRate":        50,
		"closeRate":       50,
		"com":             10,
	}
}
