// Package calc orchestrates one full evaluation pass over the field registry:
// inputs are clamped, then every calculated field applicable to the period is
// evaluated in the fixed group order so each formula sees already-updated
// values for its dependencies.
package calc

import (
	"fmt"

	"github.com/fieldserve/marketing-targets/internal/formula"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/mathutil"
	"go.uber.org/zap"
)

// Snapshot is the full value mapping after one calculator pass, together with
// the period it was computed under. It is a plain value owned by the caller;
// the calculator retains nothing between passes.
type Snapshot struct {
	Values       map[string]float64
	Period       constants.Period
	DaysInPeriod int
}

// Value returns the snapshot value for a field id, 0 when absent.
func (s Snapshot) Value(id string) float64 {
	return s.Values[id]
}

// Calculator derives the full snapshot from operator inputs.
type Calculator struct {
	registry  *registry.Registry
	evaluator *formula.Evaluator
	logger    *zap.Logger
}

// New constructs a Calculator over the given registry.
func New(reg *registry.Registry, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		registry:  reg,
		evaluator: formula.NewEvaluator(logger),
		logger:    logger,
	}
}

// CalculateAll runs one evaluation pass. Inputs are clamped at the registry
// boundary first; missing inputs fall back to field defaults. The returned
// error only ever reports a registry authoring defect (a formula referencing
// an unknown identifier) — user input can never trigger it.
func (c *Calculator) CalculateAll(inputs map[string]float64, daysInPeriod int, period constants.Period) (Snapshot, error) {
	values := c.registry.ClampInputs(inputs, period)

	ctx := formula.Context{
		Values:       values,
		DaysInPeriod: daysInPeriod,
		Period:       period,
	}

	// Calculated fields come back in registry order: funnel rates, then the
	// volume chain (sales -> estimatesRan -> estimatesSet -> leads) and the
	// budget family, then the cost ratios against the resolved budget.
	for _, field := range c.registry.Calculated(period) {
		result, err := c.evaluator.Evaluate(field.Formula, ctx, field.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("field %q: %w", field.ID, err)
		}
		if field.Unit == registry.UnitCount {
			result = mathutil.RoundCount(result)
		}
		values[field.ID] = result
	}

	c.logger.Debug("calculated snapshot",
		zap.String("op", "calc.CalculateAll"),
		zap.String("period", string(period)),
		zap.Int("fields", len(values)),
	)

	return Snapshot{Values: values, Period: period, DaysInPeriod: daysInPeriod}, nil
}
