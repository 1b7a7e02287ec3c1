// Package formula evaluates the string-encoded field formulas against a live
// value context. It replaces dynamic host-language evaluation with a small
// whitelisted arithmetic grammar resolved strictly against the context map.
package formula

import (
	"errors"
	"fmt"
	"math"

	"github.com/fieldserve/marketing-targets/internal/fees"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"go.uber.org/zap"
)

// ErrUnknownIdentifier marks a formula referencing a field id or function the
// context cannot resolve. This is a registry authoring defect, never a user
// input condition, so it propagates instead of degrading to 0.
var ErrUnknownIdentifier = errors.New("formula references unknown identifier")

// Context carries the values a single evaluation pass runs against. A fresh
// Context is built per pass and discarded afterwards.
type Context struct {
	Values       map[string]float64
	DaysInPeriod int
	Period       constants.Period
}

// Evaluator computes formula results. Evaluation is side-effect-free: the
// same (formula, context, target) always yields the same number.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator constructs an Evaluator. A nil logger falls back to a no-op.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Evaluate resolves a formula for the named target field. The budget family
// of fields is resolved by period semantics before the generic grammar runs,
// because "budget" means a different underlying quantity per period type.
// Malformed expressions and non-finite results degrade to 0; only unknown
// identifiers surface as errors.
func (e *Evaluator) Evaluate(expr string, ctx Context, targetFieldID string) (float64, error) {
	switch targetFieldID {
	case "annualBudget":
		return finite(annualBudget(ctx)), nil
	case "calculatedMonthlyBudget":
		if ctx.Period == constants.PeriodYearly {
			return finite(annualBudget(ctx) / constants.MonthsPerYear), nil
		}
		return finite(periodBudget(ctx)), nil
	case "budget":
		return finite(resolveBudget(ctx)), nil
	}

	tokens, err := tokenize(expr)
	if err != nil {
		e.logger.Debug("formula lex failed, yielding 0",
			zap.String("op", "formula.Evaluate"),
			zap.String("field", targetFieldID),
			zap.Error(err),
		)
		return 0, nil
	}

	root, err := parse(tokens)
	if err != nil {
		e.logger.Debug("formula parse failed, yielding 0",
			zap.String("op", "formula.Evaluate"),
			zap.String("field", targetFieldID),
			zap.Error(err),
		)
		return 0, nil
	}

	result, err := root.eval(resolver{
		ident: func(name string) (float64, error) { return e.resolveIdent(name, ctx) },
		call:  func(name string, arg float64) (float64, error) { return resolveCall(name, arg) },
	})
	if err != nil {
		return 0, fmt.Errorf("evaluating %q: %w", targetFieldID, err)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		e.logger.Debug("formula produced non-finite result, yielding 0",
			zap.String("op", "formula.Evaluate"),
			zap.String("field", targetFieldID),
		)
		return 0, nil
	}
	return result, nil
}

// resolveIdent maps an identifier token to its numeric value. The budget
// token substitutes the period-correct budget quantity; daysInPeriod is the
// only other pseudo-identifier.
func (e *Evaluator) resolveIdent(name string, ctx Context) (float64, error) {
	switch name {
	case "budget":
		return resolveBudget(ctx), nil
	case "daysInPeriod":
		return float64(ctx.DaysInPeriod), nil
	}
	if v, ok := ctx.Values[name]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIdentifier, name)
}

func resolveCall(name string, arg float64) (float64, error) {
	if name == "managementCost" {
		return fees.ManagementCost(arg), nil
	}
	return 0, fmt.Errorf("%w: function %q", ErrUnknownIdentifier, name)
}

// annualBudget is always revenue scaled by the cost-of-marketing percentage.
func annualBudget(ctx Context) float64 {
	return ctx.Values["revenue"] * (ctx.Values["com"] / constants.PercentageMultiplier)
}

// periodBudget is the period's own computed budget: the already-derived
// monthly budget when present in the context, otherwise revenue * com%.
func periodBudget(ctx Context) float64 {
	if v, ok := ctx.Values["calculatedMonthlyBudget"]; ok {
		return v
	}
	return ctx.Values["revenue"] * (ctx.Values["com"] / constants.PercentageMultiplier)
}

// resolveBudget picks the budget quantity the active period means: the annual
// budget for yearly targets, the computed period budget otherwise.
func resolveBudget(ctx Context) float64 {
	if ctx.Period == constants.PeriodYearly {
		if v, ok := ctx.Values["annualBudget"]; ok {
			return v
		}
		return annualBudget(ctx)
	}
	return periodBudget(ctx)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
