// Package registry declares every marketing-target field: inputs the operator
// edits and calculated fields derived by formula. The declaration order inside
// each group encodes the data dependencies the calculator relies on.
package registry

import (
	"math"
	"strings"

	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/mathutil"
)

// Kind distinguishes operator-entered fields from derived ones.
type Kind int

const (
	Input Kind = iota
	Calculated
)

func (k Kind) String() string {
	if k == Calculated {
		return "calculated"
	}
	return "input"
}

// Unit drives rounding and presentation. Count fields are rounded to whole
// numbers at calculation time; currency and percent fields keep full
// precision until formatting.
type Unit int

const (
	UnitCount Unit = iota
	UnitCurrency
	UnitPercent
)

func (u Unit) String() string {
	switch u {
	case UnitCurrency:
		return "currency"
	case UnitPercent:
		return "percent"
	default:
		return "count"
	}
}

// Group identifies the evaluation group a field belongs to. Groups evaluate
// in declaration order: funnel rates first, then volume/budget, then costs.
type Group int

const (
	GroupFunnel Group = iota
	GroupVolume
	GroupCost
)

func (g Group) String() string {
	switch g {
	case GroupVolume:
		return "volume"
	case GroupCost:
		return "cost"
	default:
		return "funnel"
	}
}

// FieldDefinition describes a single field of the target form.
type FieldDefinition struct {
	ID      string
	Label   string
	Kind    Kind
	Group   Group
	Unit    Unit
	Formula string // Calculated only
	Min     float64
	Max     float64
	Default float64
	Periods []constants.Period
}

// AppliesTo reports whether the field is shown and computed for the period.
func (f FieldDefinition) AppliesTo(period constants.Period) bool {
	for _, p := range f.Periods {
		if p == period {
			return true
		}
	}
	return false
}

var allPeriods = []constants.Period{constants.PeriodWeekly, constants.PeriodMonthly, constants.PeriodYearly}

// Registry holds the ordered field declarations.
type Registry struct {
	fields []FieldDefinition
	byID   map[string]int
}

// New builds the standard marketing-target registry.
func New() *Registry {
	unbounded := math.MaxFloat64

	fields := []FieldDefinition{
		// Funnel-rate group.
		{ID: "appointmentRate", Label: "Appointment Rate", Kind: Input, Group: GroupFunnel, Unit: UnitPercent,
			Min: 0, Max: 100, Periods: allPeriods},
		{ID: "showRate", Label: "Show Rate", Kind: Input, Group: GroupFunnel, Unit: UnitPercent,
			Min: 0, Max: 100, Periods: allPeriods},
		{ID: "closeRate", Label: "Close Rate", Kind: Input, Group: GroupFunnel, Unit: UnitPercent,
			Min: 0, Max: 100, Periods: allPeriods},
		{ID: "leadToSaleRate", Label: "Lead to Sale Rate", Kind: Calculated, Group: GroupFunnel, Unit: UnitPercent,
			Formula: "(appointmentRate / 100) * (showRate / 100) * (closeRate / 100) * 100", Periods: allPeriods},

		// Volume/budget group. Each step consumes the previous step's freshly
		// computed value, so the order here is load-bearing.
		{ID: "revenue", Label: "Revenue", Kind: Input, Group: GroupVolume, Unit: UnitCurrency,
			Min: 0, Max: unbounded, Periods: allPeriods},
		{ID: "avgJobSize", Label: "Average Job Size", Kind: Input, Group: GroupVolume, Unit: UnitCurrency,
			Min: 0, Max: unbounded, Periods: allPeriods},
		{ID: "com", Label: "Cost of Marketing %", Kind: Input, Group: GroupVolume, Unit: UnitPercent,
			Min: 0, Max: 100, Periods: allPeriods},
		{ID: "sales", Label: "Booked Jobs", Kind: Calculated, Group: GroupVolume, Unit: UnitCount,
			Formula: "revenue / avgJobSize", Periods: allPeriods},
		{ID: "estimatesRan", Label: "Estimates Ran", Kind: Calculated, Group: GroupVolume, Unit: UnitCount,
			Formula: "sales / (closeRate / 100)", Periods: allPeriods},
		{ID: "estimatesSet", Label: "Estimates Set", Kind: Calculated, Group: GroupVolume, Unit: UnitCount,
			Formula: "estimatesRan / (showRate / 100)", Periods: allPeriods},
		{ID: "leads", Label: "Leads", Kind: Calculated, Group: GroupVolume, Unit: UnitCount,
			Formula: "estimatesSet / (appointmentRate / 100)", Periods: allPeriods},
		{ID: "annualBudget", Label: "Annual Budget", Kind: Calculated, Group: GroupVolume, Unit: UnitCurrency,
			Formula: "revenue * (com / 100)", Periods: []constants.Period{constants.PeriodYearly}},
		{ID: "calculatedMonthlyBudget", Label: "Monthly Budget", Kind: Calculated, Group: GroupVolume, Unit: UnitCurrency,
			Formula: "revenue * (com / 100)", Periods: allPeriods},
		{ID: "budget", Label: "Budget", Kind: Calculated, Group: GroupVolume, Unit: UnitCurrency,
			Formula: "calculatedMonthlyBudget", Periods: allPeriods},
		{ID: "dailyBudget", Label: "Daily Budget", Kind: Calculated, Group: GroupVolume, Unit: UnitCurrency,
			Formula: "budget / daysInPeriod",
			Periods: []constants.Period{constants.PeriodWeekly, constants.PeriodMonthly}},

		// Cost/target group. Straightforward ratios against the resolved budget.
		{ID: "managementCost", Label: "Management Cost", Kind: Calculated, Group: GroupCost, Unit: UnitCurrency,
			Formula: "managementCost(budget)", Periods: allPeriods},
		{ID: "costPerLead", Label: "Cost per Lead", Kind: Calculated, Group: GroupCost, Unit: UnitCurrency,
			Formula: "budget / leads", Periods: allPeriods},
		{ID: "costPerAppointment", Label: "Cost per Appointment", Kind: Calculated, Group: GroupCost, Unit: UnitCurrency,
			Formula: "budget / estimatesSet", Periods: allPeriods},
		{ID: "costPerJob", Label: "Cost per Booked Job", Kind: Calculated, Group: GroupCost, Unit: UnitCurrency,
			Formula: "budget / sales", Periods: allPeriods},
		{ID: "totalCom", Label: "Total Cost of Marketing %", Kind: Calculated, Group: GroupCost, Unit: UnitPercent,
			Formula: "((budget + managementCost) / revenue) * 100", Periods: allPeriods},
	}

	byID := make(map[string]int, len(fields))
	for i, f := range fields {
		byID[f.ID] = i
	}

	return &Registry{fields: fields, byID: byID}
}

// Fields returns the ordered field definitions applicable to the period.
func (r *Registry) Fields(period constants.Period) []FieldDefinition {
	result := make([]FieldDefinition, 0, len(r.fields))
	for _, f := range r.fields {
		if f.AppliesTo(period) {
			result = append(result, f)
		}
	}
	return result
}

// Inputs returns the operator-editable fields applicable to the period.
func (r *Registry) Inputs(period constants.Period) []FieldDefinition {
	result := make([]FieldDefinition, 0, len(r.fields))
	for _, f := range r.fields {
		if f.Kind == Input && f.AppliesTo(period) {
			result = append(result, f)
		}
	}
	return result
}

// Calculated returns the derived fields applicable to the period, in
// evaluation order.
func (r *Registry) Calculated(period constants.Period) []FieldDefinition {
	result := make([]FieldDefinition, 0, len(r.fields))
	for _, f := range r.fields {
		if f.Kind == Calculated && f.AppliesTo(period) {
			result = append(result, f)
		}
	}
	return result
}

// Definition looks up a field by id.
func (r *Registry) Definition(id string) (FieldDefinition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return FieldDefinition{}, false
	}
	return r.fields[i], true
}

// Defaults returns the seed value map: every Input field at its default.
func (r *Registry) Defaults() map[string]float64 {
	values := make(map[string]float64)
	for _, f := range r.fields {
		if f.Kind == Input {
			values[f.ID] = f.Default
		}
	}
	return values
}

// ClampInputs builds a clean input map for the period: defaults overlaid with
// the provided values, each forced finite and clamped to the field's bounds.
// Unknown keys and non-input fields in the provided map are dropped. Keys are
// matched case-insensitively because viper lowercases map keys on load.
func (r *Registry) ClampInputs(provided map[string]float64, period constants.Period) map[string]float64 {
	byLower := make(map[string]float64, len(provided))
	for key, raw := range provided {
		byLower[strings.ToLower(key)] = raw
	}

	values := make(map[string]float64)
	for _, f := range r.Inputs(period) {
		v := f.Default
		if raw, ok := byLower[strings.ToLower(f.ID)]; ok {
			v = mathutil.Finite(raw)
		}
		values[f.ID] = mathutil.Clamp(v, f.Min, f.Max)
	}
	return values
}
