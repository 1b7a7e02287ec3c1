package calc

import (
	"math"
	"testing"

	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func newCalculator() *Calculator {
	return New(registry.New(), nil)
}

func TestDependencyChain(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue":         50000,
		"avgJobSize":      5000,
		"closeRate":       50,
		"showRate":        50,
		"appointmentRate": 50,
		"com":             10,
	}

	snap, err := calc.CalculateAll(inputs, 31, constants.PeriodMonthly)
	if err != nil {
		t.Fatalf("CalculateAll error: %v", err)
	}

	// Each successive value must use the already updated prior value.
	expected := map[string]float64{
		"sales":        10,
		"estimatesRan": 20,
		"estimatesSet": 40,
		"leads":        80,
	}
	for id, want := range expected {
		if got := snap.Value(id); got != want {
			t.Errorf("%s = %v, want %v", id, got, want)
		}
	}
}

func TestBudgetPeriodSensitivity(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue":         100000,
		"avgJobSize":      5000,
		"closeRate":       50,
		"showRate":        50,
		"appointmentRate": 50,
		"com":             10,
	}

	yearly, err := calc.CalculateAll(inputs, 365, constants.PeriodYearly)
	if err != nil {
		t.Fatalf("yearly pass error: %v", err)
	}
	if got := yearly.Value("annualBudget"); got != 10000 {
		t.Errorf("annualBudget = %v, want 10000", got)
	}
	if got := yearly.Value("budget"); got != 10000 {
		t.Errorf("yearly budget = %v, want 10000", got)
	}

	monthly, err := calc.CalculateAll(inputs, 31, constants.PeriodMonthly)
	if err != nil {
		t.Fatalf("monthly pass error: %v", err)
	}
	if got := monthly.Value("budget"); got != 10000 {
		t.Errorf("monthly budget = %v, want 10000", got)
	}
	if _, ok := monthly.Values["annualBudget"]; ok {
		t.Error("annualBudget must not be computed for monthly periods")
	}

	// Alternating periods over the same inputs must not cross-contaminate.
	yearlyAgain, err := calc.CalculateAll(inputs, 365, constants.PeriodYearly)
	if err != nil {
		t.Fatalf("second yearly pass error: %v", err)
	}
	if got := yearlyAgain.Value("budget"); got != 10000 {
		t.Errorf("yearly budget after alternation = %v, want 10000", got)
	}
}

func TestCostGroup(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue":         50000,
		"avgJobSize":      5000,
		"closeRate":       50,
		"showRate":        50,
		"appointmentRate": 50,
		"com":             10,
	}

	snap, err := calc.CalculateAll(inputs, 31, constants.PeriodMonthly)
	if err != nil {
		t.Fatalf("CalculateAll error: %v", err)
	}

	// budget = 50000 * 10% = 5000
	if got := snap.Value("budget"); got != 5000 {
		t.Fatalf("budget = %v, want 5000", got)
	}
	if got := snap.Value("managementCost"); got != 2000 {
		t.Errorf("managementCost = %v, want 2000", got)
	}
	if got := snap.Value("costPerLead"); got != 62.5 {
		t.Errorf("costPerLead = %v, want 62.5", got)
	}
	if got := snap.Value("costPerAppointment"); got != 125 {
		t.Errorf("costPerAppointment = %v, want 125", got)
	}
	if got := snap.Value("costPerJob"); got != 500 {
		t.Errorf("costPerJob = %v, want 500", got)
	}
	if got := snap.Value("totalCom"); got != 14 {
		t.Errorf("totalCom = %v, want 14", got)
	}
}

func TestDailyBudget(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue": 31000,
		"com":     10,
	}

	monthly, err := calc.CalculateAll(inputs, 31, constants.PeriodMonthly)
	if err != nil {
		t.Fatalf("monthly pass error: %v", err)
	}
	if got := monthly.Value("dailyBudget"); got != 100 {
		t.Errorf("monthly dailyBudget = %v, want 100", got)
	}

	weekly, err := calc.CalculateAll(map[string]float64{"revenue": 7000, "com": 10}, 7, constants.PeriodWeekly)
	if err != nil {
		t.Fatalf("weekly pass error: %v", err)
	}
	if got := weekly.Value("dailyBudget"); got != 100 {
		t.Errorf("weekly dailyBudget = %v, want 100", got)
	}
}

func TestNoNaNLeakage(t *testing.T) {
	calc := newCalculator()

	cases := []map[string]float64{
		{},
		{"revenue": 0, "com": 0},
		{"revenue": 0, "avgJobSize": 0, "closeRate": 0, "showRate": 0, "appointmentRate": 0, "com": 0},
		{"revenue": 100000, "avgJobSize": 0, "closeRate": 0, "showRate": 0, "appointmentRate": 0, "com": 100},
		{"revenue": math.NaN(), "avgJobSize": math.Inf(1)},
	}

	for _, period := range []constants.Period{constants.PeriodWeekly, constants.PeriodMonthly, constants.PeriodYearly} {
		for i, inputs := range cases {
			snap, err := calc.CalculateAll(inputs, 30, period)
			if err != nil {
				t.Fatalf("case %d period %s: %v", i, period, err)
			}
			for id, v := range snap.Values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("case %d period %s: field %s is non-finite (%v)", i, period, id, v)
				}
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue":         123456.78,
		"avgJobSize":      4321,
		"closeRate":       37,
		"showRate":        61,
		"appointmentRate": 73,
		"com":             12.5,
	}

	first, err := calc.CalculateAll(inputs, 30, constants.PeriodYearly)
	if err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	second, err := calc.CalculateAll(inputs, 30, constants.PeriodYearly)
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}

	if len(first.Values) != len(second.Values) {
		t.Fatalf("pass sizes differ: %d vs %d", len(first.Values), len(second.Values))
	}
	for id, v := range first.Values {
		if second.Values[id] != v {
			t.Errorf("field %s differs across passes: %v vs %v", id, v, second.Values[id])
		}
	}
}

func TestCountFieldsRounded(t *testing.T) {
	calc := newCalculator()

	inputs := map[string]float64{
		"revenue":         10000,
		"avgJobSize":      3000,
		"closeRate":       33,
		"showRate":        66,
		"appointmentRate": 50,
		"com":             10,
	}

	snap, err := calc.CalculateAll(inputs, 30, constants.PeriodMonthly)
	if err != nil {
		t.Fatalf("CalculateAll error: %v", err)
	}

	for _, id := range []string{"sales", "estimatesRan", "estimatesSet", "leads"} {
		v := snap.Value(id)
		if v != math.Trunc(v) {
			t.Errorf("%s = %v, want a whole number", id, v)
		}
	}
}
