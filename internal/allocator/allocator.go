// Package allocator spreads one fully calculated annual target across twelve
// months. Three allocation strategies exist: no data yet (everything zero),
// revenue-weighted from externally supplied monthly actuals, and user-edited
// budgets. Once the operator edits any month the allocator stays in the
// user-edited mode until explicitly reset, even if fresh actuals arrive.
package allocator

import (
	"fmt"

	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/fees"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mode identifies the active allocation strategy.
type Mode int

const (
	ModeUninitialized Mode = iota
	ModeRevenueWeighted
	ModeUserEdited
)

func (m Mode) String() string {
	switch m {
	case ModeRevenueWeighted:
		return "revenueWeighted"
	case ModeUserEdited:
		return "userEdited"
	default:
		return "uninitialized"
	}
}

// WeeklyActual is one weekly record from the external actual-data source.
// Only revenue participates in allocation; the other rates ride along for
// callers that display them.
type WeeklyActual struct {
	Revenue         float64 `json:"revenue"`
	AvgJobSize      float64 `json:"avgJobSize,omitempty"`
	AppointmentRate float64 `json:"appointmentRate,omitempty"`
	ShowRate        float64 `json:"showRate,omitempty"`
	CloseRate       float64 `json:"closeRate,omitempty"`
	Com             float64 `json:"com,omitempty"`
}

// MonthActuals is the per-month aggregate of the weekly records.
type MonthActuals struct {
	Revenue float64
	HasData bool
}

// AggregateActuals folds the external source's shape (exactly 12 entries,
// Jan..Dec, each empty or a list of weekly records) into monthly totals.
func AggregateActuals(weeks [constants.MonthsPerYear][]WeeklyActual) [constants.MonthsPerYear]MonthActuals {
	var months [constants.MonthsPerYear]MonthActuals
	for i, records := range weeks {
		months[i].HasData = len(records) > 0
		for _, record := range records {
			months[i].Revenue += mathutil.Finite(record.Revenue)
		}
	}
	return months
}

// MonthAllocation is one month's breakdown of the annual target. AvgJobSize
// and Com are rates, not totals, so they mirror the annual inputs instead of
// being apportioned.
type MonthAllocation struct {
	Budget         float64 `json:"budget"`
	Leads          float64 `json:"leads"`
	EstimatesSet   float64 `json:"estimatesSet"`
	Estimates      float64 `json:"estimates"`
	Sales          float64 `json:"sales"`
	Revenue        float64 `json:"revenue"`
	AvgJobSize     float64 `json:"avgJobSize"`
	Com            float64 `json:"com"`
	ManagementCost float64 `json:"managementCost"`
	TotalCom       float64 `json:"totalCom"`
}

// BalanceReport compares the allocated monthly budgets against the annual
// budget in exact cents. A caller must refuse to persist while Remaining is
// non-zero and surface the amount to the operator.
type BalanceReport struct {
	Annual    decimal.Decimal
	Allocated decimal.Decimal
	Remaining decimal.Decimal
	Balanced  bool
}

// Allocator holds one annual snapshot and the allocation state for an editing
// session. It is not safe for concurrent use; each session owns its own.
type Allocator struct {
	annual  calc.Snapshot
	logger  *zap.Logger
	mode    Mode
	actuals [constants.MonthsPerYear]MonthActuals
	budgets [constants.MonthsPerYear]float64 // user-edited mode only
}

// New builds an allocator for a calculated yearly snapshot.
func New(annual calc.Snapshot, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{annual: annual, logger: logger}
}

// Mode returns the active allocation strategy.
func (a *Allocator) Mode() Mode {
	return a.mode
}

// SetAnnual replaces the annual snapshot, e.g. after the operator changes an
// annual input. Allocation state and mode are preserved.
func (a *Allocator) SetAnnual(annual calc.Snapshot) {
	a.annual = annual
}

// ApplyActuals stores externally supplied monthly actuals. Unless the
// operator has already edited a budget, this switches the allocator into
// revenue-weighted mode (or back to uninitialized when the actuals carry no
// revenue). In user-edited mode the actuals are recorded but do not change
// the strategy.
func (a *Allocator) ApplyActuals(actuals [constants.MonthsPerYear]MonthActuals) {
	a.actuals = actuals
	if a.mode == ModeUserEdited {
		a.logger.Debug("actuals received while user-edited, keeping mode",
			zap.String("op", "allocator.ApplyActuals"),
		)
		return
	}
	a.mode = a.modeFromActuals()
}

// SetMonthBudget records the operator's budget figure for one month (0 =
// January) and enters user-edited mode. The value is taken verbatim, clamped
// to be non-negative; all other months keep their last-known budget.
func (a *Allocator) SetMonthBudget(month int, budget float64) error {
	if month < 0 || month >= constants.MonthsPerYear {
		return fmt.Errorf("month index %d out of range", month)
	}

	if a.mode != ModeUserEdited {
		// Freeze the currently displayed budgets so untouched months keep
		// their figures across the mode transition.
		months := a.Months()
		for i := range months {
			a.budgets[i] = months[i].Budget
		}
		a.mode = ModeUserEdited
	}

	budget = mathutil.Finite(budget)
	if budget < 0 {
		budget = 0
	}
	a.budgets[month] = budget
	return nil
}

// Reset discards any user edits and re-derives the mode from the stored
// actuals. This is the only way out of user-edited mode.
func (a *Allocator) Reset() {
	a.budgets = [constants.MonthsPerYear]float64{}
	a.mode = a.modeFromActuals()
}

// Months produces the twelve monthly breakdowns under the active strategy.
// The result is recomputed in full on every call; it is never patched.
func (a *Allocator) Months() [constants.MonthsPerYear]MonthAllocation {
	annualBudget := a.annualBudget()
	weights := a.weights(annualBudget)
	budgets := a.monthBudgets(annualBudget, weights)

	avgJobSize := a.annual.Value("avgJobSize")
	com := a.annual.Value("com")

	var months [constants.MonthsPerYear]MonthAllocation
	for i := range months {
		w := weights[i]
		budget := budgets[i]
		mgmt := fees.ManagementCost(budget)
		revenue := a.annual.Value("revenue") * w

		months[i] = MonthAllocation{
			Budget:         budget,
			Leads:          mathutil.RoundCount(a.annual.Value("leads") * w),
			EstimatesSet:   mathutil.RoundCount(a.annual.Value("estimatesSet") * w),
			Estimates:      mathutil.RoundCount(a.annual.Value("estimatesRan") * w),
			Sales:          mathutil.RoundCount(a.annual.Value("sales") * w),
			Revenue:        revenue,
			AvgJobSize:     avgJobSize,
			Com:            com,
			ManagementCost: mgmt,
			TotalCom:       mathutil.CalculatePercentage(budget+mgmt, revenue),
		}
	}
	return months
}

// Balance reports allocated vs remaining budget in exact cents.
func (a *Allocator) Balance() BalanceReport {
	annual := decimal.NewFromFloat(a.annualBudget()).Round(2)
	allocated := decimal.Zero
	for _, m := range a.Months() {
		allocated = allocated.Add(decimal.NewFromFloat(m.Budget).Round(2))
	}
	remaining := annual.Sub(allocated)
	return BalanceReport{
		Annual:    annual,
		Allocated: allocated,
		Remaining: remaining,
		Balanced:  remaining.IsZero(),
	}
}

// Balanced reports whether the allocation may be persisted.
func (a *Allocator) Balanced() bool {
	return a.Balance().Balanced
}

func (a *Allocator) annualBudget() float64 {
	if v, ok := a.annual.Values["annualBudget"]; ok {
		return v
	}
	return a.annual.Value("budget")
}

func (a *Allocator) modeFromActuals() Mode {
	for _, m := range a.actuals {
		if m.Revenue > 0 {
			return ModeRevenueWeighted
		}
	}
	return ModeUninitialized
}

// weights returns each month's share of the annual totals under the active
// strategy. Shares are clamped non-negative; an annual budget of zero makes
// every user-edited weight zero.
func (a *Allocator) weights(annualBudget float64) [constants.MonthsPerYear]float64 {
	var weights [constants.MonthsPerYear]float64

	switch a.mode {
	case ModeRevenueWeighted:
		var total float64
		for _, m := range a.actuals {
			if m.Revenue > 0 {
				total += m.Revenue
			}
		}
		if total <= 0 {
			return weights
		}
		for i, m := range a.actuals {
			if m.Revenue > 0 {
				weights[i] = m.Revenue / total
			}
		}
	case ModeUserEdited:
		if annualBudget <= 0 {
			return weights
		}
		for i, b := range a.budgets {
			if b > 0 {
				weights[i] = b / annualBudget
			}
		}
	}
	return weights
}

// monthBudgets produces the per-month budget figures. In user-edited mode the
// operator's numbers are used verbatim. In the weighted modes each budget is
// the annual budget scaled by the month's share and rounded to cents, with
// the cent residue settled on the last weighted month so the total matches
// the annual budget exactly.
func (a *Allocator) monthBudgets(annualBudget float64, weights [constants.MonthsPerYear]float64) [constants.MonthsPerYear]float64 {
	var budgets [constants.MonthsPerYear]float64

	if a.mode == ModeUserEdited {
		return a.budgets
	}

	last := -1
	for i, w := range weights {
		if w > 0 {
			last = i
		}
	}
	if last < 0 {
		return budgets
	}

	annual := decimal.NewFromFloat(annualBudget).Round(2)
	allocated := decimal.Zero
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		share := annual.Mul(decimal.NewFromFloat(w)).Round(2)
		budgets[i], _ = share.Float64()
		allocated = allocated.Add(share)
	}

	if residue := annual.Sub(allocated); !residue.IsZero() {
		adjusted := decimal.NewFromFloat(budgets[last]).Add(residue)
		budgets[last], _ = adjusted.Float64()
	}
	return budgets
}
