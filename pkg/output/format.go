// Package output provides utilities for formatting and displaying calculated
// targets and monthly plans. Number-to-string formatting lives here only;
// the calculation core never formats.
package output

import (
	"fmt"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/datetime"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable table of the snapshot.
func PrettyFormat(reg *registry.Registry, snap calc.Snapshot) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- %s targets ---\n", snap.Period)
	fmt.Printf("Field                     | Value\n")
	fmt.Printf("_____                     | _____\n")
	for _, field := range reg.Fields(snap.Period) {
		_, _ = p.Printf("%-25s | %s\n", field.Label, formatValue(p, field.Unit, snap.Value(field.ID)))
	}
}

// CsvFormat outputs the snapshot in comma-separated value format.
func CsvFormat(reg *registry.Registry, snap calc.Snapshot) {
	fmt.Printf(`"field","label","value","kind"`)
	fmt.Printf("\n")
	for _, field := range reg.Fields(snap.Period) {
		kind := "input"
		if field.Kind == registry.Calculated {
			kind = "calculated"
		}
		fmt.Printf(`"%s","%s","%.2f","%s"`, field.ID, field.Label, snap.Value(field.ID), kind)
		fmt.Printf("\n")
	}
}

// PrettyAllocation outputs the twelve-month plan with the balance summary.
func PrettyAllocation(months [constants.MonthsPerYear]allocator.MonthAllocation, report allocator.BalanceReport) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Monthly plan ---\n")
	fmt.Printf("Month | Budget        | Leads | Sales | Revenue       | Total CoM%%\n")
	fmt.Printf("_____ | ______        | _____ | _____ | _______       | _________\n")
	for i, m := range months {
		_, _ = p.Printf("%-5s | $%.2f | %.0f | %.0f | $%.2f | %.2f%%\n",
			datetime.MonthLabel(i+1), m.Budget, m.Leads, m.Sales, m.Revenue, m.TotalCom)
	}
	_, _ = p.Printf("Allocated: $%s | Left to allocate: $%s\n",
		report.Allocated.StringFixed(2), report.Remaining.StringFixed(2))
}

// CsvAllocation outputs the plan in comma-separated value format.
func CsvAllocation(months [constants.MonthsPerYear]allocator.MonthAllocation) {
	fmt.Printf(`"month","budget","leads","estimatesSet","estimates","sales","revenue","managementCost","totalCom"`)
	fmt.Printf("\n")
	for i, m := range months {
		fmt.Printf(`"%s","%.2f","%.0f","%.0f","%.0f","%.0f","%.2f","%.2f","%.2f"`,
			datetime.MonthLabel(i+1), m.Budget, m.Leads, m.EstimatesSet, m.Estimates, m.Sales,
			m.Revenue, m.ManagementCost, m.TotalCom)
		fmt.Printf("\n")
	}
}

func formatValue(p *message.Printer, unit registry.Unit, v float64) string {
	switch unit {
	case registry.UnitCurrency:
		return p.Sprintf("$%.2f", v)
	case registry.UnitPercent:
		return p.Sprintf("%.2f%%", v)
	default:
		return p.Sprintf("%.0f", v)
	}
}
