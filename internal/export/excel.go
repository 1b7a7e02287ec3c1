// Package export renders calculated targets and monthly plans as Excel
// workbooks for download.
package export

import (
	"bytes"
	"fmt"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"github.com/fieldserve/marketing-targets/pkg/datetime"
	"github.com/xuri/excelize/v2"
)

const (
	targetsSheet = "Targets"
	planSheet    = "Monthly Plan"
)

// Workbook builds an xlsx workbook containing the target snapshot and, when
// provided, the twelve-month plan.
func Workbook(reg *registry.Registry, snap calc.Snapshot, months *[constants.MonthsPerYear]allocator.MonthAllocation) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", targetsSheet); err != nil {
		return nil, fmt.Errorf("failed to name targets sheet: %w", err)
	}
	if err := writeTargets(f, reg, snap); err != nil {
		return nil, err
	}

	if months != nil {
		if _, err := f.NewSheet(planSheet); err != nil {
			return nil, fmt.Errorf("failed to create plan sheet: %w", err)
		}
		if err := writePlan(f, *months); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WorkbookBytes renders the workbook into an in-memory buffer.
func WorkbookBytes(reg *registry.Registry, snap calc.Snapshot, months *[constants.MonthsPerYear]allocator.MonthAllocation) ([]byte, error) {
	f, err := Workbook(reg, snap, months)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTargets(f *excelize.File, reg *registry.Registry, snap calc.Snapshot) error {
	header := []interface{}{"Field", "Value", "Kind"}
	if err := f.SetSheetRow(targetsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write targets header: %w", err)
	}

	row := 2
	for _, field := range reg.Fields(snap.Period) {
		kind := "input"
		if field.Kind == registry.Calculated {
			kind = "calculated"
		}
		cells := []interface{}{field.Label, snap.Value(field.ID), kind}
		if err := f.SetSheetRow(targetsSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return fmt.Errorf("failed to write field %s: %w", field.ID, err)
		}
		row++
	}

	meta := []interface{}{"Period", string(snap.Period)}
	if err := f.SetSheetRow(targetsSheet, fmt.Sprintf("A%d", row+1), &meta); err != nil {
		return fmt.Errorf("failed to write period row: %w", err)
	}
	return nil
}

func writePlan(f *excelize.File, months [constants.MonthsPerYear]allocator.MonthAllocation) error {
	header := []interface{}{
		"Month", "Budget", "Leads", "Estimates Set", "Estimates", "Sales",
		"Revenue", "Avg Job Size", "CoM %", "Management Cost", "Total CoM %",
	}
	if err := f.SetSheetRow(planSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write plan header: %w", err)
	}

	var totalBudget, totalLeads, totalRevenue float64
	for i, m := range months {
		cells := []interface{}{
			datetime.MonthLabel(i + 1), m.Budget, m.Leads, m.EstimatesSet, m.Estimates,
			m.Sales, m.Revenue, m.AvgJobSize, m.Com, m.ManagementCost, m.TotalCom,
		}
		if err := f.SetSheetRow(planSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return fmt.Errorf("failed to write month %d: %w", i+1, err)
		}
		totalBudget += m.Budget
		totalLeads += m.Leads
		totalRevenue += m.Revenue
	}

	totals := []interface{}{"Total", totalBudget, totalLeads, "", "", "", totalRevenue}
	if err := f.SetSheetRow(planSheet, fmt.Sprintf("A%d", constants.MonthsPerYear+2), &totals); err != nil {
		return fmt.Errorf("failed to write totals row: %w", err)
	}
	return nil
}
