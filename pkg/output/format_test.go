package output

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fieldserve/marketing-targets/internal/allocator"
	"github.com/fieldserve/marketing-targets/internal/calc"
	"github.com/fieldserve/marketing-targets/internal/registry"
	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func testSnapshot(t *testing.T) calc.Snapshot {
	t.Helper()
	calculator := calc.New(registry.New(), nil)
	snap, err := calculator.CalculateAll(map[string]float64{
		"revenue":         120000,
		"avgJobSize":      5000,
		"closeRate":       50,
		"showRate":        50,
		"appointmentRate": 50,
		"com":             10,
	}, 365, constants.PeriodYearly)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func TestPrettyFormat(t *testing.T) {
	reg := registry.New()
	snap := testSnapshot(t)

	got := captureStdout(t, func() { PrettyFormat(reg, snap) })

	if !strings.Contains(got, "--- yearly targets ---") {
		t.Error("missing period header")
	}
	if !strings.Contains(got, "Annual Budget") {
		t.Error("missing annual budget row")
	}
	if !strings.Contains(got, "$12,000.00") {
		t.Error("missing formatted currency value")
	}
	if !strings.Contains(got, "Leads") {
		t.Error("missing leads row")
	}
}

func TestCsvFormat(t *testing.T) {
	reg := registry.New()
	snap := testSnapshot(t)

	got := captureStdout(t, func() { CsvFormat(reg, snap) })

	if !strings.Contains(got, `"field","label","value","kind"`) {
		t.Error("missing CSV header")
	}
	if !strings.Contains(got, `"leads"`) {
		t.Error("missing leads row")
	}
	if !strings.Contains(got, `"calculated"`) {
		t.Error("missing calculated kind")
	}
}

func TestPrettyAllocation(t *testing.T) {
	snap := testSnapshot(t)
	a := allocator.New(snap, nil)

	var actuals [constants.MonthsPerYear]allocator.MonthActuals
	for i := range actuals {
		actuals[i] = allocator.MonthActuals{Revenue: 10000, HasData: true}
	}
	a.ApplyActuals(actuals)

	got := captureStdout(t, func() { PrettyAllocation(a.Months(), a.Balance()) })

	if !strings.Contains(got, "Jan") || !strings.Contains(got, "Dec") {
		t.Error("missing month rows")
	}
	if !strings.Contains(got, "Left to allocate: $0.00") {
		t.Errorf("missing balance line in output:\n%s", got)
	}
}

func TestCsvAllocation(t *testing.T) {
	snap := testSnapshot(t)
	a := allocator.New(snap, nil)

	got := captureStdout(t, func() { CsvAllocation(a.Months()) })

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != constants.MonthsPerYear+1 {
		t.Fatalf("got %d lines, want %d", len(lines), constants.MonthsPerYear+1)
	}
	if !strings.HasPrefix(lines[1], `"Jan"`) {
		t.Errorf("first data row = %s", lines[1])
	}
}
