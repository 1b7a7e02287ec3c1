package calc

import (
	"testing"

	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func snapshotWith(values map[string]float64) Snapshot {
	return Snapshot{Values: values, Period: constants.PeriodMonthly, DaysInPeriod: 30}
}

func TestHighlightSuppressedBeforeFirstEdit(t *testing.T) {
	var h Highlighter

	a := snapshotWith(map[string]float64{"leads": 80, "sales": 10})
	b := snapshotWith(map[string]float64{"leads": 90, "sales": 10})

	if h.Highlighted("leads", a, a) {
		t.Error("identical snapshots highlighted before any edit")
	}
	if h.Highlighted("leads", a, b) {
		t.Error("differing snapshots highlighted before any edit")
	}
	if changed := h.Changed(a, b); changed != nil {
		t.Errorf("Changed before edit = %v, want nil", changed)
	}
}

func TestHighlightAfterEdit(t *testing.T) {
	var h Highlighter
	h.MarkEdited()

	prev := snapshotWith(map[string]float64{"leads": 80, "sales": 10, "budget": 5000})
	curr := snapshotWith(map[string]float64{"leads": 90, "sales": 10, "budget": 5000})

	if !h.Highlighted("leads", prev, curr) {
		t.Error("changed field not highlighted after edit")
	}
	if h.Highlighted("sales", prev, curr) {
		t.Error("unchanged field highlighted")
	}
	if h.Highlighted("budget", prev, curr) {
		t.Error("unchanged field highlighted")
	}

	changed := h.Changed(prev, curr)
	if len(changed) != 1 || changed[0] != "leads" {
		t.Errorf("Changed = %v, want [leads]", changed)
	}
}

func TestHighlightIdenticalSnapshotsAfterEdit(t *testing.T) {
	var h Highlighter
	h.MarkEdited()

	snap := snapshotWith(map[string]float64{"leads": 80})
	if h.Highlighted("leads", snap, snap) {
		t.Error("identical snapshots must never highlight")
	}
}
