package calc

// Highlighter tracks whether any input edit has happened and diffs snapshots
// so the UI can emphasize the derived fields an edit actually changed. It is
// purely a presentation affordance and never alters stored values.
type Highlighter struct {
	edited bool
}

// MarkEdited records that at least one input edit has occurred. Before the
// first edit nothing highlights, including on the initial render.
func (h *Highlighter) MarkEdited() {
	h.edited = true
}

// Highlighted reports whether the field's value differs between the two
// snapshots. Always false until MarkEdited has been called.
func (h *Highlighter) Highlighted(fieldID string, previous, current Snapshot) bool {
	if !h.edited {
		return false
	}
	return previous.Values[fieldID] != current.Values[fieldID]
}

// Changed lists every field whose value differs between the snapshots, in no
// particular order. Empty until MarkEdited has been called.
func (h *Highlighter) Changed(previous, current Snapshot) []string {
	if !h.edited {
		return nil
	}
	var changed []string
	for id, v := range current.Values {
		if prev, ok := previous.Values[id]; !ok || prev != v {
			changed = append(changed, id)
		}
	}
	for id := range previous.Values {
		if _, ok := current.Values[id]; !ok {
			changed = append(changed, id)
		}
	}
	return changed
}
