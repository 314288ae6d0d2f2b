package watch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// ChangeKind classifies a single detection change between two versions
// of a record.
type ChangeKind string

const (
	// ChangeAdded marks a detection ID present only in the new record.
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved marks a detection ID present only in the old record.
	ChangeRemoved ChangeKind = "removed"
	// ChangeMoved marks a detection whose bounding box changed.
	ChangeMoved ChangeKind = "moved"
	// ChangeRetyped marks a detection whose type label changed.
	ChangeRetyped ChangeKind = "retyped"
)

// DetectionChange describes one difference between two detection sets.
type DetectionChange struct {
	Kind ChangeKind
	ID   int
	Type string
}

// DetectionDiff compares two detection lists keyed by detection ID and
// returns the changes sorted by ID. A detection that both moved and
// changed type yields two entries.
func DetectionDiff(prev, curr []annotation.Detection) []DetectionChange {
	prevByID := make(map[int]annotation.Detection, len(prev))
	for _, d := range prev {
		prevByID[d.ID] = d
	}

	currByID := make(map[int]annotation.Detection, len(curr))
	for _, d := range curr {
		currByID[d.ID] = d
	}

	var changes []DetectionChange

	for id, d := range currByID {
		old, ok := prevByID[id]
		if !ok {
			changes = append(changes, DetectionChange{Kind: ChangeAdded, ID: id, Type: d.Type})
			continue
		}

		if old.BBox != d.BBox {
			changes = append(changes, DetectionChange{Kind: ChangeMoved, ID: id, Type: d.Type})
		}

		if old.Type != d.Type {
			changes = append(changes, DetectionChange{Kind: ChangeRetyped, ID: id, Type: d.Type})
		}
	}

	for id, d := range prevByID {
		if _, ok := currByID[id]; !ok {
			changes = append(changes, DetectionChange{Kind: ChangeRemoved, ID: id, Type: d.Type})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].ID != changes[j].ID {
			return changes[i].ID < changes[j].ID
		}

		return changes[i].Kind < changes[j].Kind
	})

	return changes
}

// DetectionDiffSummary renders changes as a compact one-line summary,
// e.g. "+1 scratch, #2 moved, -3 dent".
func DetectionDiffSummary(changes []DetectionChange) string {
	parts := make([]string, 0, len(changes))

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			parts = append(parts, fmt.Sprintf("+%d %s", c.ID, c.Type))
		case ChangeRemoved:
			parts = append(parts, fmt.Sprintf("-%d %s", c.ID, c.Type))
		case ChangeMoved:
			parts = append(parts, fmt.Sprintf("#%d moved", c.ID))
		case ChangeRetyped:
			parts = append(parts, fmt.Sprintf("#%d now %s", c.ID, c.Type))
		}
	}

	return strings.Join(parts, ", ")
}
