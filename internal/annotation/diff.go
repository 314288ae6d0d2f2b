package annotation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders a unified text diff between two record states.
// Used by the watcher's debug output to show what an external edit
// actually changed.
func UnifiedDiff(prev, curr *Record) (string, error) {
	prevJSON, err := json.MarshalIndent(prev, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding previous record: %w", err)
	}

	currJSON, err := json.MarshalIndent(curr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding current record: %w", err)
	}

	diff := difflib.UnifiedDiff{
		A:        splitLines(string(prevJSON)),
		B:        splitLines(string(currJSON)),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("computing diff: %w", err)
	}

	return unified, nil
}

// splitLines splits a string into lines for diff processing. Each
// element keeps its trailing newline for difflib compatibility.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
