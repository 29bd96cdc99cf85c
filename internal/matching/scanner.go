package matching

import (
	"strings"
	"unicode/utf8"

	"mednerd/internal/types"
)

// ScanDocument returns the entry whose condition name occurs most often in
// text, or nil if none occurs. Equal counts prefer the longer name, then the
// earlier entry.
func ScanDocument(entries []types.ConditionEntry, text string) *types.ConditionEntry {
	text = strings.ToLower(text)

	best := -1
	bestCount := 0
	for i := range entries {
		name := strings.ToLower(entries[i].Condition)
		if name == "" {
			continue
		}
		count := strings.Count(text, name)
		if count == 0 {
			continue
		}
		switch {
		case count > bestCount:
			best, bestCount = i, count
		case count == bestCount &&
			utf8.RuneCountInString(entries[i].Condition) > utf8.RuneCountInString(entries[best].Condition):
			best = i
		}
	}

	if best < 0 {
		return nil
	}
	return entries[best].Clone()
}
