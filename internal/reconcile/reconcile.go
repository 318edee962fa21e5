// Package reconcile merges imported entity batches into an existing
// collection. Merging is keyed by id and an incoming record always replaces
// the existing one: an import is an intentional overwrite, not a timestamp
// race. The merged collection is re-sorted by updatedAt descending so the
// most recently touched records surface first regardless of origin.
package reconcile

import (
	"sort"
	"time"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// Characters merges incoming (already normalized) into existing.
// Neither input slice is mutated.
func Characters(existing, incoming []models.Character) []models.Character {
	merged := make([]models.Character, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, c := range merged {
		index[c.ID] = i
	}
	for _, in := range incoming {
		if at, ok := index[in.ID]; ok {
			merged[at] = in
			continue
		}
		index[in.ID] = len(merged)
		merged = append(merged, in)
	}

	SortByUpdatedAt(merged)
	return merged
}

// SortByUpdatedAt orders characters newest-first. Records with unparseable
// timestamps sink to the end; ties keep their relative order.
func SortByUpdatedAt(cs []models.Character) {
	sort.SliceStable(cs, func(i, j int) bool {
		return parseTime(cs[i].UpdatedAt).After(parseTime(cs[j].UpdatedAt))
	})
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
