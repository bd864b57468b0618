package retention

import (
	"log/slog"
	"sort"
	"time"
)

// Entry is one existing snapshot. ID is an opaque handle the engine only
// compares and hands back; the catalog happens to use filesystem paths.
type Entry struct {
	Timestamp time.Time
	ID        string
	Age       time.Duration
	Tier      int
}

// Engine evaluates a set of snapshot entries against a tier table.
type Engine struct {
	table Table
	log   *slog.Logger
}

func NewEngine(table Table, log *slog.Logger) *Engine {
	return &Engine{table: table, log: log}
}

// Plan returns the set of entry IDs to delete. The input is not mutated.
//
// Entries are sorted newest first and each tier is swept in ascending
// order, walking the list with a single anchor: the last entry confirmed
// adequately spaced. An entry too close to both the anchor and its next
// older neighbor is dropped, but only when the tier being swept is the one
// that actually governs it; a finer tier's decision to keep an entry is
// never overridden by a coarser sweep. Because tiers are ascending in age,
// a sweep stops at the first entry beyond its tier.
func (e *Engine) Plan(entries []Entry) map[string]struct{} {
	doomed := make(map[string]struct{})
	if len(entries) < 2 || e.table.Len() == 0 {
		return doomed
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	for i := range sorted {
		sorted[i].Tier = e.table.AssignTier(sorted[i].Age)
	}

	for tier := 0; tier < e.table.Len(); tier++ {
		rule := e.table.Rule(tier)
		e.log.Debug("sweeping tier",
			"tier", tier, "minAge", rule.MinAge, "minSpacing", rule.MinSpacing)

		anchor := sorted[0]
		for i := 1; i+1 < len(sorted); i++ {
			current, older := sorted[i], sorted[i+1]
			if current.Tier > tier {
				break
			}

			// The wider of the gap back to the anchor and the gap down to
			// the next older entry. An entry bridging two far-apart
			// neighbors stays even if one side is close.
			spacing := max(
				anchor.Timestamp.Sub(current.Timestamp),
				current.Timestamp.Sub(older.Timestamp),
			)

			if spacing < rule.MinSpacing {
				if current.Tier == tier {
					doomed[current.ID] = struct{}{}
					e.log.Debug("dropping snapshot",
						"id", current.ID,
						"spacing", spacing,
						"required", rule.MinSpacing,
						"anchor", anchor.Timestamp)
				}
			} else {
				anchor = current
			}
		}
	}

	return doomed
}
