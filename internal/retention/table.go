// Package retention decides which snapshots of a target to keep and which
// to delete. Rules pair a minimum age with a minimum spacing; sorted by age
// they form a tier table in which higher tiers govern older snapshots and
// demand wider spacing between the ones that are kept.
package retention

import (
	"sort"
	"time"
)

// Rule requires snapshots at least MinAge old to sit at least MinSpacing
// apart from their retained neighbors.
type Rule struct {
	MinAge     time.Duration
	MinSpacing time.Duration
}

// Table is an ordered rule list, ascending by MinAge. A rule's index is its
// tier; tier 0 governs the youngest snapshots eligible for thinning.
type Table struct {
	rules []Rule
}

// NoTier marks a snapshot younger than every rule threshold. Such snapshots
// are never considered for deletion.
const NoTier = -1

// NewTable builds a table from an age -> spacing mapping.
func NewTable(spacings map[time.Duration]time.Duration) Table {
	rules := make([]Rule, 0, len(spacings))
	for age, spacing := range spacings {
		rules = append(rules, Rule{MinAge: age, MinSpacing: spacing})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].MinAge < rules[j].MinAge
	})
	return Table{rules: rules}
}

func (t Table) Len() int { return len(t.rules) }

func (t Table) Rule(tier int) Rule { return t.rules[tier] }

// AssignTier returns the largest tier whose MinAge the given age has
// reached, or NoTier if the age is below every threshold. An empty table
// assigns NoTier to everything, so nothing is ever deleted.
func (t Table) AssignTier(age time.Duration) int {
	tier := NoTier
	for i, r := range t.rules {
		if r.MinAge > age {
			break
		}
		tier = i
	}
	return tier
}
