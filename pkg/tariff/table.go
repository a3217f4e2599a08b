package tariff

import (
	"sort"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// Table is an in-memory tariff rule table with a precomputed
// (tariff, day type, hour) lookup. The rule scan happens once at build time;
// every Resolve afterwards is a map/array access.
//
// Rule sets are not validated: overlapping rules resolve to the first rule in
// table order, and uncovered hours resolve to no zone at all.
type Table struct {
	rules map[string][]types.TariffRule
	names []string

	// hours[tariff][dayType][hour] is the zone active at that hour, nil when
	// no rule covers it. Only weekday and weekend are keyed; "all"-only
	// tariffs have their rules expanded into both.
	hours map[string]map[types.DayType][24]*types.ZonePrice
}

// NewTable builds the lookup table from the given rules. Rule order matters:
// when rules overlap, the earliest rule wins an hour.
func NewTable(rules []types.TariffRule) *Table {
	t := &Table{
		rules: make(map[string][]types.TariffRule),
		hours: make(map[string]map[types.DayType][24]*types.ZonePrice),
	}
	for _, r := range rules {
		if _, ok := t.rules[r.Tariff]; !ok {
			t.names = append(t.names, r.Tariff)
		}
		t.rules[r.Tariff] = append(t.rules[r.Tariff], r)
	}
	sort.Strings(t.names)

	for name, tariffRules := range t.rules {
		allOnly := true
		for _, r := range tariffRules {
			if r.DayType != types.DayTypeAll {
				allOnly = false
				break
			}
		}

		byDay := make(map[types.DayType][24]*types.ZonePrice, 2)
		for _, dayType := range []types.DayType{types.DayTypeWeekday, types.DayTypeWeekend} {
			var slots [24]*types.ZonePrice
			for _, r := range tariffRules {
				// A tariff that discriminates by day type never falls back to
				// its "all" rules; they only apply when the whole tariff is
				// day-type agnostic.
				if allOnly {
					if r.DayType != types.DayTypeAll {
						continue
					}
				} else if r.DayType != dayType {
					continue
				}
				zp := &types.ZonePrice{
					Zone:                  r.Zone,
					EnergyPLNPerKWH:       r.EnergyPLNPerKWH,
					DistributionPLNPerKWH: r.DistributionPLNPerKWH,
				}
				for _, h := range ruleHours(r) {
					if slots[h] == nil {
						slots[h] = zp
					}
				}
			}
			byDay[dayType] = slots
		}
		t.hours[name] = byDay
	}

	return t
}

// ruleHours expands a rule's hour window, wrapping past midnight when
// HourStart > HourEnd. A zero-width window yields no hours.
func ruleHours(r types.TariffRule) []int {
	switch {
	case r.HourStart < r.HourEnd:
		hours := make([]int, 0, r.HourEnd-r.HourStart)
		for h := r.HourStart; h < r.HourEnd && h < 24; h++ {
			if h >= 0 {
				hours = append(hours, h)
			}
		}
		return hours
	case r.HourStart > r.HourEnd:
		var hours []int
		for h := r.HourStart; h < 24; h++ {
			if h >= 0 {
				hours = append(hours, h)
			}
		}
		for h := 0; h < r.HourEnd && h < 24; h++ {
			hours = append(hours, h)
		}
		return hours
	default:
		return nil
	}
}

// Zone returns the priced zone for the tariff at the given day type and hour.
// Unknown tariffs and uncovered hours return false.
func (t *Table) Zone(tariffID string, dayType types.DayType, hour int) (types.ZonePrice, bool) {
	if hour < 0 || hour > 23 {
		return types.ZonePrice{}, false
	}
	byDay, ok := t.hours[tariffID]
	if !ok {
		return types.ZonePrice{}, false
	}
	if dayType == types.DayTypeAll {
		// the weekday and weekend slots are identical for all-only tariffs
		dayType = types.DayTypeWeekday
	}
	zp := byDay[dayType][hour]
	if zp == nil {
		return types.ZonePrice{}, false
	}
	return *zp, true
}

// FixedFee returns the tariff's fixed monthly fee, taken from its first rule,
// or 0 for an unknown tariff.
func (t *Table) FixedFee(tariffID string) float64 {
	rules := t.rules[tariffID]
	if len(rules) == 0 {
		return 0
	}
	return rules[0].FixedMonthlyFeePLN
}

// Tariffs returns the known tariff names in ascending order.
func (t *Table) Tariffs() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// MostExpensiveZone returns the tariff's highest-priced zone by full unit
// price. Tariffs with fewer than two distinct zones have no expensive zone to
// arbitrage against and return false.
func (t *Table) MostExpensiveZone(tariffID string) (types.ZonePrice, bool) {
	distinct := make(map[string]types.ZonePrice)
	for _, r := range t.rules[tariffID] {
		zp := types.ZonePrice{
			Zone:                  r.Zone,
			EnergyPLNPerKWH:       r.EnergyPLNPerKWH,
			DistributionPLNPerKWH: r.DistributionPLNPerKWH,
		}
		if _, ok := distinct[r.Zone]; !ok {
			distinct[r.Zone] = zp
		}
	}
	if len(distinct) < 2 {
		return types.ZonePrice{}, false
	}
	var best types.ZonePrice
	var found bool
	for _, zp := range distinct {
		if !found || zp.UnitPrice() > best.UnitPrice() ||
			(zp.UnitPrice() == best.UnitPrice() && zp.Zone < best.Zone) {
			best = zp
			found = true
		}
	}
	return best, found
}
