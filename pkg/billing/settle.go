package billing

import (
	"sort"
	"time"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// Strategy selects how a period's zone totals become a bill: either a flat
// import-times-price sum, or the net-metering credit cascade with the given
// export ratio.
type Strategy struct {
	NetMetering bool    `json:"netMetering"`
	Ratio       float64 `json:"ratio"`
}

// Flat bills every zone's import at its unit price with no export credit.
func Flat() Strategy {
	return Strategy{}
}

// NetMetering credits exported energy, scaled by ratio, against import cost.
func NetMetering(ratio float64) Strategy {
	return Strategy{NetMetering: true, Ratio: ratio}
}

// Settle computes the final bill for zone totals accumulated over the period
// [start, end]. The input is not mutated; settling the same totals twice
// yields identical results.
//
// Under net metering, zones settle in descending unit-price order so credit
// offsets the costliest energy first; unconsumed credit rolls over to the
// next cheaper zone and whatever survives the cheapest zone is reported as
// leftover, forfeited at period end.
func Settle(zones []types.ZoneTotals, strategy Strategy, fixedMonthlyFee float64, start, end time.Time) types.SettlementResult {
	settled := make([]types.ZoneSettlement, len(zones))
	for i, zt := range zones {
		settled[i] = types.ZoneSettlement{ZoneTotals: zt}
	}
	sort.Slice(settled, func(i, j int) bool {
		if settled[i].UnitPLNPerKWH != settled[j].UnitPLNPerKWH {
			return settled[i].UnitPLNPerKWH > settled[j].UnitPLNPerKWH
		}
		return settled[i].Zone < settled[j].Zone
	})

	res := types.SettlementResult{
		FixedFeePLN: fixedMonthlyFee * float64(monthsSpanned(start, end)),
	}

	var rollover float64
	for i := range settled {
		z := &settled[i]
		if strategy.NetMetering {
			z.CreditGeneratedKWH = z.GridExportKWH * strategy.Ratio
			z.CreditCarriedInKWH = rollover
			available := z.CreditGeneratedKWH + rollover
			z.BillableKWH = z.GridImportKWH - available
			if z.BillableKWH < 0 {
				z.BillableKWH = 0
			}
			rollover = available - z.GridImportKWH
			if rollover < 0 {
				rollover = 0
			}
		} else {
			z.BillableKWH = z.GridImportKWH
		}
		// the accumulator's CostPLN was provisional; the settled cost is always
		// recomputed from the billable quantity
		z.CostPLN = z.BillableKWH * z.UnitPLNPerKWH
		res.EnergyCostPLN += z.CostPLN
	}
	if strategy.NetMetering {
		res.LeftoverCreditKWH = rollover
	}

	res.Zones = settled
	res.TotalCostPLN = res.EnergyCostPLN + res.FixedFeePLN
	return res
}

// monthsSpanned counts the calendar months touched by [start, end],
// inclusive. A period within one month counts as 1 regardless of length.
func monthsSpanned(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	startMonths := start.Year()*12 + int(start.Month())
	endMonths := end.Year()*12 + int(end.Month())
	return endMonths - startMonths + 1
}
