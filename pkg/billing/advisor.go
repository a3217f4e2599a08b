package billing

import (
	"github.com/tariffsim/tariffsim/pkg/tariff"
	"github.com/tariffsim/tariffsim/pkg/types"
)

// Recommendation is the advised storage capacity together with the two
// component bounds that produced it.
type Recommendation struct {
	CapacityKWH float64 `json:"capacityKWH"`
	// ExportBoundKWH is the largest daily netted import among days that were
	// net exporters: the capacity needed to keep such a day's surplus at home.
	ExportBoundKWH float64 `json:"exportBoundKWH"`
	// ArbitrageBoundKWH is the largest daily raw import booked in the
	// tariff's most expensive zone: the capacity needed to shift that energy
	// into cheaper hours.
	ArbitrageBoundKWH float64 `json:"arbitrageBoundKWH"`
	// ExpensiveZone is the zone the arbitrage bound was computed against,
	// empty for flat tariffs.
	ExpensiveZone string `json:"expensiveZone"`
}

// RecommendCapacity derives a storage capacity from the period's hourly
// readings and daily aggregates. It is a heuristic, not an optimizer: the two
// bounds are computed independently and the larger one wins; multi-day
// carry-over of charge is not modeled.
func RecommendCapacity(readings []types.HourlyReading, daily []types.DailyAggregate, resolver *tariff.Resolver, tariffID string) Recommendation {
	var rec Recommendation

	for _, d := range daily {
		if d.NetExportDay() && d.GridImportNet > rec.ExportBoundKWH {
			rec.ExportBoundKWH = d.GridImportNet
		}
	}

	if expensive, ok := resolver.MostExpensiveZone(tariffID); ok {
		rec.ExpensiveZone = expensive.Zone
		dailyImport := make(map[string]float64)
		for _, r := range readings {
			zp, ok := resolver.Resolve(r.TS, tariffID)
			if !ok || zp.Zone != expensive.Zone {
				continue
			}
			day := r.TS.Format("2006-01-02")
			dailyImport[day] += r.GridImportRaw
			if dailyImport[day] > rec.ArbitrageBoundKWH {
				rec.ArbitrageBoundKWH = dailyImport[day]
			}
		}
	}

	rec.CapacityKWH = rec.ExportBoundKWH
	if rec.ArbitrageBoundKWH > rec.CapacityKWH {
		rec.CapacityKWH = rec.ArbitrageBoundKWH
	}
	return rec
}
