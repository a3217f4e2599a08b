// Package analysis orchestrates the full pipeline: optional storage
// simulation, zone accumulation and settlement, plus the period-level
// aggregations and reports built on top of it.
package analysis

import (
	"context"
	"log/slog"
	"sort"

	"github.com/tariffsim/tariffsim/pkg/billing"
	"github.com/tariffsim/tariffsim/pkg/log"
	"github.com/tariffsim/tariffsim/pkg/simulator"
	"github.com/tariffsim/tariffsim/pkg/tariff"
	"github.com/tariffsim/tariffsim/pkg/types"
)

// Params configure one analysis run.
type Params struct {
	Tariff string
	// StorageCapacityKWH enables the storage simulation when > 0.
	StorageCapacityKWH float64
	// StorageEfficiency is the device's round-trip efficiency in (0, 1].
	StorageEfficiency float64
	Strategy          billing.Strategy
}

// Result is one tariff's settled period.
type Result struct {
	Tariff     string                    `json:"tariff"`
	Settlement types.SettlementResult    `json:"settlement"`
	Ledger     []types.StorageLedgerHour `json:"ledger,omitempty"`
}

// Run analyzes one ordered period of readings under one tariff. Empty input
// yields a zero-valued result.
func Run(ctx context.Context, readings []types.HourlyReading, resolver *tariff.Resolver, params Params) Result {
	res := Result{Tariff: params.Tariff}
	if len(readings) == 0 {
		return res
	}

	acc := billing.NewAccumulator(resolver, params.Tariff)

	var preStorageImport float64
	if params.StorageCapacityKWH > 0 {
		sim := simulator.New(params.StorageCapacityKWH, params.StorageEfficiency)
		res.Ledger = sim.Run(readings)
		acc.AddLedger(res.Ledger)
		for _, r := range readings {
			preStorageImport += r.GridImportNet
		}
	} else {
		acc.AddReadings(readings)
	}

	start := readings[0].TS
	end := readings[len(readings)-1].TS
	res.Settlement = billing.Settle(acc.Totals(), params.Strategy, resolver.FixedFee(params.Tariff), start, end)
	res.Settlement.ExcludedHours = acc.ExcludedHours()

	if params.StorageCapacityKWH > 0 {
		var postStorageImport float64
		for _, z := range res.Settlement.Zones {
			postStorageImport += z.GridImportKWH
		}
		res.Settlement.EnergySavedKWH = preStorageImport - postStorageImport
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"analysis run complete",
		slog.String("tariff", params.Tariff),
		slog.Int("hours", len(readings)),
		slog.Int("zones", len(res.Settlement.Zones)),
		slog.Int("excludedHours", res.Settlement.ExcludedHours),
		slog.Float64("totalCost", res.Settlement.TotalCostPLN),
	)
	return res
}

// Compare runs the pipeline for every tariff in the table with the same
// storage and strategy parameters, cheapest total first.
func Compare(ctx context.Context, readings []types.HourlyReading, resolver *tariff.Resolver, params Params) []Result {
	tariffs := resolver.Tariffs()
	results := make([]Result, 0, len(tariffs))
	for _, name := range tariffs {
		p := params
		p.Tariff = name
		results = append(results, Run(ctx, readings, resolver, p))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Settlement.TotalCostPLN != results[j].Settlement.TotalCostPLN {
			return results[i].Settlement.TotalCostPLN < results[j].Settlement.TotalCostPLN
		}
		return results[i].Tariff < results[j].Tariff
	})
	return results
}
