// Package billing turns zone-resolved hourly energy into money: per-zone
// accumulation, flat and net-metering settlement, market-price billing and
// the storage capacity recommendation.
package billing

import (
	"time"

	"github.com/tariffsim/tariffsim/pkg/tariff"
	"github.com/tariffsim/tariffsim/pkg/types"
)

// Accumulator sums per-zone import/export for one tariff over a period.
// Zones appear in first-encountered order; settlement re-derives its own
// order by price.
type Accumulator struct {
	resolver *tariff.Resolver
	tariffID string
	zones    map[string]*types.ZoneTotals
	order    []string
	excluded int
}

// NewAccumulator creates an empty accumulator for the tariff.
func NewAccumulator(resolver *tariff.Resolver, tariffID string) *Accumulator {
	return &Accumulator{
		resolver: resolver,
		tariffID: tariffID,
		zones:    make(map[string]*types.ZoneTotals),
	}
}

// Add books one hour of import/export into the zone active at ts. Hours no
// rule covers are counted but contribute to no zone.
func (a *Accumulator) Add(ts time.Time, importKWH, exportKWH float64) {
	zp, ok := a.resolver.Resolve(ts, a.tariffID)
	if !ok {
		a.excluded++
		return
	}
	zt, ok := a.zones[zp.Zone]
	if !ok {
		zt = &types.ZoneTotals{
			Zone:          zp.Zone,
			UnitPLNPerKWH: zp.UnitPrice(),
		}
		a.zones[zp.Zone] = zt
		a.order = append(a.order, zp.Zone)
	}
	zt.GridImportKWH += importKWH
	zt.GridExportKWH += exportKWH
	zt.CostPLN = zt.GridImportKWH * zt.UnitPLNPerKWH
}

// AddReadings books the utility-netted hourly quantities, the billed values
// when no storage simulation ran.
func (a *Accumulator) AddReadings(readings []types.HourlyReading) {
	for _, r := range readings {
		a.Add(r.TS, r.GridImportNet, r.GridExportNet)
	}
}

// AddLedger books post-storage grid quantities from a simulation ledger.
func (a *Accumulator) AddLedger(ledger []types.StorageLedgerHour) {
	for _, row := range ledger {
		a.Add(row.TS, row.GridImportKWH, row.GridExportKWH)
	}
}

// Totals returns the accumulated zones in first-encountered order.
func (a *Accumulator) Totals() []types.ZoneTotals {
	totals := make([]types.ZoneTotals, 0, len(a.order))
	for _, zone := range a.order {
		totals = append(totals, *a.zones[zone])
	}
	return totals
}

// ExcludedHours returns how many hours resolved to no zone.
func (a *Accumulator) ExcludedHours() int {
	return a.excluded
}
