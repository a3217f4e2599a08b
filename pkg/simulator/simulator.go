// Package simulator replays a period of hourly meter readings against a
// hypothetical energy storage device and produces the resulting grid ledger.
package simulator

import (
	"math"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// Simulator owns the state of charge for a single run. It must not be shared
// across tariffs or periods; create a fresh one per simulation.
type Simulator struct {
	capacityKWH float64
	efficiency  float64
	socKWH      float64
}

// New creates a simulator for a device with the given usable capacity (kWh)
// and round-trip efficiency in (0, 1]. The caller validates the parameters;
// capacity 0 degenerates to a passthrough and efficiency 0 to a device that
// can never charge.
func New(capacityKWH, roundTripEfficiency float64) *Simulator {
	return &Simulator{
		capacityKWH: capacityKWH,
		efficiency:  roundTripEfficiency,
	}
}

// StateOfCharge returns the current charge level in kWh.
func (s *Simulator) StateOfCharge() float64 {
	return s.socKWH
}

// Run walks the readings hour by hour and returns one ledger row per hour.
// Each hour is classified from the RAW pre-netting readings: a surplus hour
// charges the device (losing energy to round-trip efficiency on the way in),
// a deficit hour discharges it 1:1, and a balanced hour passes untouched.
func (s *Simulator) Run(readings []types.HourlyReading) []types.StorageLedgerHour {
	ledger := make([]types.StorageLedgerHour, 0, len(readings))
	for _, r := range readings {
		row := types.StorageLedgerHour{TS: r.TS}
		switch {
		case r.GridExportRaw > r.GridImportRaw:
			surplus := r.GridExportRaw - r.GridImportRaw
			var toStorage float64
			if s.efficiency > 0 {
				// filling the remaining headroom requires drawing
				// headroom/efficiency gross from the surplus
				headroom := s.capacityKWH - s.socKWH
				toStorage = math.Min(surplus, headroom/s.efficiency)
			}
			s.socKWH += toStorage * s.efficiency
			if s.socKWH > s.capacityKWH {
				s.socKWH = s.capacityKWH
			}
			row.ToStorageKWH = toStorage
			row.GridExportKWH = surplus - toStorage
		case r.GridImportRaw > r.GridExportRaw:
			deficit := r.GridImportRaw - r.GridExportRaw
			fromStorage := math.Min(deficit, s.socKWH)
			s.socKWH -= fromStorage
			row.FromStorageKWH = fromStorage
			row.GridImportKWH = deficit - fromStorage
		}
		row.StateOfChargeKWH = s.socKWH
		ledger = append(ledger, row)
	}
	return ledger
}
