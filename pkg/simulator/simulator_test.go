package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariffsim/tariffsim/pkg/types"
)

func readingsAt(start time.Time, volumes [][2]float64) []types.HourlyReading {
	readings := make([]types.HourlyReading, 0, len(volumes))
	for i, v := range volumes {
		readings = append(readings, types.HourlyReading{
			TS:            start.Add(time.Duration(i) * time.Hour),
			GridImportRaw: v[0],
			GridExportRaw: v[1],
		})
	}
	return readings
}

func TestSimulatorRun(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Charge Then Discharge", func(t *testing.T) {
		sim := New(5, 1.0)
		ledger := sim.Run(readingsAt(start, [][2]float64{
			{1, 0},   // deficit, storage empty
			{0, 2.5}, // surplus, all stored
			{2, 0.3}, // deficit 1.7, covered from storage
		}))
		require.Len(t, ledger, 3)

		assert.InDelta(t, 1.0, ledger[0].GridImportKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[0].FromStorageKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[0].StateOfChargeKWH, 0.001)

		assert.InDelta(t, 2.5, ledger[1].ToStorageKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[1].GridExportKWH, 0.001)
		assert.InDelta(t, 2.5, ledger[1].StateOfChargeKWH, 0.001)

		assert.InDelta(t, 1.7, ledger[2].FromStorageKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[2].GridImportKWH, 0.001)
		assert.InDelta(t, 0.8, ledger[2].StateOfChargeKWH, 0.001)
		assert.InDelta(t, 0.8, sim.StateOfCharge(), 0.001)
	})

	t.Run("Charging Loses To Efficiency", func(t *testing.T) {
		sim := New(10, 0.9)
		ledger := sim.Run(readingsAt(start, [][2]float64{{0, 2}}))
		require.Len(t, ledger, 1)
		assert.InDelta(t, 2.0, ledger[0].ToStorageKWH, 0.001)
		assert.InDelta(t, 1.8, ledger[0].StateOfChargeKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[0].GridExportKWH, 0.001)
	})

	t.Run("Headroom Limits Charging", func(t *testing.T) {
		// filling 1 kWh at 50% efficiency consumes 2 kWh of surplus
		sim := New(1, 0.5)
		ledger := sim.Run(readingsAt(start, [][2]float64{{0, 10}}))
		require.Len(t, ledger, 1)
		assert.InDelta(t, 2.0, ledger[0].ToStorageKWH, 0.001)
		assert.InDelta(t, 1.0, ledger[0].StateOfChargeKWH, 0.001)
		assert.InDelta(t, 8.0, ledger[0].GridExportKWH, 0.001)
	})

	t.Run("Discharging Is Lossless", func(t *testing.T) {
		sim := New(5, 0.8)
		ledger := sim.Run(readingsAt(start, [][2]float64{
			{0, 5}, // stores 5*0.8 = 4
			{3, 0}, // drawn 1:1
		}))
		require.Len(t, ledger, 2)
		assert.InDelta(t, 4.0, ledger[0].StateOfChargeKWH, 0.001)
		assert.InDelta(t, 3.0, ledger[1].FromStorageKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[1].GridImportKWH, 0.001)
		assert.InDelta(t, 1.0, ledger[1].StateOfChargeKWH, 0.001)
	})

	t.Run("Zero Efficiency Never Charges", func(t *testing.T) {
		sim := New(5, 0)
		ledger := sim.Run(readingsAt(start, [][2]float64{{0, 3}, {2, 0}}))
		require.Len(t, ledger, 2)
		assert.InDelta(t, 0.0, ledger[0].ToStorageKWH, 0.001)
		assert.InDelta(t, 3.0, ledger[0].GridExportKWH, 0.001)
		assert.InDelta(t, 2.0, ledger[1].GridImportKWH, 0.001)
		assert.InDelta(t, 0.0, sim.StateOfCharge(), 0.001)
	})

	t.Run("Zero Capacity Passes Through", func(t *testing.T) {
		sim := New(0, 0.9)
		ledger := sim.Run(readingsAt(start, [][2]float64{{0, 3}, {2, 0}}))
		require.Len(t, ledger, 2)
		assert.InDelta(t, 3.0, ledger[0].GridExportKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[0].ToStorageKWH, 0.001)
		assert.InDelta(t, 2.0, ledger[1].GridImportKWH, 0.001)
		assert.InDelta(t, 0.0, ledger[1].FromStorageKWH, 0.001)
	})

	t.Run("Balanced Hour Touches Nothing", func(t *testing.T) {
		sim := New(5, 0.9)
		ledger := sim.Run(readingsAt(start, [][2]float64{{1.5, 1.5}}))
		require.Len(t, ledger, 1)
		assert.Equal(t, types.StorageLedgerHour{TS: start}, ledger[0])
	})
}

func TestSimulatorEnergyConservation(t *testing.T) {
	const capacity, efficiency = 3.0, 0.85
	sim := New(capacity, efficiency)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	ledger := sim.Run(readingsAt(start, [][2]float64{
		{0, 4}, {1, 0}, {0, 0.5}, {2.5, 0}, {0, 6}, {0.2, 0.2}, {3, 0},
	}))

	var charged, drawn float64
	for _, row := range ledger {
		charged += row.ToStorageKWH * efficiency
		drawn += row.FromStorageKWH
		assert.GreaterOrEqual(t, row.StateOfChargeKWH, 0.0)
		assert.LessOrEqual(t, row.StateOfChargeKWH, capacity+0.000001)
	}
	assert.InDelta(t, sim.StateOfCharge(), charged-drawn, 0.000001)
}
