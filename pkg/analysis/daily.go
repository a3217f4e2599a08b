package analysis

import (
	"sort"
	"time"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// AggregateDaily sums hourly readings into per-calendar-day totals, sorted by
// date.
func AggregateDaily(readings []types.HourlyReading) []types.DailyAggregate {
	byDay := make(map[time.Time]*types.DailyAggregate)
	for _, r := range readings {
		day := time.Date(r.TS.Year(), r.TS.Month(), r.TS.Day(), 0, 0, 0, 0, r.TS.Location())
		agg, ok := byDay[day]
		if !ok {
			agg = &types.DailyAggregate{Date: day}
			byDay[day] = agg
		}
		agg.GridImportRaw += r.GridImportRaw
		agg.GridExportRaw += r.GridExportRaw
		agg.GridImportNet += r.GridImportNet
		agg.GridExportNet += r.GridExportNet
	}

	daily := make([]types.DailyAggregate, 0, len(byDay))
	for _, agg := range byDay {
		daily = append(daily, *agg)
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})
	return daily
}

// Trends summarizes how often a period's days were net exporters.
type Trends struct {
	TotalDays      int     `json:"totalDays"`
	NetExportDays  int     `json:"netExportDays"`
	NetExportShare float64 `json:"netExportShare"`
}

// DailyTrends counts net-export days in the daily aggregates.
func DailyTrends(daily []types.DailyAggregate) Trends {
	var t Trends
	t.TotalDays = len(daily)
	for _, d := range daily {
		if d.NetExportDay() {
			t.NetExportDays++
		}
	}
	if t.TotalDays > 0 {
		t.NetExportShare = float64(t.NetExportDays) / float64(t.TotalDays) * 100
	}
	return t
}

// PeriodStats are the headline totals for a period of readings.
type PeriodStats struct {
	GridImportRawKWH float64 `json:"gridImportRawKWH"`
	GridExportRawKWH float64 `json:"gridExportRawKWH"`
	GridImportNetKWH float64 `json:"gridImportNetKWH"`
	GridExportNetKWH float64 `json:"gridExportNetKWH"`
	// HourlyBalancedKWH is the export consumed at home within the hour it was
	// produced, i.e. what the utility's hourly netting absorbed.
	HourlyBalancedKWH float64 `json:"hourlyBalancedKWH"`
	// NetMeteringBalanceKWH is the virtual storage balance: ratio-scaled
	// netted export minus netted import.
	NetMeteringBalanceKWH float64 `json:"netMeteringBalanceKWH"`
}

// Stats computes the period totals with the given net-metering ratio.
func Stats(readings []types.HourlyReading, netMeteringRatio float64) PeriodStats {
	var s PeriodStats
	for _, r := range readings {
		s.GridImportRawKWH += r.GridImportRaw
		s.GridExportRawKWH += r.GridExportRaw
		s.GridImportNetKWH += r.GridImportNet
		s.GridExportNetKWH += r.GridExportNet
	}
	s.HourlyBalancedKWH = s.GridExportRawKWH - s.GridExportNetKWH
	s.NetMeteringBalanceKWH = s.GridExportNetKWH*netMeteringRatio - s.GridImportNetKWH
	return s
}

// MissingHours returns every hour absent from the readings between the first
// and last timestamp (or the given bounds when non-zero). Readings must be
// sorted ascending.
func MissingHours(readings []types.HourlyReading, start, end time.Time) []time.Time {
	if len(readings) == 0 {
		return nil
	}
	if start.IsZero() {
		start = readings[0].TS
	}
	if end.IsZero() {
		end = readings[len(readings)-1].TS
	}
	present := make(map[time.Time]struct{}, len(readings))
	for _, r := range readings {
		present[r.TS.Truncate(time.Hour)] = struct{}{}
	}

	var missing []time.Time
	for ts := start.Truncate(time.Hour); !ts.After(end); ts = ts.Add(time.Hour) {
		if _, ok := present[ts]; !ok {
			missing = append(missing, ts)
		}
	}
	return missing
}
