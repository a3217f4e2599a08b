package tariff

import (
	"time"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// Resolver maps timestamps to priced zones for one tariff table and one
// holiday calendar. It is stateless and safe to share across analysis runs.
type Resolver struct {
	table    *Table
	calendar *HolidayCalendar
}

// NewResolver combines a tariff table with a holiday calendar.
func NewResolver(table *Table, calendar *HolidayCalendar) *Resolver {
	return &Resolver{table: table, calendar: calendar}
}

// DayType classifies the day of ts: Saturdays, Sundays and public holidays
// are weekend days, everything else a weekday.
func (r *Resolver) DayType(ts time.Time) types.DayType {
	wd := ts.Weekday()
	if wd == time.Saturday || wd == time.Sunday || r.calendar.IsHoliday(ts) {
		return types.DayTypeWeekend
	}
	return types.DayTypeWeekday
}

// Resolve returns the priced zone active for the tariff at ts. Hours no rule
// covers return false; callers must treat those hours as excluded from
// billing, not as errors.
func (r *Resolver) Resolve(ts time.Time, tariffID string) (types.ZonePrice, bool) {
	return r.table.Zone(tariffID, r.DayType(ts), ts.Hour())
}

// FixedFee returns the tariff's fixed monthly fee, or 0 for an unknown tariff.
func (r *Resolver) FixedFee(tariffID string) float64 {
	return r.table.FixedFee(tariffID)
}

// Tariffs lists the tariff names in the underlying table.
func (r *Resolver) Tariffs() []string {
	return r.table.Tariffs()
}

// MostExpensiveZone exposes the table's highest-priced zone for the tariff.
func (r *Resolver) MostExpensiveZone(tariffID string) (types.ZonePrice, bool) {
	return r.table.MostExpensiveZone(tariffID)
}
