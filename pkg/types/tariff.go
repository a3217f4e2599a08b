package types

// DayType classifies a calendar day for tariff rule selection.
type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
	// DayTypeAll marks rules that apply regardless of the day of the week.
	DayTypeAll DayType = "all"
)

// TariffRule is one row of the tariff rule table. HourStart is inclusive and
// HourEnd exclusive; HourStart > HourEnd describes an overnight-wrapping
// window (e.g. 22-6). HourStart == HourEnd is a zero-width rule that never
// matches.
type TariffRule struct {
	Tariff                string  `json:"tariff"`
	Zone                  string  `json:"zone"`
	DayType               DayType `json:"dayType"`
	HourStart             int     `json:"hourStart"`
	HourEnd               int     `json:"hourEnd"`
	EnergyPLNPerKWH       float64 `json:"energyPLNPerKWH"`
	DistributionPLNPerKWH float64 `json:"distributionPLNPerKWH"`
	FixedMonthlyFeePLN    float64 `json:"fixedMonthlyFeePLN"`
}

// ZonePrice is the priced time-of-use zone an hour resolves to.
type ZonePrice struct {
	Zone                  string  `json:"zone"`
	EnergyPLNPerKWH       float64 `json:"energyPLNPerKWH"`
	DistributionPLNPerKWH float64 `json:"distributionPLNPerKWH"`
}

// UnitPrice is the full per-kWh price of the zone.
func (z ZonePrice) UnitPrice() float64 {
	return z.EnergyPLNPerKWH + z.DistributionPLNPerKWH
}
