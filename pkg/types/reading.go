package types

import "time"

// HourlyReading is one meter hour from the utility's hourly data export.
// Raw values are the meter readings before the utility's own intra-hour
// import/export netting; net values are after it. Net values come from the
// utility and are never recomputed here.
type HourlyReading struct {
	TS            time.Time `json:"ts"`
	GridImportRaw float64   `json:"gridImportRaw"`
	GridExportRaw float64   `json:"gridExportRaw"`
	GridImportNet float64   `json:"gridImportNet"`
	GridExportNet float64   `json:"gridExportNet"`
}

// DailyAggregate sums one calendar day of hourly readings.
type DailyAggregate struct {
	Date          time.Time `json:"date"`
	GridImportRaw float64   `json:"gridImportRaw"`
	GridExportRaw float64   `json:"gridExportRaw"`
	GridImportNet float64   `json:"gridImportNet"`
	GridExportNet float64   `json:"gridExportNet"`
}

// NetExportDay reports whether the day exported more energy than it imported,
// both after the utility's hourly netting.
func (d DailyAggregate) NetExportDay() bool {
	return d.GridExportNet > d.GridImportNet
}
