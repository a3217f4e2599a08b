package types

import "time"

// StorageLedgerHour is one simulated hour of the storage ledger. Grid values
// are what crosses the meter after the storage device has absorbed or served
// what it could.
type StorageLedgerHour struct {
	TS               time.Time `json:"ts"`
	GridImportKWH    float64   `json:"gridImportKWH"`
	GridExportKWH    float64   `json:"gridExportKWH"`
	FromStorageKWH   float64   `json:"fromStorageKWH"`
	ToStorageKWH     float64   `json:"toStorageKWH"`
	StateOfChargeKWH float64   `json:"stateOfChargeKWH"`
}
