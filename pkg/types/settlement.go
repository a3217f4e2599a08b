package types

// ZoneTotals accumulates a period's energy within one zone. CostPLN is the
// provisional flat cost (import x unit price) until settlement replaces it.
type ZoneTotals struct {
	Zone          string  `json:"zone"`
	UnitPLNPerKWH float64 `json:"unitPLNPerKWH"`
	GridImportKWH float64 `json:"gridImportKWH"`
	GridExportKWH float64 `json:"gridExportKWH"`
	CostPLN       float64 `json:"costPLN"`
}

// ZoneSettlement is the settled view of one zone after the credit cascade.
type ZoneSettlement struct {
	ZoneTotals
	CreditGeneratedKWH float64 `json:"creditGeneratedKWH"`
	CreditCarriedInKWH float64 `json:"creditCarriedInKWH"`
	BillableKWH        float64 `json:"billableKWH"`
}

// SettlementResult is the final bill for one tariff over one period. Zones
// are ordered by descending unit price, the order they were settled in.
type SettlementResult struct {
	Zones             []ZoneSettlement `json:"zones"`
	EnergyCostPLN     float64          `json:"energyCostPLN"`
	FixedFeePLN       float64          `json:"fixedFeePLN"`
	TotalCostPLN      float64          `json:"totalCostPLN"`
	LeftoverCreditKWH float64          `json:"leftoverCreditKWH"`
	// EnergySavedKWH compares the billed import against what would have been
	// billed without a storage device. Zero when no simulation ran.
	EnergySavedKWH float64 `json:"energySavedKWH"`
	// ExcludedHours counts hours no tariff rule covered. They are not billed.
	ExcludedHours int `json:"excludedHours"`
}
