package billing

import (
	"time"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// MarketResult is the pass-through market-price bill for a period: netted
// import priced as cost, netted export as income, no zones involved.
type MarketResult struct {
	CostPLN           float64 `json:"costPLN"`
	IncomePLN         float64 `json:"incomePLN"`
	GridImportKWH     float64 `json:"gridImportKWH"`
	GridExportKWH     float64 `json:"gridExportKWH"`
	MissingPriceHours int     `json:"missingPriceHours"`
}

// SettleMarket bills each hour at the market price for its hour. Hours with
// no published price are skipped and counted.
func SettleMarket(readings []types.HourlyReading, prices map[time.Time]float64) MarketResult {
	var res MarketResult
	for _, r := range readings {
		price, ok := prices[r.TS.Truncate(time.Hour)]
		if !ok {
			res.MissingPriceHours++
			continue
		}
		res.GridImportKWH += r.GridImportNet
		res.GridExportKWH += r.GridExportNet
		res.CostPLN += r.GridImportNet * price
		res.IncomePLN += r.GridExportNet * price
	}
	return res
}
