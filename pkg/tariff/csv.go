package tariff

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// Expected header of the rule table CSV.
var ruleColumns = []string{
	"tariff", "zone_name", "day_type", "start_hour", "end_hour",
	"energy_price", "dist_price", "dist_fee",
}

// LoadRules reads a tariff rule table from a CSV file.
func LoadRules(path string) ([]types.TariffRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tariff file: %w", err)
	}
	defer f.Close()
	rules, err := ReadRules(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tariff file %s: %w", path, err)
	}
	return rules, nil
}

// ReadRules parses tariff rules from CSV data with the header
// tariff,zone_name,day_type,start_hour,end_hour,energy_price,dist_price,dist_fee.
func ReadRules(r io.Reader) ([]types.TariffRule, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range ruleColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rules []types.TariffRule
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rule := types.TariffRule{
			Tariff:  record[cols["tariff"]],
			Zone:    record[cols["zone_name"]],
			DayType: types.DayType(record[cols["day_type"]]),
		}
		if rule.HourStart, err = strconv.Atoi(record[cols["start_hour"]]); err != nil {
			return nil, fmt.Errorf("line %d: bad start_hour: %w", line, err)
		}
		if rule.HourEnd, err = strconv.Atoi(record[cols["end_hour"]]); err != nil {
			return nil, fmt.Errorf("line %d: bad end_hour: %w", line, err)
		}
		if rule.EnergyPLNPerKWH, err = strconv.ParseFloat(record[cols["energy_price"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad energy_price: %w", line, err)
		}
		if rule.DistributionPLNPerKWH, err = strconv.ParseFloat(record[cols["dist_price"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad dist_price: %w", line, err)
		}
		if rule.FixedMonthlyFeePLN, err = strconv.ParseFloat(record[cols["dist_fee"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad dist_fee: %w", line, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
