package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/lmittmann/tint"

	"github.com/tariffsim/tariffsim/pkg/analysis"
	"github.com/tariffsim/tariffsim/pkg/billing"
	"github.com/tariffsim/tariffsim/pkg/loader"
	"github.com/tariffsim/tariffsim/pkg/log"
	"github.com/tariffsim/tariffsim/pkg/rce"
	"github.com/tariffsim/tariffsim/pkg/server"
	"github.com/tariffsim/tariffsim/pkg/tariff"
	"github.com/tariffsim/tariffsim/pkg/types"
)

const dateLayout = "2006-01-02"

func main() {
	// init packages
	src := rce.Configured()
	srv := server.Configured()

	dataFiles := lflag.String("data-files", "", "Comma-delimited list of ENEA CSV exports to analyze")
	dataDir := lflag.String("data-dir", "data", "Directory scanned for *.csv exports when -data-files is empty")
	tariffsFile := lflag.String("tariffs-file", "config/tariffs.csv", "Path to the tariff rule table CSV")
	tariffName := lflag.String("tariff", "G11", "Tariff to analyze")
	dateStart := lflag.String("date-start", "", "Start of the analysis range (YYYY-MM-DD)")
	dateEnd := lflag.String("date-end", "", "End of the analysis range, inclusive (YYYY-MM-DD)")
	capacityFlag := lflag.String("storage-capacity", "0", "Physical storage capacity in kWh (0 disables the simulation)")
	efficiencyFlag := lflag.String("storage-efficiency", "0.9", "Round-trip efficiency of the storage device")
	netMetering := lflag.Bool("net-metering", false, "Settle with the net-metering credit cascade")
	ratioFlag := lflag.String("net-metering-ratio", "0.8", "Net-metering credit ratio")
	compareTariffs := lflag.Bool("compare-tariffs", false, "Compare every tariff in the table instead of a single run")
	withRCE := lflag.Bool("with-rce", false, "Bill against hourly RCE market prices instead of tariff zones")
	recommend := lflag.Bool("recommend-capacity", false, "Recommend a storage capacity from the period's demand")
	exportDaily := lflag.String("export-daily", "", "Write daily aggregates to this CSV file")
	exportSim := lflag.String("export-simulation", "", "Write the storage simulation ledger to this CSV file")
	serve := lflag.Bool("serve", false, "Serve the analysis result over HTTP after the run")
	logJSON := lflag.Bool("log-json", false, "Log JSON instead of human-readable console output")

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	var handler slog.Handler
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.RFC3339})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	log.SetDefault(logger)
	log.SetDefaultLogLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	capacity := parseFloatFlag(ctx, "storage-capacity", *capacityFlag)
	if capacity < 0 {
		capacity = 0
	}
	efficiency := parseFloatFlag(ctx, "storage-efficiency", *efficiencyFlag)
	ratio := parseFloatFlag(ctx, "net-metering-ratio", *ratioFlag)

	rangeStart := parseDateFlag(ctx, "date-start", *dateStart)
	rangeEnd := parseDateFlag(ctx, "date-end", *dateEnd)
	if !rangeEnd.IsZero() {
		// -date-end names a day; keep all of its hours
		rangeEnd = rangeEnd.Add(23 * time.Hour)
	}

	readings := loadReadings(ctx, *dataFiles, *dataDir, rangeStart, rangeEnd)
	if len(readings) == 0 {
		log.Ctx(ctx).ErrorContext(ctx, "no readings in the given range")
		os.Exit(1)
	}
	if missing := analysis.MissingHours(readings, rangeStart, rangeEnd); len(missing) > 0 {
		fmt.Printf("Warning: %d hours missing from the dataset.\n", len(missing))
	}

	rules, err := tariff.LoadRules(*tariffsFile)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load tariff table", "error", err)
		os.Exit(1)
	}
	firstYear := readings[0].TS.Year()
	lastYear := readings[len(readings)-1].TS.Year()
	resolver := tariff.NewResolver(tariff.NewTable(rules), tariff.NewHolidayCalendar(firstYear, lastYear))

	strategy := billing.Flat()
	if *netMetering {
		strategy = billing.NetMetering(ratio)
	}
	params := analysis.Params{
		Tariff:             *tariffName,
		StorageCapacityKWH: capacity,
		StorageEfficiency:  efficiency,
		Strategy:           strategy,
	}

	switch {
	case *withRCE:
		if err := src.Open(ctx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to open rce cache", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := src.Close(); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to close rce cache", "error", err)
			}
		}()
		prices, err := src.HourlyPrices(ctx, readings[0].TS, readings[len(readings)-1].TS)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to fetch rce prices", "error", err)
			os.Exit(1)
		}
		printMarket(billing.SettleMarket(readings, prices))
		return
	case *compareTariffs:
		printComparison(analysis.Compare(ctx, readings, resolver, params))
		return
	}

	res := analysis.Run(ctx, readings, resolver, params)
	printSummary(res, params, ratio)

	daily := analysis.AggregateDaily(readings)
	printStats(analysis.Stats(readings, ratio), analysis.DailyTrends(daily))

	if *recommend {
		printRecommendation(billing.RecommendCapacity(readings, daily, resolver, params.Tariff))
	}
	if *exportDaily != "" {
		if err := analysis.ExportDailyCSV(*exportDaily, daily); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to export daily aggregates", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Daily aggregates written to %s\n", *exportDaily)
	}
	if *exportSim != "" && len(res.Ledger) > 0 {
		if err := analysis.ExportLedgerCSV(*exportSim, res.Ledger); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to export simulation ledger", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Simulation ledger written to %s\n", *exportSim)
	}

	if *serve {
		srv.SetResult(res, daily)
		if err := srv.Run(ctx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
			os.Exit(1)
		}
	}
}

func parseFloatFlag(ctx context.Context, name, value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(value, ",", ".", 1)), 64)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid flag value", "flag", name, "value", value)
		os.Exit(1)
	}
	return v
}

func loadReadings(ctx context.Context, dataFiles, dataDir string, start, end time.Time) []types.HourlyReading {
	var paths []string
	if dataFiles != "" {
		for _, p := range strings.Split(dataFiles, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
	} else {
		var err error
		paths, err = filepath.Glob(filepath.Join(dataDir, "*.csv"))
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to scan data dir", "dir", dataDir, "error", err)
			os.Exit(1)
		}
		sort.Strings(paths)
	}
	if len(paths) == 0 {
		log.Ctx(ctx).ErrorContext(ctx, "no data files found", "dir", dataDir)
		os.Exit(1)
	}

	readings, err := loader.LoadFiles(ctx, paths)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load readings", "error", err)
		os.Exit(1)
	}
	return loader.FilterRange(readings, start, end)
}

func parseDateFlag(ctx context.Context, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid flag value", "flag", name, "value", value)
		os.Exit(1)
	}
	return ts
}

func printMarket(res billing.MarketResult) {
	fmt.Println("--- Market-price (RCE) billing ---")
	fmt.Printf("Grid import: %.3f kWh, cost:   %.2f PLN\n", res.GridImportKWH, res.CostPLN)
	fmt.Printf("Grid export: %.3f kWh, income: %.2f PLN\n", res.GridExportKWH, res.IncomePLN)
	if res.MissingPriceHours > 0 {
		fmt.Printf("Hours without a published price: %d\n", res.MissingPriceHours)
	}
}

func printComparison(results []analysis.Result) {
	fmt.Println("--- Tariff comparison (cheapest first) ---")
	for i, res := range results {
		fmt.Printf("%d. %-6s total %.2f PLN (energy %.2f + fixed %.2f)",
			i+1, res.Tariff, res.Settlement.TotalCostPLN, res.Settlement.EnergyCostPLN, res.Settlement.FixedFeePLN)
		if res.Settlement.ExcludedHours > 0 {
			fmt.Printf(" [%d hours unbilled]", res.Settlement.ExcludedHours)
		}
		fmt.Println()
	}
}

func printSummary(res analysis.Result, params analysis.Params, ratio float64) {
	fmt.Printf("--- Analysis for tariff %s ---\n", res.Tariff)
	if params.StorageCapacityKWH > 0 {
		fmt.Printf("Storage: %.1f kWh at %.0f%% round-trip efficiency\n",
			params.StorageCapacityKWH, params.StorageEfficiency*100)
	}
	if params.Strategy.NetMetering {
		fmt.Printf("Net metering ratio: %.2f\n", ratio)
	}
	for _, z := range res.Settlement.Zones {
		fmt.Printf("Zone %-15s import %8.3f kWh, export %8.3f kWh", z.Zone, z.GridImportKWH, z.GridExportKWH)
		if params.Strategy.NetMetering {
			fmt.Printf(", credit in %.3f kWh, billable %.3f kWh", z.CreditCarriedInKWH, z.BillableKWH)
		}
		fmt.Printf(", cost %.2f PLN\n", z.CostPLN)
	}
	fmt.Printf("Energy cost: %.2f PLN\n", res.Settlement.EnergyCostPLN)
	fmt.Printf("Fixed fees:  %.2f PLN\n", res.Settlement.FixedFeePLN)
	fmt.Printf("TOTAL COST:  %.2f PLN\n", res.Settlement.TotalCostPLN)
	if params.Strategy.NetMetering {
		fmt.Printf("Leftover net-metering credit: %.3f kWh\n", res.Settlement.LeftoverCreditKWH)
	}
	if params.StorageCapacityKWH > 0 {
		fmt.Printf("Energy saved by storage: %.3f kWh\n", res.Settlement.EnergySavedKWH)
	}
	if res.Settlement.ExcludedHours > 0 {
		fmt.Printf("Hours excluded from billing (no matching zone): %d\n", res.Settlement.ExcludedHours)
	}
}

func printStats(stats analysis.PeriodStats, trends analysis.Trends) {
	fmt.Println("--- Period statistics ---")
	fmt.Printf("Import before hourly netting: %.3f kWh\n", stats.GridImportRawKWH)
	fmt.Printf("Export before hourly netting: %.3f kWh\n", stats.GridExportRawKWH)
	fmt.Printf("Import after hourly netting:  %.3f kWh\n", stats.GridImportNetKWH)
	fmt.Printf("Export after hourly netting:  %.3f kWh\n", stats.GridExportNetKWH)
	fmt.Printf("Self-consumed via hourly netting: %.3f kWh\n", stats.HourlyBalancedKWH)
	fmt.Printf("Virtual net-metering balance: %.3f kWh\n", stats.NetMeteringBalanceKWH)
	fmt.Printf("Net-export days: %d of %d (%.2f%%)\n", trends.NetExportDays, trends.TotalDays, trends.NetExportShare)
}

func printRecommendation(rec billing.Recommendation) {
	fmt.Println("--- Storage capacity recommendation ---")
	fmt.Printf("Export-driven bound:    %.3f kWh\n", rec.ExportBoundKWH)
	if rec.ExpensiveZone != "" {
		fmt.Printf("Arbitrage-driven bound: %.3f kWh (zone %s)\n", rec.ArbitrageBoundKWH, rec.ExpensiveZone)
	} else {
		fmt.Println("Arbitrage-driven bound: n/a (flat tariff)")
	}
	fmt.Printf("Recommended capacity:   %.3f kWh\n", rec.CapacityKWH)
}
