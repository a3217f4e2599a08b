package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tariffsim/tariffsim/pkg/types"
)

// CSV exports mirror the utility's own file conventions: semicolon
// delimiter, comma decimal separator, three fractional digits.

func formatKWH(v float64) string {
	return strings.Replace(fmt.Sprintf("%.3f", v), ".", ",", 1)
}

// WriteDailyCSV writes daily aggregates as CSV.
func WriteDailyCSV(w io.Writer, daily []types.DailyAggregate) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"date", "import_raw", "export_raw", "import_net", "export_net"}); err != nil {
		return err
	}
	for _, d := range daily {
		record := []string{
			d.Date.Format("2006-01-02"),
			formatKWH(d.GridImportRaw),
			formatKWH(d.GridExportRaw),
			formatKWH(d.GridImportNet),
			formatKWH(d.GridExportNet),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLedgerCSV writes a storage simulation ledger as CSV.
func WriteLedgerCSV(w io.Writer, ledger []types.StorageLedgerHour) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"ts", "grid_import", "grid_export", "from_storage", "to_storage", "state_of_charge"}); err != nil {
		return err
	}
	for _, row := range ledger {
		record := []string{
			row.TS.Format("2006-01-02 15:04"),
			formatKWH(row.GridImportKWH),
			formatKWH(row.GridExportKWH),
			formatKWH(row.FromStorageKWH),
			formatKWH(row.ToStorageKWH),
			formatKWH(row.StateOfChargeKWH),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportDailyCSV writes daily aggregates to a file.
func ExportDailyCSV(path string, daily []types.DailyAggregate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteDailyCSV(f, daily); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ExportLedgerCSV writes a simulation ledger to a file.
func ExportLedgerCSV(path string, ledger []types.StorageLedgerHour) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteLedgerCSV(f, ledger); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
