// Package loader reads hourly meter data from ENEA CSV exports. The files
// are messy: UTF-8 BOM, stray NUL bytes, semicolon delimiters, timestamps
// wrapped in ="..." to defeat spreadsheet auto-formatting, and comma decimal
// separators.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tariffsim/tariffsim/pkg/log"
	"github.com/tariffsim/tariffsim/pkg/types"
)

// Column headers as they appear in the ENEA export.
const (
	colTimestamp = "Data"
	colImportRaw = "Wolumen energii elektrycznej pobranej z sieci przed bilansowaniem godzinowym"
	colExportRaw = "Wolumen energii elektrycznej oddanej do sieci przed bilansowaniem godzinowym"
	colImportNet = "Wolumen energii elektrycznej pobranej z sieci po bilansowaniu godzinowym"
	colExportNet = "Wolumen energii elektrycznej oddanej do sieci po bilansowaniu godzinowym"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	time.RFC3339,
}

// LoadFile reads one ENEA CSV export. Rows with unparsable timestamps or
// volumes are dropped, not fatal.
func LoadFile(ctx context.Context, path string) ([]types.HourlyReading, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// scrub NULs and the BOM before handing the data to the CSV reader
	raw = bytes.ReplaceAll(raw, []byte{0}, nil)
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{colTimestamp, colImportRaw, colExportRaw, colImportNet, colExportNet} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	var readings []types.HourlyReading
	var dropped int
	for {
		record, err := cr.Read()
		if err != nil {
			break
		}
		r, ok := parseRow(record, cols)
		if !ok {
			dropped++
			continue
		}
		readings = append(readings, r)
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"loaded readings",
		slog.String("path", path),
		slog.Int("rows", len(readings)),
		slog.Int("dropped", dropped),
	)
	return readings, nil
}

func parseRow(record []string, cols map[string]int) (types.HourlyReading, bool) {
	var r types.HourlyReading
	get := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	tsField, ok := get(colTimestamp)
	if !ok {
		return r, false
	}
	// timestamps arrive as ="2024-05-01 13:00"
	tsField = strings.NewReplacer("=", "", `"`, "").Replace(tsField)
	ts, ok := parseTimestamp(tsField)
	if !ok {
		return r, false
	}
	r.TS = ts.Truncate(time.Hour)

	for _, f := range []struct {
		col  string
		dest *float64
	}{
		{colImportRaw, &r.GridImportRaw},
		{colExportRaw, &r.GridExportRaw},
		{colImportNet, &r.GridImportNet},
		{colExportNet, &r.GridExportNet},
	} {
		field, ok := get(f.col)
		if !ok {
			return r, false
		}
		v, err := strconv.ParseFloat(strings.Replace(field, ",", ".", 1), 64)
		if err != nil {
			return r, false
		}
		*f.dest = v
	}
	return r, true
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// LoadFiles reads several exports and returns their readings merged and
// sorted ascending by timestamp.
func LoadFiles(ctx context.Context, paths []string) ([]types.HourlyReading, error) {
	var all []types.HourlyReading
	for _, path := range paths {
		readings, err := LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		all = append(all, readings...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TS.Before(all[j].TS)
	})
	return all, nil
}

// FilterRange keeps readings with start <= TS <= end. Zero bounds are open.
func FilterRange(readings []types.HourlyReading, start, end time.Time) []types.HourlyReading {
	if start.IsZero() && end.IsZero() {
		return readings
	}
	filtered := make([]types.HourlyReading, 0, len(readings))
	for _, r := range readings {
		if !start.IsZero() && r.TS.Before(start) {
			continue
		}
		if !end.IsZero() && r.TS.After(end) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
