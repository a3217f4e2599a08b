package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariffsim/tariffsim/pkg/analysis"
	"github.com/tariffsim/tariffsim/pkg/types"
)

func testServer() *Server {
	s := &Server{}
	s.SetResult(analysis.Result{
		Tariff: "G12",
		Settlement: types.SettlementResult{
			Zones: []types.ZoneSettlement{
				{ZoneTotals: types.ZoneTotals{Zone: "dzienna", GridImportKWH: 5}},
			},
			TotalCostPLN: 12.34,
		},
		Ledger: []types.StorageLedgerHour{
			{TS: time.Date(2025, 4, 2, 13, 0, 0, 0, time.UTC), StateOfChargeKWH: 1.5},
		},
	}, []types.DailyAggregate{
		{Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), GridExportNet: 3, GridImportNet: 1},
	})
	return s
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServerEndpoints(t *testing.T) {
	handler := testServer().setupHandler()

	t.Run("Summary", func(t *testing.T) {
		w := get(t, handler, "/api/summary")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body struct {
			Tariff     string                 `json:"tariff"`
			Settlement types.SettlementResult `json:"settlement"`
			Trends     analysis.Trends        `json:"trends"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "G12", body.Tariff)
		assert.InDelta(t, 12.34, body.Settlement.TotalCostPLN, 0.000001)
		assert.Equal(t, 1, body.Trends.NetExportDays)
	})

	t.Run("Zones", func(t *testing.T) {
		w := get(t, handler, "/api/zones")
		require.Equal(t, http.StatusOK, w.Code)

		var zones []types.ZoneSettlement
		require.NoError(t, json.NewDecoder(w.Body).Decode(&zones))
		require.Len(t, zones, 1)
		assert.Equal(t, "dzienna", zones[0].Zone)
	})

	t.Run("Ledger", func(t *testing.T) {
		w := get(t, handler, "/api/ledger")
		require.Equal(t, http.StatusOK, w.Code)

		var ledger []types.StorageLedgerHour
		require.NoError(t, json.NewDecoder(w.Body).Decode(&ledger))
		require.Len(t, ledger, 1)
		assert.InDelta(t, 1.5, ledger[0].StateOfChargeKWH, 0.000001)
	})

	t.Run("Daily", func(t *testing.T) {
		w := get(t, handler, "/api/daily")
		require.Equal(t, http.StatusOK, w.Code)

		var daily []types.DailyAggregate
		require.NoError(t, json.NewDecoder(w.Body).Decode(&daily))
		require.Len(t, daily, 1)
	})

	t.Run("Healthz", func(t *testing.T) {
		w := get(t, handler, "/healthz")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/summary", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
