package rce

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tariffsim/tariffsim/pkg/log"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func testSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := &Source{
		apiURL:    server.URL,
		cachePath: filepath.Join(t.TempDir(), "cache.db"),
		client:    server.Client(),
	}
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHourlyPrices(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Averages Quarter Hours Into Hourly PLN Per KWH", func(t *testing.T) {
		var requests int
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			assert.Equal(t, "business_date eq '2024-07-02'", r.URL.Query().Get("$filter"))
			w.Write([]byte(`{"value": [
				{"dtime": "2024-07-02 00:15:00", "rce_pln": 300},
				{"dtime": "2024-07-02 00:30:00", "rce_pln": 400},
				{"dtime": "2024-07-02 00:45:00", "rce_pln": 500},
				{"dtime": "2024-07-02 01:00:00", "rce_pln": 700},
				{"dtime": "2024-07-02 01:15:00a", "rce_pln": 700}
			]}`))
		})

		prices, err := s.HourlyPrices(ctx, day, day)
		require.NoError(t, err)
		require.Len(t, prices, 2)
		assert.InDelta(t, 0.4, prices[day], 0.000001)
		assert.InDelta(t, 0.7, prices[day.Add(time.Hour)], 0.000001)
		assert.Equal(t, 1, requests)

		// the second call is served from the cache
		prices, err = s.HourlyPrices(ctx, day, day)
		require.NoError(t, err)
		assert.InDelta(t, 0.4, prices[day], 0.000001)
		assert.Equal(t, 1, requests)
	})

	t.Run("Days Before First Publication Are Skipped", func(t *testing.T) {
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request for a pre-publication day")
		})
		prices, err := s.HourlyPrices(ctx, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, prices)
	})

	t.Run("Empty Days Are Cached", func(t *testing.T) {
		var requests int
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(`{"value": []}`))
		})
		for i := 0; i < 2; i++ {
			prices, err := s.HourlyPrices(ctx, day, day)
			require.NoError(t, err)
			assert.Empty(t, prices)
		}
		assert.Equal(t, 1, requests)
	})

	t.Run("Failed Days Are Cached Empty", func(t *testing.T) {
		var requests int
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusInternalServerError)
		})
		for i := 0; i < 2; i++ {
			prices, err := s.HourlyPrices(ctx, day, day)
			require.NoError(t, err)
			assert.Empty(t, prices)
		}
		assert.Equal(t, 1, requests)
	})

	t.Run("Canceled Context Is Not Cached", func(t *testing.T) {
		var requests int
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusInternalServerError)
		})
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.HourlyPrices(canceled, day, day)
		require.Error(t, err)

		// the day was not marked fetched, so a healthy run retries it
		_, err = s.HourlyPrices(ctx, day, day)
		require.NoError(t, err)
		assert.Equal(t, 1, requests)
	})

	t.Run("Unparsable Stamps Are Dropped", func(t *testing.T) {
		s := testSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"value": [
				{"dtime": "garbage", "rce_pln": 100},
				{"dtime": "2024-07-02 05:15:00", "rce_pln": 200}
			]}`))
		})
		prices, err := s.HourlyPrices(ctx, day, day)
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.InDelta(t, 0.2, prices[day.Add(5*time.Hour)], 0.000001)
	})
}
