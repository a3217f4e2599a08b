// Package rce fetches Polish day-ahead market prices (RCE) from the PSE
// reports API and averages the quarter-hour feed into hourly PLN/kWh prices.
package rce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/tariffsim/tariffsim/pkg/common"
	"github.com/tariffsim/tariffsim/pkg/log"
)

// PSE published the first RCE day for 2024-07-01; earlier days are never
// requested.
var dataStart = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// Source fetches RCE prices with a local sqlite cache in front of the API.
type Source struct {
	apiURL    string
	cachePath string
	client    *http.Client
	cache     *Cache
}

// Configured sets up flags for the RCE source and returns the instance.
// It uses lflag to register command-line flags for configuration.
func Configured() *Source {
	s := &Source{
		client: common.HTTPClient(30 * time.Second),
	}
	apiURL := lflag.String("rce-api-url", "https://api.raporty.pse.pl/api/rce-pln", "URL for the PSE RCE price API")
	cachePath := lflag.String("rce-cache-path", "rce_cache.db", "Path to the sqlite file caching downloaded RCE prices")

	lflag.Do(func() {
		s.apiURL = *apiURL
		s.cachePath = *cachePath
	})

	return s
}

// Open opens the price cache. Call before HourlyPrices.
func (s *Source) Open(ctx context.Context) error {
	cache, err := OpenCache(ctx, s.cachePath)
	if err != nil {
		return err
	}
	s.cache = cache
	return nil
}

func (s *Source) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// rceEntry is one quarter-hour row of the PSE response.
type rceEntry struct {
	DTime  string  `json:"dtime"`
	RcePLN float64 `json:"rce_pln"`
}

// HourlyPrices returns hourly PLN/kWh prices for every day of [start, end],
// fetching uncached days from the API. Days the API has nothing for are
// cached empty so they are not retried.
func (s *Source) HourlyPrices(ctx context.Context, start, end time.Time) (map[time.Time]float64, error) {
	all := make(map[time.Time]float64)

	for day := truncateDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)

		prices, cached, err := s.cache.Day(ctx, date)
		if err != nil {
			return nil, err
		}
		if !cached {
			if day.Before(dataStart) {
				continue
			}
			prices, err = s.fetchDay(ctx, date)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// a failed day is cached empty so it is not re-fetched on
				// every run
				log.Ctx(ctx).WarnContext(ctx, "failed to fetch rce prices", slog.String("date", date), slog.Any("error", err))
				prices = nil
			}
			if err := s.cache.SaveDay(ctx, date, prices); err != nil {
				return nil, err
			}
		}

		for hour, price := range prices {
			all[day.Add(time.Duration(hour)*time.Hour)] = price
		}
	}

	return all, nil
}

// fetchDay retrieves one day's quarter-hour feed and averages it into hourly
// PLN/kWh prices keyed by hour of day.
func (s *Source) fetchDay(ctx context.Context, date string) (map[int]float64, error) {
	u, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rce api url: %w", err)
	}
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("business_date eq '%s'", date))
	params.Set("$orderby", "business_date asc")
	params.Set("$first", "20000")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching rce prices", slog.String("date", date), slog.String("url", u.String()))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rce prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rce api returned status: %d", resp.StatusCode)
	}

	var body struct {
		Value []rceEntry `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rce response: %w", err)
	}

	type hourlyData struct {
		sum   float64
		count int
	}
	hours := make(map[int]*hourlyData)
	for _, entry := range body.Value {
		// DST-ambiguous stamps arrive suffixed with "a"/"b"
		dtime := strings.NewReplacer("a", "", "b", "").Replace(entry.DTime)
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", dtime, time.UTC)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to parse rce dtime", slog.String("value", entry.DTime), slog.Any("error", err))
			continue
		}
		// samples are stamped at interval end; a stamp of exactly XX:00
		// belongs to hour XX, matching a plain floor
		h := hours[ts.Hour()]
		if h == nil {
			h = &hourlyData{}
			hours[ts.Hour()] = h
		}
		h.sum += entry.RcePLN
		h.count++
	}

	prices := make(map[int]float64, len(hours))
	for hour, h := range hours {
		// PLN/MWh to PLN/kWh
		prices[hour] = h.sum / float64(h.count) / 1000
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched rce prices",
		slog.String("date", date),
		slog.Int("samples", len(body.Value)),
		slog.Int("hours", len(prices)),
	)
	return prices, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
