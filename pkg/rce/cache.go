package rce

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// Cache persists hourly RCE prices in a local sqlite file so each day is
// fetched from the API at most once, including days the API had nothing for.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS rce_day (
		date TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS rce_price (
		date  TEXT    NOT NULL,
		hour  INTEGER NOT NULL,
		price REAL    NOT NULL,
		PRIMARY KEY (date, hour)
	);
`

// OpenCache opens (and if needed creates) the cache database at path.
func OpenCache(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure price cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate price cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Day returns the cached hourly prices for the date (layout 2006-01-02) and
// whether the day was ever fetched. A fetched day may legitimately have no
// prices.
func (c *Cache) Day(ctx context.Context, date string) (map[int]float64, bool, error) {
	var found string
	err := c.db.QueryRowContext(ctx, "SELECT date FROM rce_day WHERE date = ?", date).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query price cache: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT hour, price FROM rce_price WHERE date = ?", date)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query price cache: %w", err)
	}
	defer rows.Close()

	prices := make(map[int]float64)
	for rows.Next() {
		var hour int
		var price float64
		if err := rows.Scan(&hour, &price); err != nil {
			return nil, false, fmt.Errorf("failed to scan cached price: %w", err)
		}
		prices[hour] = price
	}
	return prices, true, rows.Err()
}

// SaveDay marks the date as fetched and stores its hourly prices, rounded to
// 4 decimals.
func (c *Cache) SaveDay(ctx context.Context, date string, prices map[int]float64) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO rce_day (date) VALUES (?) ON CONFLICT(date) DO NOTHING", date); err != nil {
		return fmt.Errorf("failed to mark day cached: %w", err)
	}
	for hour, price := range prices {
		rounded := math.Round(price*10000) / 10000
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rce_price (date, hour, price) VALUES (?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET price = excluded.price`,
			date, hour, rounded)
		if err != nil {
			return fmt.Errorf("failed to save cached price: %w", err)
		}
	}
	return tx.Commit()
}
