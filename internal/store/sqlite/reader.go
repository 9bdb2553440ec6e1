// Package sqlite provides read-only access to the historical price database.
//
// Layout matches the ingest tooling that builds the database:
//
//	prices_data(ticker, date, open, high, low, close, adj_close, volume, ...)
//	stock_metadata(Ticker, "Market Cap", ...)
//
// Indicator columns persisted alongside the prices are ignored; the backtest
// recomputes indicators per parameter set.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"backtester-v1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for loading the backtest universe.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ListTickers returns tickers whose market cap is at or above the floor.
// Market caps are stored as display strings ("1.5B", "200M"); unparseable or
// blank values count as 0 and fall below any positive floor.
func (r *Reader) ListTickers(minMarketCap float64) ([]string, error) {
	rows, err := r.db.Query(`SELECT Ticker, "Market Cap" FROM stock_metadata`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query stock_metadata: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		var mcap sql.NullString
		if err := rows.Scan(&ticker, &mcap); err != nil {
			return nil, fmt.Errorf("sqlite scan stock_metadata: %w", err)
		}
		if ParseMarketCap(mcap.String) >= minMarketCap {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, rows.Err()
}

// ReadBars reads one ticker's daily bars, ordered by date ascending.
func (r *Reader) ReadBars(ticker string) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT ticker, date, open, high, low, close, volume
		FROM prices_data
		WHERE ticker = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("sqlite query prices_data: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var date string
		var volume sql.NullInt64
		if err := rows.Scan(&b.Ticker, &date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan prices_data: %w", err)
		}
		b.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("prices_data %s: %w", ticker, err)
		}
		b.Volume = volume.Int64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LoadUniverse reads bars for every ticker passing the market-cap floor.
// A ticker with no price rows is skipped with a warning rather than failing
// the load; it would only produce a zero-trade backtest anyway.
func (r *Reader) LoadUniverse(minMarketCap float64) (map[string][]model.Bar, error) {
	tickers, err := r.ListTickers(minMarketCap)
	if err != nil {
		return nil, err
	}

	universe := make(map[string][]model.Bar, len(tickers))
	for _, ticker := range tickers {
		bars, err := r.ReadBars(ticker)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			log.Printf("[sqlite-reader] no price rows for %s, skipping", ticker)
			continue
		}
		universe[ticker] = bars
	}
	return universe, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ParseMarketCap converts a display market cap ("1.5B", "200M", "2T") to a
// float. Blank or unparseable values return 0.
func ParseMarketCap(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	mult := 1.0
	switch {
	case strings.Contains(s, "T"):
		mult = 1e12
		s = strings.ReplaceAll(s, "T", "")
	case strings.Contains(s, "B"):
		mult = 1e9
		s = strings.ReplaceAll(s, "B", "")
	case strings.Contains(s, "M"):
		mult = 1e6
		s = strings.ReplaceAll(s, "M", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * mult
}

// parseDate accepts the date formats the ingest tooling has written over
// time: bare dates and full timestamps.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
