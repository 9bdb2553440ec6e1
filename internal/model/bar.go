package model

import "time"

// Bar represents one trading day's OHLC record for a single ticker.
// Prices are float64 straight from the price table; indicator values are
// derived per strategy run and never stored on the bar itself.
type Bar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"` // trading date (UTC, midnight-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
