package model

import (
	"math"
	"time"
)

// Trade is one closed round trip. Immutable once extracted; trades for a
// ticker never overlap in time and IDs are dense starting at 1.
type Trade struct {
	ID               int       `json:"trade_id"`
	EntryDate        time.Time `json:"entry_date"`
	ExitDate         time.Time `json:"exit_date"`
	EntryPrice       float64   `json:"entry_price"`
	PartialExitPrice float64   `json:"partial_exit_price"` // NaN when no partial exit occurred
	ExitPrice        float64   `json:"exit_price"`
	ReturnPct        float64   `json:"return_pct"`
}

// HasPartialExit reports whether a half-size profit take was recorded.
func (t Trade) HasPartialExit() bool {
	return !math.IsNaN(t.PartialExitPrice)
}
