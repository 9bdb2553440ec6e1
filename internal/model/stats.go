package model

import "math"

// TickerStats summarizes one ticker's trade sequence under one parameter set.
//
// AvgRiskReward is NaN when the ticker had no losing trades (zero loss
// denominator); AvgReturn is NaN when there were no trades at all. WinRate is
// defined as 0 for an empty trade list so downstream weighting stays finite.
type TickerStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgRiskReward float64 `json:"avg_rr"`
	AvgReturn     float64 `json:"avg_return"`
}

// HasNaN reports whether any metric is undefined. Tickers with NaN stats are
// excluded from the weighted cross-ticker blend but still surfaced for audit.
func (s TickerStats) HasNaN() bool {
	return math.IsNaN(s.WinRate) || math.IsNaN(s.AvgRiskReward) || math.IsNaN(s.AvgReturn)
}
