// Package perf computes performance statistics over extracted trades, first
// per ticker and then as a trade-count-weighted blend across tickers.
package perf

import (
	"math"

	"backtester-v1/internal/model"
)

// Compute derives a ticker's stats from its trade sequence.
//
// Division-by-zero cases are defined results, not errors: AvgRiskReward is
// NaN when the ticker had no losses, AvgReturn is NaN with no trades, and
// WinRate is pinned to 0 (not NaN) for an empty list so cross-ticker
// weighting stays well-defined.
func Compute(trades []model.Trade) model.TickerStats {
	stats := model.TickerStats{TotalTrades: len(trades)}

	if len(trades) == 0 {
		stats.AvgRiskReward = math.NaN()
		stats.AvgReturn = math.NaN()
		return stats
	}

	var wins int
	var totalGain, totalLoss, sum float64
	for _, t := range trades {
		sum += t.ReturnPct
		switch {
		case t.ReturnPct > 0:
			wins++
			totalGain += t.ReturnPct
		case t.ReturnPct < 0:
			totalLoss += -t.ReturnPct
		}
	}

	stats.WinRate = float64(wins) / float64(len(trades))
	stats.AvgReturn = sum / float64(len(trades))
	if totalLoss == 0 {
		stats.AvgRiskReward = math.NaN()
	} else {
		stats.AvgRiskReward = totalGain / totalLoss
	}
	return stats
}
