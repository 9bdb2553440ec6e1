package sim

import (
	"math"

	"backtester-v1/internal/model"
)

// ExtractTrades reduces the simulator's per-bar output into discrete trades.
//
// Each exit bar is paired FIFO with the oldest unmatched entry bar — valid
// because the simulator never opens a second position before closing the
// first. An entry still open at the end of the series has no exit and is
// dropped. Trades come back ordered by entry date with dense 1-based IDs.
func ExtractTrades(bars []model.Bar, res *Result) []model.Trade {
	var entries, exits []int
	for i := range bars {
		if res.EntryFlags[i] {
			entries = append(entries, i)
		}
		if res.ExitFlags[i] {
			exits = append(exits, i)
		}
	}

	trades := make([]model.Trade, 0, len(exits))
	for k, exitIdx := range exits {
		entryIdx := entries[k]
		t := model.Trade{
			ID:               k + 1,
			EntryDate:        bars[entryIdx].Date,
			ExitDate:         bars[exitIdx].Date,
			EntryPrice:       res.EntryPrices[exitIdx],
			PartialExitPrice: res.PartialExitPrices[exitIdx],
			ExitPrice:        res.ExitPrices[exitIdx],
		}
		t.ReturnPct = returnPct(t)
		trades = append(trades, t)
	}
	return trades
}

// returnPct computes the trade's percentage return. A trade with a partial
// exit blends its two legs equally: half the position came off at the
// partial price, half at the final exit.
func returnPct(t model.Trade) float64 {
	full := (t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100
	if math.IsNaN(t.PartialExitPrice) {
		return full
	}
	partial := (t.PartialExitPrice - t.EntryPrice) / t.EntryPrice * 100
	return 0.5*partial + 0.5*full
}
