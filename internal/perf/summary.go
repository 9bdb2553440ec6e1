package perf

import (
	"sort"

	"backtester-v1/internal/model"
)

// Summary is the trade-count-weighted blend of one parameter set's per-ticker
// stats. Excluded lists the tickers dropped for NaN metrics; they are kept
// visible so an operator can audit why they contributed nothing.
type Summary struct {
	TotalTrades   int      `json:"total_trades"`
	WinRate       float64  `json:"win_rate"`
	AvgRiskReward float64  `json:"avg_rr"`
	AvgReturn     float64  `json:"avg_return"`
	Excluded      []string `json:"excluded,omitempty"`
}

// Summarize blends per-ticker stats into a single weighted summary. Each
// metric is Σ metric_t·trades_t / Σ trades_t over tickers with fully defined
// stats; a zero weighted denominator yields 0 for all three metrics.
func Summarize(stats map[string]model.TickerStats) Summary {
	var sum Summary

	tickers := make([]string, 0, len(stats))
	for t := range stats {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var wWin, wRR, wRet float64
	for _, ticker := range tickers {
		s := stats[ticker]
		if s.HasNaN() {
			sum.Excluded = append(sum.Excluded, ticker)
			continue
		}
		w := float64(s.TotalTrades)
		sum.TotalTrades += s.TotalTrades
		wWin += s.WinRate * w
		wRR += s.AvgRiskReward * w
		wRet += s.AvgReturn * w
	}

	if sum.TotalTrades > 0 {
		n := float64(sum.TotalTrades)
		sum.WinRate = wWin / n
		sum.AvgRiskReward = wRR / n
		sum.AvgReturn = wRet / n
	}
	return sum
}
